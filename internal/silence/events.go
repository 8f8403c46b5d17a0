package silence

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
)

// EventKind distinguishes the two silencedetect event types.
type EventKind int

const (
	// Start marks the beginning of a detected silence interval.
	Start EventKind = iota
	// End marks the end of a detected silence interval.
	End
)

// Event is one typed silencedetect observation.
type Event struct {
	Kind EventKind
	At   float64
}

// Detector produces silence events for an audio file. The concrete sweep
// strategy (ffmpeg silencedetect, a test fixture) stays behind this
// interface so the chunking algorithm does not depend on how diagnostics
// are produced or parsed.
type Detector interface {
	Detect(ctx context.Context, audioPath string) ([]Event, error)
}

// ParseEvents extracts typed events from silencedetect diagnostic text.
// Unparsable lines are skipped; ordering follows the input.
func ParseEvents(r io.Reader) []Event {
	var events []Event
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if at, ok := parseEventValue(line, "silence_start:"); ok {
			events = append(events, Event{Kind: Start, At: at})
			continue
		}
		if at, ok := parseEventValue(line, "silence_end:"); ok {
			events = append(events, Event{Kind: End, At: at})
		}
	}
	return events
}

func parseEventValue(line, key string) (float64, bool) {
	idx := strings.Index(line, key)
	if idx < 0 {
		return 0, false
	}
	rest := line[idx+len(key):]
	// silence_end lines append "| silence_duration: ..." after the value.
	if pipe := strings.IndexByte(rest, '|'); pipe >= 0 {
		rest = rest[:pipe]
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
