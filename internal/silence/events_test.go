package silence

import (
	"strings"
	"testing"
)

func TestParseEventsFromSilencedetectOutput(t *testing.T) {
	diag := strings.Join([]string{
		"Input #0, wav, from 'x.wav':",
		"[silencedetect @ 0x55e] silence_start: 0",
		"[silencedetect @ 0x55e] silence_end: 12 | silence_duration: 12",
		"[silencedetect @ 0x55e] silence_start: 25",
		"size=N/A time=00:00:40.00 bitrate=N/A speed= 512x",
	}, "\n")

	events := ParseEvents(strings.NewReader(diag))
	want := []Event{
		{Kind: Start, At: 0},
		{Kind: End, At: 12},
		{Kind: Start, At: 25},
	}
	if len(events) != len(want) {
		t.Fatalf("event count mismatch: got %d, want %d", len(events), len(want))
	}
	for i, event := range events {
		if event != want[i] {
			t.Errorf("event %d mismatch: got %+v, want %+v", i, event, want[i])
		}
	}
}

func TestParseEventsSkipsMalformedValues(t *testing.T) {
	diag := "silence_start: not-a-number\nsilence_end: 7.25 | silence_duration: 2\n"
	events := ParseEvents(strings.NewReader(diag))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Kind != End || events[0].At != 7.25 {
		t.Errorf("unexpected event: %+v", events[0])
	}
}

func TestParseEventsEmptyInput(t *testing.T) {
	if events := ParseEvents(strings.NewReader("")); len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}
