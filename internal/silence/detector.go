package silence

import (
	"context"
	"strings"
)

// SweepFunc runs a silence sweep over an audio file and returns the raw
// diagnostic text (ffmpeg.Transcoder.DetectSilence satisfies this once the
// threshold parameters are bound).
type SweepFunc func(ctx context.Context, audioPath string) (string, error)

// SweepDetector adapts a SweepFunc into a Detector by parsing its output.
type SweepDetector struct {
	Sweep SweepFunc
}

func (d SweepDetector) Detect(ctx context.Context, audioPath string) ([]Event, error) {
	text, err := d.Sweep(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	return ParseEvents(strings.NewReader(text)), nil
}
