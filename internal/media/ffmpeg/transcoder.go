package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"romajitool/internal/fault"
)

// Runner executes ffmpeg and returns its combined output. Overridable for
// tests.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.CombinedOutput()
}

// NormalizeOptions configures the canonical preprocessing transcode.
type NormalizeOptions struct {
	LoudnessTargetLUFS float64
	TruePeakDB         float64
	LoudnessRange      float64
	GainBoostDB        float64
	// Timeout bounds the transcode wall clock; exceeding it is terminal.
	Timeout time.Duration
}

// Transcoder drives ffmpeg for preprocessing, window extraction, and silence
// detection.
type Transcoder struct {
	binary string
	runner Runner
}

// NewTranscoder creates a transcoder for the given binary ("ffmpeg" when
// empty).
func NewTranscoder(binary string) *Transcoder {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Transcoder{binary: binary, runner: defaultRunner}
}

// WithRunner sets a custom runner (for testing).
func (t *Transcoder) WithRunner(runner Runner) *Transcoder {
	if runner != nil {
		t.runner = runner
	}
	return t
}

// Normalize transcodes input into a canonical mono 16kHz loudness-normalized
// WAV at output. Exceeding opts.Timeout returns a TRANSCODE_TIMEOUT fault.
func (t *Transcoder) Normalize(ctx context.Context, input, output string, opts NormalizeOptions) error {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	filter := fmt.Sprintf("loudnorm=I=%g:TP=%g:LRA=%g,volume=%gdB",
		opts.LoudnessTargetLUFS, opts.TruePeakDB, opts.LoudnessRange, opts.GainBoostDB)
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-af", filter,
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		output,
	}

	out, err := t.runner(ctx, t.binary, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fault.New(fault.MarkerTranscodeTimeout, "transcode of %s exceeded %s", input, opts.Timeout)
		}
		return fmt.Errorf("ffmpeg normalize: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// ExtractWindow copies the [start, end] time range of input into a mono
// 16kHz WAV at output.
func (t *Transcoder) ExtractWindow(ctx context.Context, input string, start, end float64, output string) error {
	if end <= start {
		return fmt.Errorf("extract window: invalid range [%g, %g]", start, end)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		output,
	}
	if out, err := t.runner(ctx, t.binary, args...); err != nil {
		return fmt.Errorf("ffmpeg extract window: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// DetectSilence runs a silencedetect sweep over input and returns the raw
// diagnostic text the filter writes. noiseDB is the detection threshold in
// dBFS, minSilence the minimum silence duration in seconds.
func (t *Transcoder) DetectSilence(ctx context.Context, input string, noiseDB, minSilence float64) (string, error) {
	args := []string{
		"-hide_banner",
		"-i", input,
		"-af", fmt.Sprintf("silencedetect=noise=%gdB:d=%g", noiseDB, minSilence),
		"-f", "null",
		"-",
	}
	out, err := t.runner(ctx, t.binary, args...)
	if err != nil {
		return "", fmt.Errorf("ffmpeg silencedetect: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

func formatSeconds(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
