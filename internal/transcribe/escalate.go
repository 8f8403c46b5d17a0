package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"romajitool/internal/fault"
	"romajitool/internal/logging"
	"romajitool/internal/silence"
)

// WindowExtractor copies a time range of an audio file into a standalone WAV
// (ffmpeg.Transcoder satisfies this).
type WindowExtractor interface {
	ExtractWindow(ctx context.Context, input string, start, end float64, output string) error
}

// Thresholds carries the per-pass settings that differ between tiers.
type Thresholds struct {
	NoSpeechPlain   float64
	NoSpeechVAD     float64
	VADMinSilenceMS int
}

// Escalator runs recognizer passes in order of increasing aggressiveness
// until one yields segments: plain, then VAD-filtered, then silence-chunked.
type Escalator struct {
	engine     Engine
	detector   silence.Detector
	extractor  WindowExtractor
	policy     silence.Policy
	thresholds Thresholds
	logger     *slog.Logger
}

// NewEscalator wires the escalation chain.
func NewEscalator(engine Engine, detector silence.Detector, extractor WindowExtractor, policy silence.Policy, thresholds Thresholds, logger *slog.Logger) *Escalator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Escalator{
		engine:     engine,
		detector:   detector,
		extractor:  extractor,
		policy:     policy,
		thresholds: thresholds,
		logger:     logger,
	}
}

// Transcribe escalates through the pass chain. totalDuration is the decoded
// length of audioPath in seconds, needed to close the final chunk region.
// Zero segments after the last tier is a WHISPER_NO_SEGMENTS fault.
func (e *Escalator) Transcribe(ctx context.Context, audioPath string, totalDuration float64) ([]Segment, error) {
	plain := Pass{Name: "plain", NoSpeechThreshold: e.thresholds.NoSpeechPlain}

	segments, err := e.runPass(ctx, audioPath, plain)
	if err != nil {
		return nil, err
	}
	if len(segments) > 0 {
		return segments, nil
	}

	e.logger.Info("plain pass yielded no segments, retrying with VAD",
		logging.String(logging.FieldPass, "vad"))
	vad := Pass{
		Name:              "vad",
		VADFilter:         true,
		NoSpeechThreshold: e.thresholds.NoSpeechVAD,
		VADMinSilenceMS:   e.thresholds.VADMinSilenceMS,
	}
	segments, err = e.runPass(ctx, audioPath, vad)
	if err != nil {
		return nil, err
	}
	if len(segments) > 0 {
		return segments, nil
	}

	e.logger.Info("VAD pass yielded no segments, retrying chunked",
		logging.String(logging.FieldPass, "chunked"))
	segments, err = e.transcribeChunked(ctx, audioPath, totalDuration, plain)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fault.New(fault.MarkerNoSegments,
			"no segments after all transcription passes for %s", filepath.Base(audioPath))
	}
	return segments, nil
}

func (e *Escalator) runPass(ctx context.Context, audioPath string, pass Pass) ([]Segment, error) {
	segments, err := e.engine.Transcribe(ctx, audioPath, pass)
	if err != nil {
		return nil, err
	}
	return pruneEmpty(segments), nil
}

// transcribeChunked splits the file on detected silence and transcribes each
// window independently, mapping chunk-local timestamps back to file time.
// Chunk WAVs are removed as soon as their pass finishes, successful or not.
func (e *Escalator) transcribeChunked(ctx context.Context, audioPath string, totalDuration float64, pass Pass) ([]Segment, error) {
	events, err := e.detector.Detect(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("silence sweep: %w", err)
	}
	windows, ok := silence.Chunk(events, totalDuration, e.policy)
	if !ok {
		e.logger.Info("no qualifying speech regions found")
		return nil, nil
	}

	workDir, err := os.MkdirTemp("", "romajitool-chunks-*")
	if err != nil {
		return nil, fmt.Errorf("create chunk dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	var all []Segment
	for i, window := range windows {
		segments, err := e.transcribeWindow(ctx, audioPath, window, workDir, i, pass)
		if err != nil {
			return nil, err
		}
		all = append(all, segments...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Start < all[j].Start })
	return all, nil
}

func (e *Escalator) transcribeWindow(ctx context.Context, audioPath string, window silence.Window, workDir string, index int, pass Pass) ([]Segment, error) {
	chunkPath := filepath.Join(workDir, fmt.Sprintf("chunk_%03d.wav", index))
	defer os.Remove(chunkPath)

	if err := e.extractor.ExtractWindow(ctx, audioPath, window.Start, window.End, chunkPath); err != nil {
		return nil, fmt.Errorf("extract chunk %d: %w", index, err)
	}
	segments, err := e.engine.Transcribe(ctx, chunkPath, pass)
	if err != nil {
		return nil, fmt.Errorf("transcribe chunk %d: %w", index, err)
	}

	shifted := make([]Segment, 0, len(segments))
	for _, segment := range pruneEmpty(segments) {
		shifted = append(shifted, Segment{
			Start: segment.Start + window.Start,
			End:   segment.End + window.Start,
			Text:  segment.Text,
		})
	}
	return shifted, nil
}

// pruneEmpty drops segments whose text is blank after trimming.
func pruneEmpty(segments []Segment) []Segment {
	kept := make([]Segment, 0, len(segments))
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		segment.Text = text
		kept = append(kept, segment)
	}
	return kept
}
