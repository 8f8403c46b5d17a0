package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"romajitool/internal/fault"
	"romajitool/internal/silence"
	"romajitool/internal/testsupport"
)

// countingEngine returns scripted segments per pass and records invocations.
type countingEngine struct {
	calls    []string
	byPass   map[string][]Segment
	perChunk [][]Segment
	chunkIdx int
	err      error
}

func (c *countingEngine) Transcribe(ctx context.Context, audioPath string, pass Pass) ([]Segment, error) {
	c.calls = append(c.calls, pass.Name)
	if c.err != nil {
		return nil, c.err
	}
	if pass.Name == "plain" && strings.Contains(filepath.Base(audioPath), "chunk_") {
		if c.chunkIdx < len(c.perChunk) {
			segs := c.perChunk[c.chunkIdx]
			c.chunkIdx++
			return segs, nil
		}
		return nil, nil
	}
	return c.byPass[pass.Name], nil
}

type fixedDetector struct {
	events []silence.Event
	err    error
}

func (f fixedDetector) Detect(ctx context.Context, audioPath string) ([]silence.Event, error) {
	return f.events, f.err
}

type noopExtractor struct {
	ranges []silence.Window
}

func (n *noopExtractor) ExtractWindow(ctx context.Context, input string, start, end float64, output string) error {
	n.ranges = append(n.ranges, silence.Window{Start: start, End: end})
	return os.WriteFile(output, []byte("wav"), 0o644)
}

func testThresholds() Thresholds {
	return Thresholds{NoSpeechPlain: 0.10, NoSpeechVAD: 0.05, VADMinSilenceMS: 300}
}

func newTestEscalator(engine Engine, detector silence.Detector, extractor WindowExtractor) *Escalator {
	return NewEscalator(engine, detector, extractor, silence.DefaultPolicy(), testThresholds(), nil)
}

func TestEscalatorFirstPassShortCircuits(t *testing.T) {
	engine := &countingEngine{byPass: map[string][]Segment{
		"plain": {{Start: 1, End: 3, Text: "こんにちは"}},
	}}
	esc := newTestEscalator(engine, fixedDetector{}, &noopExtractor{})

	segments, err := esc.Transcribe(context.Background(), "audio.wav", 100)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 1 || segments[0].Text != "こんにちは" {
		t.Errorf("unexpected segments: %+v", segments)
	}
	if len(engine.calls) != 1 || engine.calls[0] != "plain" {
		t.Errorf("later passes must not run: %v", engine.calls)
	}
}

func TestEscalatorFallsBackToVAD(t *testing.T) {
	engine := &countingEngine{byPass: map[string][]Segment{
		"plain": nil,
		"vad":   {{Start: 0, End: 2, Text: "ありがとう"}},
	}}
	esc := newTestEscalator(engine, fixedDetector{}, &noopExtractor{})

	segments, err := esc.Transcribe(context.Background(), "audio.wav", 100)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if want := []string{"plain", "vad"}; strings.Join(engine.calls, ",") != strings.Join(want, ",") {
		t.Errorf("pass order = %v", engine.calls)
	}
}

func TestEscalatorChunkedOffsetsTimestamps(t *testing.T) {
	engine := &countingEngine{
		byPass: map[string][]Segment{"plain": nil, "vad": nil},
		perChunk: [][]Segment{
			{{Start: 0.5, End: 2.0, Text: "一行目"}},
			{{Start: 1.0, End: 3.0, Text: "二行目"}},
		},
	}
	// One 25s speech region from 12s to 37s splits into windows
	// [12, 22] and [21.5, 32].
	detector := fixedDetector{events: []silence.Event{
		{Kind: silence.Start, At: 0},
		{Kind: silence.End, At: 12},
		{Kind: silence.Start, At: 37},
	}}
	extractor := &noopExtractor{}
	esc := newTestEscalator(engine, detector, extractor)

	segments, err := esc.Transcribe(context.Background(), "audio.wav", 40)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(segments), segments)
	}
	if segments[0].Start != 12.5 || segments[0].End != 14.0 {
		t.Errorf("first segment not shifted by window start: %+v", segments[0])
	}
	if segments[1].Start != 22.5 || segments[1].End != 24.5 {
		t.Errorf("second segment not shifted by window start: %+v", segments[1])
	}
	if len(extractor.ranges) == 0 || extractor.ranges[0] != (silence.Window{Start: 12, End: 22}) {
		t.Errorf("unexpected extraction ranges: %+v", extractor.ranges)
	}
}

func TestEscalatorNoSegmentsFault(t *testing.T) {
	engine := &countingEngine{byPass: map[string][]Segment{"plain": nil, "vad": nil}}
	detector := fixedDetector{events: nil}
	esc := newTestEscalator(engine, detector, &noopExtractor{})

	_, err := esc.Transcribe(context.Background(), "audio.wav", 40)
	if marker, ok := fault.Marker(err); !ok || marker != fault.MarkerNoSegments {
		t.Fatalf("expected %s, got %v", fault.MarkerNoSegments, err)
	}
}

func TestEscalatorEngineErrorPropagates(t *testing.T) {
	engine := &countingEngine{err: errors.New("model load failed")}
	esc := newTestEscalator(engine, fixedDetector{}, &noopExtractor{})

	if _, err := esc.Transcribe(context.Background(), "audio.wav", 40); err == nil {
		t.Fatal("expected error")
	}
	if len(engine.calls) != 1 {
		t.Errorf("failed pass must not escalate: %v", engine.calls)
	}
}

func TestPruneEmptyTrimsText(t *testing.T) {
	segments := pruneEmpty([]Segment{
		{Start: 0, End: 1, Text: "  歌詞  "},
		{Start: 1, End: 2, Text: "   "},
		{Start: 2, End: 3, Text: ""},
	})
	if len(segments) != 1 || segments[0].Text != "歌詞" {
		t.Errorf("unexpected result: %+v", segments)
	}
}

func TestCLIEngineBuildArgs(t *testing.T) {
	engine := NewCLIEngine(Params{
		Model:                     "large-v3",
		Device:                    "auto",
		BeamSize:                  5,
		BestOf:                    5,
		LogProbThreshold:          -1.2,
		CompressionRatioThreshold: 2.6,
		Temperatures:              []float64{0, 0.2, 0.4, 0.6},
	})

	plain := engine.buildArgs("song.wav", "/tmp/out", Pass{Name: "plain", NoSpeechThreshold: 0.10})
	joined := strings.Join(plain, " ")
	for _, want := range []string{
		"whisper-ctranslate2 song.wav",
		"--model large-v3",
		"--language ja",
		"--beam_size 5",
		"--best_of 5",
		"--condition_on_previous_text False",
		"--temperature 0",
		"--temperature_increment_on_fallback 0.2",
		"--logprob_threshold -1.2",
		"--compression_ratio_threshold 2.6",
		"--no_speech_threshold 0.1",
		"--vad_filter False",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("plain args missing %q: %s", want, joined)
		}
	}
	if strings.Contains(joined, "vad_min_silence") {
		t.Error("plain pass must not set VAD silence duration")
	}

	vad := engine.buildArgs("song.wav", "/tmp/out", Pass{
		Name: "vad", VADFilter: true, NoSpeechThreshold: 0.05, VADMinSilenceMS: 300,
	})
	joined = strings.Join(vad, " ")
	if !strings.Contains(joined, "--vad_filter True") {
		t.Error("vad pass must enable the filter")
	}
	if !strings.Contains(joined, "--vad_min_silence_duration_ms 300") {
		t.Error("vad pass must set minimum silence duration")
	}
	if !strings.Contains(joined, "--no_speech_threshold 0.05") {
		t.Error("vad pass must lower the no-speech threshold")
	}
}

func TestCLIEngineTranscribeParsesOutput(t *testing.T) {
	engine := NewCLIEngine(Params{Model: "small"}).WithCommandRunner(
		func(ctx context.Context, name string, args ...string) error {
			var outputDir string
			for i, arg := range args {
				if arg == "--output_dir" && i+1 < len(args) {
					outputDir = args[i+1]
				}
			}
			if outputDir == "" {
				t.Fatal("no --output_dir in args")
			}
			payload := `{"segments":[{"start":1.5,"end":4.25,"text":"テスト"}]}`
			return os.WriteFile(filepath.Join(outputDir, "song.json"), []byte(payload), 0o644)
		})

	segments, err := engine.Transcribe(context.Background(), "/media/song.wav", Pass{Name: "plain", NoSpeechThreshold: 0.1})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segments) != 1 || segments[0].Text != "テスト" || segments[0].Start != 1.5 {
		t.Errorf("unexpected segments: %+v", segments)
	}
}

func TestParamsFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWhisperModel("small"))
	params := ParamsFromConfig(cfg)

	if params.Model != "small" {
		t.Errorf("model = %q", params.Model)
	}
	if params.BeamSize != cfg.Whisper.BeamSize || params.BestOf != cfg.Whisper.BestOf {
		t.Errorf("search params = %d/%d", params.BeamSize, params.BestOf)
	}
	if params.UVXBinary != cfg.Binaries.UVX {
		t.Errorf("uvx binary = %q", params.UVXBinary)
	}
}

func TestTemperatureLadder(t *testing.T) {
	first, inc := temperatureLadder([]float64{0, 0.2, 0.4, 0.6})
	if first != 0 || inc != 0.2 {
		t.Errorf("ladder = %g +%g", first, inc)
	}
	first, inc = temperatureLadder(nil)
	if first != 0 || inc != 0.2 {
		t.Errorf("default ladder = %g +%g", first, inc)
	}
}

type fakeTransliterator struct{}

func (fakeTransliterator) Transliterate(ctx context.Context, text string) (string, error) {
	if text == "歌" {
		return "Uta!", nil
	}
	return "", errors.New("unknown text")
}

func TestRomanize(t *testing.T) {
	segments := []Segment{{Start: 3, End: 5, Text: "歌"}}
	result, err := Romanize(context.Background(), segments, fakeTransliterator{})
	if err != nil {
		t.Fatalf("Romanize: %v", err)
	}
	if result[0].Romaji != "Uta!" {
		t.Errorf("Romaji = %q", result[0].Romaji)
	}
	if result[0].RomajiNormalized != "uta" {
		t.Errorf("RomajiNormalized = %q", result[0].RomajiNormalized)
	}
}
