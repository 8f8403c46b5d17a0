package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"romajitool/internal/config"
)

// Segment is one timed caption produced by the speech recognizer.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Pass describes the recognizer settings that vary between escalation tiers.
type Pass struct {
	Name              string
	VADFilter         bool
	NoSpeechThreshold float64
	VADMinSilenceMS   int
}

// Engine transcribes a single audio file with the given pass settings.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string, pass Pass) ([]Segment, error)
}

// Params holds the recognizer settings shared by every pass.
type Params struct {
	UVXBinary                 string
	Model                     string
	Device                    string
	BeamSize                  int
	BestOf                    int
	LogProbThreshold          float64
	CompressionRatioThreshold float64
	Temperatures              []float64
}

// ParamsFromConfig maps the whisper section onto Params.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		UVXBinary:                 cfg.Binaries.UVX,
		Model:                     cfg.Whisper.Model,
		Device:                    cfg.Whisper.Device,
		BeamSize:                  cfg.Whisper.BeamSize,
		BestOf:                    cfg.Whisper.BestOf,
		LogProbThreshold:          cfg.Whisper.LogProbThreshold,
		CompressionRatioThreshold: cfg.Whisper.CompressionRatioThreshold,
		Temperatures:              cfg.Whisper.Temperatures,
	}
}

// CLIEngine runs whisper-ctranslate2 through uvx and parses its JSON output.
type CLIEngine struct {
	params        Params
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewCLIEngine creates an engine for the given parameters.
func NewCLIEngine(params Params) *CLIEngine {
	if params.UVXBinary == "" {
		params.UVXBinary = "uvx"
	}
	return &CLIEngine{params: params}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *CLIEngine) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) *CLIEngine {
	if runner != nil {
		e.commandRunner = runner
	}
	return e
}

// Transcribe runs one recognizer pass over audioPath.
func (e *CLIEngine) Transcribe(ctx context.Context, audioPath string, pass Pass) ([]Segment, error) {
	if audioPath == "" {
		return nil, fmt.Errorf("transcribe: audio path required")
	}
	outputDir, err := os.MkdirTemp("", "romajitool-whisper-*")
	if err != nil {
		return nil, fmt.Errorf("transcribe: create output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	args := e.buildArgs(audioPath, outputDir, pass)
	if err := e.run(ctx, e.params.UVXBinary, args...); err != nil {
		return nil, fmt.Errorf("whisper %s pass: %w", pass.Name, err)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return LoadSegments(filepath.Join(outputDir, base+".json"))
}

func (e *CLIEngine) run(ctx context.Context, name string, args ...string) error {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// buildArgs constructs the uvx command arguments. The temperature ladder is
// expressed as an initial value plus a fallback increment, which matches the
// strictly increasing ladder the config validates.
func (e *CLIEngine) buildArgs(source, outputDir string, pass Pass) []string {
	temperature, increment := temperatureLadder(e.params.Temperatures)

	args := []string{
		"whisper-ctranslate2",
		source,
		"--model", e.params.Model,
		"--language", "ja",
		"--task", "transcribe",
		"--device", e.params.Device,
		"--beam_size", strconv.Itoa(e.params.BeamSize),
		"--best_of", strconv.Itoa(e.params.BestOf),
		"--condition_on_previous_text", "False",
		"--temperature", formatFloat(temperature),
		"--temperature_increment_on_fallback", formatFloat(increment),
		"--logprob_threshold", formatFloat(e.params.LogProbThreshold),
		"--compression_ratio_threshold", formatFloat(e.params.CompressionRatioThreshold),
		"--no_speech_threshold", formatFloat(pass.NoSpeechThreshold),
		"--vad_filter", pythonBool(pass.VADFilter),
		"--output_format", "json",
		"--output_dir", outputDir,
		"--verbose", "False",
	}
	if pass.VADFilter {
		args = append(args, "--vad_min_silence_duration_ms", strconv.Itoa(pass.VADMinSilenceMS))
	}
	return args
}

func temperatureLadder(temps []float64) (float64, float64) {
	if len(temps) == 0 {
		return 0, 0.2
	}
	if len(temps) == 1 {
		return temps[0], 0
	}
	return temps[0], temps[1] - temps[0]
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func pythonBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

type enginePayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments reads recognizer segments from a JSON output file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var payload enginePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse transcript json: %w", err)
	}
	return payload.Segments, nil
}
