package align

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"romajitool/internal/audiocache"
	"romajitool/internal/config"
	"romajitool/internal/deps"
	"romajitool/internal/download"
	"romajitool/internal/fault"
	"romajitool/internal/logging"
	"romajitool/internal/media/ffmpeg"
	"romajitool/internal/media/ffprobe"
	"romajitool/internal/romaji"
	"romajitool/internal/silence"
	"romajitool/internal/transcribe"
)

// Request identifies the audio to align and optional per-run overrides.
type Request struct {
	VideoID string
	URL     string
	// AudioPath points at an already prepared waveform; when set,
	// acquisition and preprocessing are skipped.
	AudioPath string
	Model     string
	Device    string
}

// Result is the aligned transcript for one run.
type Result struct {
	RunID    string
	VideoID  string
	Segments []transcribe.TranscriptSegment
}

// Acquirer fetches raw audio (download.Orchestrator satisfies this).
type Acquirer interface {
	Fetch(ctx context.Context, req download.Request) (audiocache.Entry, []download.Attempt, error)
}

// Preprocessor produces the canonical waveform (ffmpeg.Transcoder satisfies
// this).
type Preprocessor interface {
	Normalize(ctx context.Context, input, output string, opts ffmpeg.NormalizeOptions) error
}

// Transcriber runs the escalating recognition chain.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, totalDuration float64) ([]transcribe.Segment, error)
}

// DurationProber reports decoded duration for audio files.
type DurationProber interface {
	DurationSeconds(ctx context.Context, path string) (float64, error)
}

// Driver wires acquisition, preprocessing, transcription, and romanization
// into one pipeline run.
type Driver struct {
	cfg            *config.Config
	logger         *slog.Logger
	store          audiocache.Store
	acquirer       Acquirer
	preprocessor   Preprocessor
	prober         DurationProber
	transcriber    Transcriber
	transliterator romaji.Transliterator
	preflight      func() error
}

// Option configures the driver, primarily for tests.
type Option func(*Driver)

// WithStore overrides the audio cache store.
func WithStore(store audiocache.Store) Option {
	return func(d *Driver) {
		if store != nil {
			d.store = store
		}
	}
}

// WithAcquirer overrides the download orchestrator.
func WithAcquirer(a Acquirer) Option {
	return func(d *Driver) {
		if a != nil {
			d.acquirer = a
		}
	}
}

// WithPreprocessor overrides the waveform preprocessor.
func WithPreprocessor(p Preprocessor) Option {
	return func(d *Driver) {
		if p != nil {
			d.preprocessor = p
		}
	}
}

// WithProber overrides the duration prober.
func WithProber(p DurationProber) Option {
	return func(d *Driver) {
		if p != nil {
			d.prober = p
		}
	}
}

// WithTranscriber overrides the recognition chain.
func WithTranscriber(t Transcriber) Option {
	return func(d *Driver) {
		if t != nil {
			d.transcriber = t
		}
	}
}

// WithTransliterator overrides the romanizer.
func WithTransliterator(t romaji.Transliterator) Option {
	return func(d *Driver) {
		if t != nil {
			d.transliterator = t
		}
	}
}

// WithPreflight overrides the dependency check.
func WithPreflight(check func() error) Option {
	return func(d *Driver) {
		if check != nil {
			d.preflight = check
		}
	}
}

// New builds a driver with production components derived from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Driver {
	if logger == nil {
		logger = logging.NewNop()
	}

	prober := ffprobe.NewProber(cfg.Binaries.FFprobe)
	policy := audiocache.Policy{
		MaxAge:             time.Duration(cfg.Audio.CacheMaxAgeHours * float64(time.Hour)),
		MinSizeBytes:       cfg.Audio.CacheMinSizeKB * 1024,
		MinDurationSeconds: cfg.Audio.MinDurationSeconds,
	}
	store := audiocache.NewDirStore(cfg.Paths.CacheDir, policy, prober, logger)

	d := &Driver{
		cfg:            cfg,
		logger:         logging.NewComponentLogger(logger, "align"),
		store:          store,
		acquirer:       download.New(download.OptionsFromConfig(cfg), store, prober, logger),
		preprocessor:   ffmpeg.NewTranscoder(cfg.Binaries.FFmpeg),
		prober:         prober,
		transliterator: romaji.NewKakasi(cfg.Binaries.Kakasi),
		preflight: func() error {
			return deps.Verify(deps.CheckBinaries(deps.Requirements(cfg)))
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes the pipeline for one request.
func (d *Driver) Run(ctx context.Context, req Request) (Result, error) {
	runID := uuid.NewString()
	logger := d.logger.With(
		logging.String(logging.FieldRunID, runID),
		logging.String(logging.FieldVideoID, req.VideoID))

	if err := d.preflight(); err != nil {
		return Result{}, err
	}

	audioPath, duration, err := d.prepareAudio(ctx, req, logger)
	if err != nil {
		return Result{}, err
	}

	transcriber := d.transcriber
	if transcriber == nil {
		transcriber = d.buildTranscriber(req.Model, req.Device, logger)
	}

	logger.Info("transcribing", logging.Float64("duration_seconds", duration))
	segments, err := transcriber.Transcribe(ctx, audioPath, duration)
	if err != nil {
		return Result{}, err
	}

	enriched, err := transcribe.Romanize(ctx, segments, d.transliterator)
	if err != nil {
		return Result{}, err
	}
	sort.Slice(enriched, func(i, j int) bool { return enriched[i].Start < enriched[j].Start })

	logger.Info("alignment complete", logging.Int("segments", len(enriched)))
	return Result{RunID: runID, VideoID: req.VideoID, Segments: enriched}, nil
}

// prepareAudio yields the waveform to transcribe and its duration. An
// explicit AudioPath bypasses both the cache lock and preprocessing.
func (d *Driver) prepareAudio(ctx context.Context, req Request, logger *slog.Logger) (string, float64, error) {
	if path := strings.TrimSpace(req.AudioPath); path != "" {
		duration, err := d.prober.DurationSeconds(ctx, path)
		if err != nil {
			return "", 0, fmt.Errorf("probe provided audio: %w", err)
		}
		return path, duration, nil
	}

	id := strings.TrimSpace(req.VideoID)
	if id == "" {
		return "", 0, errors.New("video id or audio path required")
	}

	release, err := d.store.Lock(ctx)
	if err != nil {
		return "", 0, err
	}
	defer release()

	entry, attempts, err := d.acquirer.Fetch(ctx, download.Request{VideoID: id, URL: req.URL})
	if err != nil {
		return "", 0, err
	}
	if len(attempts) > 0 {
		logger.Info("audio acquired", logging.Int("attempts", len(attempts)))
	}

	preprocessed := d.store.PreprocessedPath(id)
	maxAge := time.Duration(d.cfg.Audio.CacheMaxAgeHours * float64(time.Hour))
	if freshWaveform(preprocessed, maxAge, time.Now()) {
		logger.Info("reusing preprocessed waveform", logging.String("path", preprocessed))
	} else {
		opts := ffmpeg.NormalizeOptions{
			LoudnessTargetLUFS: d.cfg.Audio.LoudnessTargetLUFS,
			TruePeakDB:         d.cfg.Audio.TruePeakDB,
			LoudnessRange:      d.cfg.Audio.LoudnessRange,
			GainBoostDB:        d.cfg.Audio.GainBoostDB,
			Timeout:            time.Duration(d.cfg.Audio.TranscodeTimeoutSeconds) * time.Second,
		}
		if err := d.preprocessor.Normalize(ctx, entry.Path, preprocessed, opts); err != nil {
			return "", 0, err
		}
	}

	duration, err := d.prober.DurationSeconds(ctx, preprocessed)
	if err != nil {
		return "", 0, fmt.Errorf("probe preprocessed audio: %w", err)
	}
	if duration < d.cfg.Audio.MinDurationSeconds {
		return "", 0, fault.New(fault.MarkerAudioTooShort,
			"preprocessed audio is %.1fs, below the %.1fs minimum", duration, d.cfg.Audio.MinDurationSeconds)
	}
	return preprocessed, duration, nil
}

// freshWaveform reports whether an existing preprocessed file is young enough
// to reuse without re-encoding.
func freshWaveform(path string, maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return now.Sub(info.ModTime()) < maxAge
}

// buildTranscriber assembles the production recognition chain, honoring
// per-run model and device overrides.
func (d *Driver) buildTranscriber(model, device string, logger *slog.Logger) Transcriber {
	params := transcribe.ParamsFromConfig(d.cfg)
	if model = strings.TrimSpace(model); model != "" {
		params.Model = model
	}
	if device = strings.TrimSpace(device); device != "" {
		params.Device = device
	}

	transcoder := ffmpeg.NewTranscoder(d.cfg.Binaries.FFmpeg)
	detector := silence.SweepDetector{Sweep: func(ctx context.Context, audioPath string) (string, error) {
		return transcoder.DetectSilence(ctx, audioPath, d.cfg.Audio.SilenceNoiseDB, d.cfg.Audio.SilenceMinSeconds)
	}}
	policy := silence.Policy{
		WindowSeconds:    d.cfg.Audio.ChunkWindowSeconds,
		MinRegionSeconds: d.cfg.Audio.ChunkMinRegionSeconds,
		OverlapSeconds:   d.cfg.Audio.ChunkOverlapSeconds,
	}
	thresholds := transcribe.Thresholds{
		NoSpeechPlain:   d.cfg.Whisper.NoSpeechThresholdPlain,
		NoSpeechVAD:     d.cfg.Whisper.NoSpeechThresholdVAD,
		VADMinSilenceMS: d.cfg.Whisper.VADMinSilenceMS,
	}
	engine := transcribe.NewCLIEngine(params)
	return transcribe.NewEscalator(engine, detector, transcoder, policy, thresholds, logger)
}
