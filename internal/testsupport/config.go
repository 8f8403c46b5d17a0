package testsupport

import (
	"path/filepath"
	"testing"

	"romajitool/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CacheDir = filepath.Join(base, "cache")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.CookiesFile = filepath.Join(base, "cookies.txt")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithWhisperModel overrides the transcription model on the test config.
func WithWhisperModel(model string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Whisper.Model = model
	}
}

// WithStallTimeout overrides the download stall grace period (in seconds).
func WithStallTimeout(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Download.StallTimeoutSeconds = seconds
	}
}
