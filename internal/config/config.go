package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"romajitool/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir    string `toml:"cache_dir"`
	LogDir      string `toml:"log_dir"`
	CookiesFile string `toml:"cookies_file"`
}

// Binaries names the external tools the pipeline drives.
type Binaries struct {
	FFmpeg       string `toml:"ffmpeg"`
	FFprobe      string `toml:"ffprobe"`
	Downloader   string `toml:"downloader"`
	AltExtractor string `toml:"alt_extractor"`
	UVX          string `toml:"uvx"`
	Kakasi       string `toml:"kakasi"`
}

// Download configures the tiered audio download chain and its watchdog.
type Download struct {
	StallTimeoutSeconds  int `toml:"stall_timeout_seconds"`
	WatchdogPollSeconds  int `toml:"watchdog_poll_seconds"`
	SocketTimeoutSeconds int `toml:"socket_timeout_seconds"`
	Retries              int `toml:"retries"`
	FragmentRetries      int `toml:"fragment_retries"`
	ConcurrentFragments  int `toml:"concurrent_fragments"`
	HTTPChunkSizeBytes   int `toml:"http_chunk_size_bytes"`
}

// Audio configures caching, preprocessing, and silence chunking.
type Audio struct {
	TranscodeTimeoutSeconds int     `toml:"transcode_timeout_seconds"`
	CacheMaxAgeHours        float64 `toml:"cache_max_age_hours"`
	CacheMinSizeKB          int64   `toml:"cache_min_size_kb"`
	MinDurationSeconds      float64 `toml:"min_duration_seconds"`
	LoudnessTargetLUFS      float64 `toml:"loudness_target_lufs"`
	TruePeakDB              float64 `toml:"true_peak_db"`
	LoudnessRange           float64 `toml:"loudness_range"`
	GainBoostDB             float64 `toml:"gain_boost_db"`
	SilenceNoiseDB          float64 `toml:"silence_noise_db"`
	SilenceMinSeconds       float64 `toml:"silence_min_seconds"`
	ChunkWindowSeconds      float64 `toml:"chunk_window_seconds"`
	ChunkMinRegionSeconds   float64 `toml:"chunk_min_region_seconds"`
	ChunkOverlapSeconds     float64 `toml:"chunk_overlap_seconds"`
}

// Whisper configures the transcription engine and its escalation passes.
type Whisper struct {
	Model                     string    `toml:"model"`
	Device                    string    `toml:"device"`
	BeamSize                  int       `toml:"beam_size"`
	BestOf                    int       `toml:"best_of"`
	NoSpeechThresholdPlain    float64   `toml:"no_speech_threshold_plain"`
	NoSpeechThresholdVAD      float64   `toml:"no_speech_threshold_vad"`
	LogProbThreshold          float64   `toml:"log_prob_threshold"`
	CompressionRatioThreshold float64   `toml:"compression_ratio_threshold"`
	Temperatures              []float64 `toml:"temperatures"`
	VADMinSilenceMS           int       `toml:"vad_min_silence_ms"`
}

// Lyrics configures the downstream text-generation boundary call.
type Lyrics struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config centralizes every knob the CLI needs.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Binaries Binaries `toml:"binaries"`
	Download Download `toml:"download"`
	Audio    Audio    `toml:"audio"`
	Whisper  Whisper  `toml:"whisper"`
	Lyrics   Lyrics   `toml:"lyrics"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the canonical config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "romajitool", "config.toml"), nil
}

// Load reads configuration from path (or the default location when path is
// empty), applies defaults, environment fallbacks, normalization, and
// validation. The returned bool reports whether a config file was found.
func Load(path string) (*Config, bool, error) {
	resolved := strings.TrimSpace(path)
	explicit := resolved != ""
	if !explicit {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, false, err
		}
		resolved = defaultPath
	}

	cfg := Default()
	found := false

	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
		found = true
	case errors.Is(err, fs.ErrNotExist):
		if explicit {
			return nil, false, fmt.Errorf("config file %s not found", resolved)
		}
	default:
		return nil, false, fmt.Errorf("read config %s: %w", resolved, err)
	}

	applyEnv(&cfg)

	if err := cfg.normalize(); err != nil {
		return nil, found, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, found, err
	}
	return &cfg, found, nil
}

// applyEnv layers environment fallbacks over file values. A .env file in the
// working directory is honoured when present; its absence is not an error.
func applyEnv(cfg *Config) {
	_ = godotenv.Load()

	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" && cfg.Lyrics.APIKey == "" {
		cfg.Lyrics.APIKey = key
	}
	if dir := strings.TrimSpace(os.Getenv("ROMAJITOOL_CACHE_DIR")); dir != "" {
		cfg.Paths.CacheDir = dir
	}
	if level := strings.TrimSpace(os.Getenv("ROMAJITOOL_LOG_LEVEL")); level != "" {
		cfg.Logging.Level = level
	}
}

// EnsureDirectories creates the cache and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample config to path, refusing to clobber
// an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SaveAPIKey persists the lyrics API key into the config file at path,
// creating the file from the sample when missing.
func SaveAPIKey(path, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("api key cannot be empty")
	}
	if strings.TrimSpace(path) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return err
		}
		path = defaultPath
	}

	raw := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	section, _ := raw["lyrics"].(map[string]any)
	if section == nil {
		section = map[string]any{}
	}
	section["api_key"] = key
	raw["lyrics"] = section

	data, err := toml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
