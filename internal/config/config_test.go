package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingDefaultFallsBackToDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, found, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if found {
		t.Fatal("no config file should be found in an empty home")
	}
	if cfg.Whisper.Model != defaultWhisperModel {
		t.Errorf("model mismatch: got %q", cfg.Whisper.Model)
	}
	if cfg.Download.StallTimeoutSeconds != defaultStallTimeoutSeconds {
		t.Errorf("stall timeout mismatch: got %d", cfg.Download.StallTimeoutSeconds)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("explicit missing config path should fail")
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`cache_dir = "` + filepath.Join(dir, "cache") + `"`,
		"[whisper]",
		`model = "medium"`,
		"[download]",
		"stall_timeout_seconds = 45",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, found, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Fatal("config file should be reported as found")
	}
	if cfg.Whisper.Model != "medium" {
		t.Errorf("model override lost: %q", cfg.Whisper.Model)
	}
	if cfg.Download.StallTimeoutSeconds != 45 {
		t.Errorf("stall timeout override lost: %d", cfg.Download.StallTimeoutSeconds)
	}
	// Untouched sections keep defaults.
	if cfg.Audio.TranscodeTimeoutSeconds != defaultTranscodeTimeoutSeconds {
		t.Errorf("audio defaults lost: %d", cfg.Audio.TranscodeTimeoutSeconds)
	}
}

func TestValidateRejectsBadDevice(t *testing.T) {
	cfg := Default()
	cfg.Whisper.Device = "tpu"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure for unknown device")
	}
}

func TestValidateRejectsDecreasingTemperatures(t *testing.T) {
	cfg := Default()
	cfg.Whisper.Temperatures = []float64{0.4, 0.2}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure for non-increasing ladder")
	}
}

func TestValidateWatchdogPollBound(t *testing.T) {
	cfg := Default()
	cfg.Download.WatchdogPollSeconds = cfg.Download.StallTimeoutSeconds + 1
	if err := cfg.Validate(); err == nil {
		t.Fatal("watchdog poll longer than stall timeout should fail")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := expandPath("~/cache")
	if err != nil {
		t.Fatalf("expandPath: %v", err)
	}
	if got != filepath.Join(home, "cache") {
		t.Errorf("tilde expansion mismatch: %q", got)
	}
}

func TestSaveAPIKeyRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := SaveAPIKey(path, "sk-test"); err != nil {
		t.Fatalf("SaveAPIKey: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "sk-test") {
		t.Error("api key not persisted")
	}

	// Re-saving must preserve unrelated settings.
	if err := os.WriteFile(path, append(data, []byte("\n[whisper]\nmodel = \"small\"\n")...), 0o600); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := SaveAPIKey(path, "sk-new"); err != nil {
		t.Fatalf("SaveAPIKey rewrite: %v", err)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("re-read config: %v", err)
	}
	if !strings.Contains(string(data), "sk-new") || !strings.Contains(string(data), "small") {
		t.Errorf("rewrite lost settings: %s", data)
	}
}
