package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CookiesFile, err = expandPath(c.Paths.CookiesFile); err != nil {
		return fmt.Errorf("paths.cookies_file: %w", err)
	}

	c.Whisper.Model = strings.TrimSpace(c.Whisper.Model)
	c.Whisper.Device = strings.ToLower(strings.TrimSpace(c.Whisper.Device))
	c.Lyrics.APIKey = strings.TrimSpace(c.Lyrics.APIKey)
	c.Lyrics.BaseURL = strings.TrimSpace(c.Lyrics.BaseURL)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}

// expandPath resolves a leading tilde against the user's home directory.
func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Clean(trimmed), nil
}
