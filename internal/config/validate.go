package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateWhisper(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.CacheDir == "" {
		return errors.New("paths.cache_dir must be set")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.StallTimeoutSeconds <= 0 {
		return errors.New("download.stall_timeout_seconds must be positive")
	}
	if c.Download.WatchdogPollSeconds <= 0 {
		return errors.New("download.watchdog_poll_seconds must be positive")
	}
	if c.Download.WatchdogPollSeconds > c.Download.StallTimeoutSeconds {
		return errors.New("download.watchdog_poll_seconds must not exceed download.stall_timeout_seconds")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.TranscodeTimeoutSeconds <= 0 {
		return errors.New("audio.transcode_timeout_seconds must be positive")
	}
	if c.Audio.MinDurationSeconds <= 0 {
		return errors.New("audio.min_duration_seconds must be positive")
	}
	if c.Audio.ChunkWindowSeconds <= c.Audio.ChunkMinRegionSeconds {
		return errors.New("audio.chunk_window_seconds must exceed audio.chunk_min_region_seconds")
	}
	if c.Audio.ChunkOverlapSeconds < 0 || c.Audio.ChunkOverlapSeconds >= c.Audio.ChunkWindowSeconds {
		return errors.New("audio.chunk_overlap_seconds must be in [0, chunk_window_seconds)")
	}
	return nil
}

func (c *Config) validateWhisper() error {
	switch c.Whisper.Device {
	case "auto", "cpu", "cuda":
	default:
		return fmt.Errorf("whisper.device must be auto, cpu, or cuda (got %q)", c.Whisper.Device)
	}
	if c.Whisper.Model == "" {
		return errors.New("whisper.model must be set")
	}
	if len(c.Whisper.Temperatures) == 0 {
		return errors.New("whisper.temperatures must list at least one value")
	}
	prev := -1.0
	for _, temp := range c.Whisper.Temperatures {
		if temp < 0 || temp > 1 {
			return fmt.Errorf("whisper.temperatures entries must be in [0, 1] (got %v)", temp)
		}
		if temp <= prev {
			return errors.New("whisper.temperatures must be strictly increasing")
		}
		prev = temp
	}
	return nil
}
