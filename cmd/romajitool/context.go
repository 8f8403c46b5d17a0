package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"romajitool/internal/align"
	"romajitool/internal/audiocache"
	"romajitool/internal/config"
	"romajitool/internal/logging"
	"romajitool/internal/media/ffprobe"
)

// alignRunner executes one pipeline run; overridable in tests.
type alignRunner func(ctx context.Context, cfg *config.Config, logger *slog.Logger, req align.Request) (align.Result, error)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	logOnce sync.Once
	logger  *slog.Logger
	logErr  error

	runAlign alignRunner
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		runAlign: func(ctx context.Context, cfg *config.Config, logger *slog.Logger, req align.Request) (align.Result, error) {
			return align.New(cfg, logger).Run(ctx, req)
		},
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.logOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logErr = err
			return
		}
		c.logger, c.logErr = logging.New(logging.Options{
			Level:    cfg.Logging.Level,
			Format:   cfg.Logging.Format,
			FilePath: filepath.Join(cfg.Paths.LogDir, "romajitool.log"),
		})
	})
	return c.logger, c.logErr
}

// newStore builds the audio cache store the cache subcommands operate on.
func (c *commandContext) newStore() (audiocache.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	prober := ffprobe.NewProber(cfg.Binaries.FFprobe)
	policy := audiocache.Policy{
		MaxAge:             time.Duration(cfg.Audio.CacheMaxAgeHours * float64(time.Hour)),
		MinSizeBytes:       cfg.Audio.CacheMinSizeKB * 1024,
		MinDurationSeconds: cfg.Audio.MinDurationSeconds,
	}
	return audiocache.NewDirStore(cfg.Paths.CacheDir, policy, prober, logger), nil
}
