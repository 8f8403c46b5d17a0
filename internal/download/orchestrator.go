package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"romajitool/internal/audiocache"
	"romajitool/internal/fault"
	"romajitool/internal/logging"
)

// Store is the slice of the audio cache the orchestrator needs.
type Store interface {
	Get(ctx context.Context, id string) (audiocache.Entry, bool)
	Put(id, srcPath, ext string) (string, error)
}

// DurationProber reports decoded duration for downloaded artifacts.
type DurationProber interface {
	DurationSeconds(ctx context.Context, path string) (float64, error)
}

// Request identifies the audio to acquire.
type Request struct {
	VideoID string
	URL     string
}

// Attempt records the outcome of a single tier for diagnostics and tests.
type Attempt struct {
	Tier    string
	Stalled bool
	Err     error
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(o *Orchestrator) {
		if exec != nil {
			o.exec = exec
		}
	}
}

// Orchestrator runs the tiered download chain with a stall watchdog and
// stores successful artifacts in the audio cache.
type Orchestrator struct {
	opts   Options
	store  Store
	prober DurationProber
	exec   Executor
	logger *slog.Logger
}

// New constructs an Orchestrator.
func New(opts Options, store Store, prober DurationProber, logger *slog.Logger, extra ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		opts:   opts,
		store:  store,
		prober: prober,
		exec:   commandExecutor{},
		logger: logger,
	}
	for _, opt := range extra {
		opt(o)
	}
	return o
}

// Fetch returns a cached entry when eligible, otherwise walks the tier chain
// until one produces an artifact. A stall is fatal and never escalated; any
// other tier failure moves on to the next tier. The returned attempts cover
// every tier that ran.
func (o *Orchestrator) Fetch(ctx context.Context, req Request) (audiocache.Entry, []Attempt, error) {
	id := strings.TrimSpace(req.VideoID)
	if id == "" {
		return audiocache.Entry{}, nil, errors.New("video id required")
	}

	if entry, ok := o.store.Get(ctx, id); ok {
		o.logger.Info("using cached audio",
			logging.String(logging.FieldVideoID, id),
			logging.String("path", entry.Path))
		return entry, nil, nil
	}

	url := strings.TrimSpace(req.URL)
	if url == "" {
		url = "https://www.youtube.com/watch?v=" + id
	}

	stage, err := os.MkdirTemp("", "romajitool-download-*")
	if err != nil {
		return audiocache.Entry{}, nil, fmt.Errorf("create staging directory: %w", err)
	}
	defer os.RemoveAll(stage)

	tiers := buildTiers(o.opts, stage, url)
	attempts := make([]Attempt, 0, len(tiers))

	var downloaded, ext string
	for _, tier := range tiers {
		path, tierExt, attempt := o.runTier(ctx, tier, stage, id)
		attempts = append(attempts, attempt)

		if attempt.Stalled {
			return audiocache.Entry{}, attempts, fault.New(fault.MarkerStalled,
				"no download progress for %s on %s tier", o.opts.StallTimeout, tier.Name)
		}
		if attempt.Err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return audiocache.Entry{}, attempts, ctxErr
			}
			o.logger.Warn("download tier failed",
				logging.String(logging.FieldVideoID, id),
				logging.String(logging.FieldTier, tier.Name),
				logging.Error(attempt.Err))
			continue
		}
		downloaded, ext = path, tierExt
		o.logger.Info("download tier succeeded",
			logging.String(logging.FieldVideoID, id),
			logging.String(logging.FieldTier, tier.Name))
		break
	}

	if downloaded == "" {
		return audiocache.Entry{}, attempts, fault.New(fault.MarkerDownloadFailed,
			"all download tiers failed for %s", id)
	}

	stored, err := o.store.Put(id, downloaded, ext)
	if err != nil {
		return audiocache.Entry{}, attempts, fmt.Errorf("store downloaded audio: %w", err)
	}

	duration, err := o.prober.DurationSeconds(ctx, stored)
	if err != nil {
		return audiocache.Entry{}, attempts, fmt.Errorf("probe downloaded audio: %w", err)
	}
	if duration < o.opts.MinDurationSeconds {
		return audiocache.Entry{}, attempts, fault.New(fault.MarkerAudioTooShort,
			"downloaded audio is %.1fs, need at least %.0fs", duration, o.opts.MinDurationSeconds)
	}

	info, err := os.Stat(stored)
	if err != nil {
		return audiocache.Entry{}, attempts, fmt.Errorf("stat stored audio: %w", err)
	}
	return audiocache.Entry{
		ID:              id,
		Path:            stored,
		Ext:             ext,
		SizeBytes:       info.Size(),
		DurationSeconds: duration,
	}, attempts, nil
}

func (o *Orchestrator) runTier(ctx context.Context, tier Tier, stage, id string) (string, string, Attempt) {
	attemptCtx, cancelAttempt := context.WithCancel(ctx)
	defer cancelAttempt()

	state := NewProgressState()
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go watch(watchCtx, state, o.opts.WatchdogPoll, o.opts.StallTimeout, cancelAttempt,
		o.logger.With(logging.String(logging.FieldTier, tier.Name)))

	err := o.exec.Run(attemptCtx, tier.Binary, tier.Args, func(line string) {
		if isProgressLine(line) {
			state.Touch()
		}
	})
	stopWatch()

	if state.Stalled() {
		return "", "", Attempt{Tier: tier.Name, Stalled: true, Err: err}
	}
	if err != nil {
		return "", "", Attempt{Tier: tier.Name, Err: err}
	}

	path, ext, ok := locateDownload(stage, id)
	if !ok {
		return "", "", Attempt{Tier: tier.Name,
			Err: fmt.Errorf("no audio artifact found after %s tier", tier.Name)}
	}
	return path, ext, Attempt{Tier: tier.Name}
}

// locateDownload probes the staging directory for the artifact under each
// known extension; the downloader picks the container, not us.
func locateDownload(dir, id string) (string, string, bool) {
	for _, ext := range audiocache.KnownExtensions {
		path := filepath.Join(dir, id+"."+ext)
		if info, err := os.Stat(path); err == nil && info.Size() > 0 {
			return path, ext, true
		}
	}
	return "", "", false
}
