package download

import (
	"context"
	"log/slog"
	"time"

	"romajitool/internal/logging"
)

// watch polls the progress state and aborts the attempt once no progress has
// been observed for the grace period. Aborting cancels the attempt context so
// the downloader process is killed rather than left hanging.
func watch(ctx context.Context, state *ProgressState, poll, grace time.Duration, abort context.CancelFunc, logger *slog.Logger) {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			idle := time.Since(state.LastProgress())
			if idle <= grace {
				continue
			}
			state.MarkStalled()
			logger.Warn("download stalled, aborting attempt",
				logging.Duration("idle", idle),
				logging.Duration("grace", grace))
			abort()
			return
		}
	}
}
