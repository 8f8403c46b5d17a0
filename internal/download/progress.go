package download

import (
	"strings"
	"sync"
	"time"
)

// ProgressState tracks liveness of a single download attempt. The executor
// touches it on every progress line; the watchdog reads it.
type ProgressState struct {
	mu           sync.Mutex
	lastProgress time.Time
	stalled      bool
}

// NewProgressState returns a state primed with the current time so a slow
// process start does not count against the grace period twice.
func NewProgressState() *ProgressState {
	return &ProgressState{lastProgress: time.Now()}
}

// Touch records that the download made progress.
func (p *ProgressState) Touch() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastProgress = time.Now()
}

// LastProgress reports when progress was last observed.
func (p *ProgressState) LastProgress() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastProgress
}

// MarkStalled flags the attempt as stalled. The flag is sticky.
func (p *ProgressState) MarkStalled() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stalled = true
}

// Stalled reports whether the watchdog gave up on this attempt.
func (p *ProgressState) Stalled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stalled
}

// isProgressLine matches the per-fragment progress stream emitted by the
// downloader under --newline.
func isProgressLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "[download]")
}
