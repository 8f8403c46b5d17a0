package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"romajitool/internal/audiocache"
	"romajitool/internal/fault"
	"romajitool/internal/testsupport"
)

type fakeProber struct {
	duration float64
	err      error
}

func (f *fakeProber) DurationSeconds(ctx context.Context, path string) (float64, error) {
	return f.duration, f.err
}

// scriptedExecutor plays back one behavior per Run call, recording each
// invocation.
type scriptedExecutor struct {
	mu     sync.Mutex
	script []func(ctx context.Context, binary string, args []string, onLine func(string)) error
	calls  [][]string
}

func (s *scriptedExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	s.mu.Lock()
	s.calls = append(s.calls, append([]string{binary}, args...))
	idx := len(s.calls) - 1
	s.mu.Unlock()
	if idx >= len(s.script) {
		return errors.New("unexpected executor call")
	}
	return s.script[idx](ctx, binary, args, onLine)
}

func (s *scriptedExecutor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// outputTemplate extracts the value following -o from an argument list.
func outputTemplate(t *testing.T, args []string) string {
	t.Helper()
	for i, arg := range args {
		if arg == "-o" && i+1 < len(args) {
			return args[i+1]
		}
	}
	t.Fatal("no -o flag in args")
	return ""
}

func succeedWith(t *testing.T, id, ext string) func(context.Context, string, []string, func(string)) error {
	return func(_ context.Context, _ string, args []string, onLine func(string)) error {
		onLine("[download]   1.0% of 4.00MiB at 1.00MiB/s ETA 00:04")
		template := outputTemplate(t, args)
		path := strings.Replace(template, "%(id)s.%(ext)s", id+"."+ext, 1)
		testsupport.WriteFile(t, path, 1024)
		return nil
	}
}

func failWith(err error) func(context.Context, string, []string, func(string)) error {
	return func(context.Context, string, []string, func(string)) error {
		return err
	}
}

func blockUntilCancelled() func(context.Context, string, []string, func(string)) error {
	return func(ctx context.Context, _ string, _ []string, _ func(string)) error {
		<-ctx.Done()
		return ctx.Err()
	}
}

func testOptions(t *testing.T) Options {
	return Options{
		Downloader:           "yt-dlp",
		AltExtractor:         "youtube-dl",
		CookiesFile:          filepath.Join(t.TempDir(), "cookies.txt"),
		StallTimeout:         30 * time.Second,
		WatchdogPoll:         time.Second,
		SocketTimeoutSeconds: 15,
		Retries:              3,
		FragmentRetries:      3,
		ConcurrentFragments:  4,
		HTTPChunkSizeBytes:   1048576,
		MinDurationSeconds:   5,
	}
}

func newStore(t *testing.T, duration float64) *audiocache.DirStore {
	policy := audiocache.Policy{
		MaxAge:             6 * time.Hour,
		MinSizeBytes:       200 * 1024,
		MinDurationSeconds: 5,
	}
	return audiocache.NewDirStore(t.TempDir(), policy, &fakeProber{duration: duration}, nil)
}

func TestFetchCacheHitSkipsDownload(t *testing.T) {
	store := newStore(t, 120)
	testsupport.WriteFile(t, filepath.Join(store.Dir(), "vid123.m4a"), 300*1024)
	exec := &scriptedExecutor{}
	orch := New(testOptions(t), store, &fakeProber{duration: 120}, nil, WithExecutor(exec))

	entry, attempts, err := orch.Fetch(context.Background(), Request{VideoID: "vid123"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(attempts) != 0 {
		t.Errorf("cache hit should not run tiers, got %d attempts", len(attempts))
	}
	if exec.callCount() != 0 {
		t.Errorf("executor should not run on cache hit")
	}
	if entry.DurationSeconds != 120 {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestFetchEscalatesThroughAllTiers(t *testing.T) {
	store := newStore(t, 0)
	exec := &scriptedExecutor{script: []func(context.Context, string, []string, func(string)) error{
		failWith(errors.New("primary blocked")),
		failWith(errors.New("fallback blocked")),
		succeedWith(t, "vid123", "m4a"),
	}}
	orch := New(testOptions(t), store, &fakeProber{duration: 200}, nil, WithExecutor(exec))

	entry, attempts, err := orch.Fetch(context.Background(), Request{VideoID: "vid123"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(attempts) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(attempts))
	}
	if attempts[0].Err == nil || attempts[1].Err == nil || attempts[2].Err != nil {
		t.Errorf("unexpected attempt outcomes: %+v", attempts)
	}
	if attempts[2].Tier != "alternate" {
		t.Errorf("final tier = %q", attempts[2].Tier)
	}
	if entry.Path != filepath.Join(store.Dir(), "vid123.m4a") {
		t.Errorf("artifact not stored in cache: %s", entry.Path)
	}
}

func TestFetchAllTiersFailed(t *testing.T) {
	store := newStore(t, 0)
	exec := &scriptedExecutor{script: []func(context.Context, string, []string, func(string)) error{
		failWith(errors.New("one")),
		failWith(errors.New("two")),
		failWith(errors.New("three")),
	}}
	orch := New(testOptions(t), store, &fakeProber{}, nil, WithExecutor(exec))

	_, attempts, err := orch.Fetch(context.Background(), Request{VideoID: "vid123"})
	if marker, ok := fault.Marker(err); !ok || marker != fault.MarkerDownloadFailed {
		t.Fatalf("expected %s, got %v", fault.MarkerDownloadFailed, err)
	}
	if len(attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", len(attempts))
	}
}

func TestFetchStallIsFatalWithoutEscalation(t *testing.T) {
	store := newStore(t, 0)
	exec := &scriptedExecutor{script: []func(context.Context, string, []string, func(string)) error{
		blockUntilCancelled(),
	}}
	opts := testOptions(t)
	opts.StallTimeout = 50 * time.Millisecond
	opts.WatchdogPoll = 10 * time.Millisecond
	orch := New(opts, store, &fakeProber{}, nil, WithExecutor(exec))

	_, attempts, err := orch.Fetch(context.Background(), Request{VideoID: "vid123"})
	if marker, ok := fault.Marker(err); !ok || marker != fault.MarkerStalled {
		t.Fatalf("expected %s, got %v", fault.MarkerStalled, err)
	}
	if len(attempts) != 1 {
		t.Fatalf("stall must not escalate, got %d attempts", len(attempts))
	}
	if !attempts[0].Stalled {
		t.Error("attempt should be flagged stalled")
	}
}

func TestFetchProgressKeepsWatchdogQuiet(t *testing.T) {
	store := newStore(t, 0)
	exec := &scriptedExecutor{script: []func(context.Context, string, []string, func(string)) error{
		func(ctx context.Context, _ string, args []string, onLine func(string)) error {
			deadline := time.After(150 * time.Millisecond)
			ticker := time.NewTicker(10 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-deadline:
					return succeedWith(t, "vid123", "webm")(ctx, "", args, onLine)
				case <-ticker.C:
					onLine("[download]  42.0% of 4.00MiB")
				}
			}
		},
	}}
	opts := testOptions(t)
	opts.StallTimeout = 60 * time.Millisecond
	opts.WatchdogPoll = 10 * time.Millisecond
	orch := New(opts, store, &fakeProber{duration: 90}, nil, WithExecutor(exec))

	entry, _, err := orch.Fetch(context.Background(), Request{VideoID: "vid123"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if entry.Ext != "webm" {
		t.Errorf("unexpected ext: %s", entry.Ext)
	}
}

func TestFetchFreshDownloadTooShort(t *testing.T) {
	store := newStore(t, 0)
	exec := &scriptedExecutor{script: []func(context.Context, string, []string, func(string)) error{
		succeedWith(t, "vid123", "m4a"),
	}}
	orch := New(testOptions(t), store, &fakeProber{duration: 2}, nil, WithExecutor(exec))

	_, _, err := orch.Fetch(context.Background(), Request{VideoID: "vid123"})
	if marker, ok := fault.Marker(err); !ok || marker != fault.MarkerAudioTooShort {
		t.Fatalf("expected %s, got %v", fault.MarkerAudioTooShort, err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStallTimeout(45))
	opts := OptionsFromConfig(cfg)

	if opts.StallTimeout != 45*time.Second {
		t.Errorf("stall timeout = %v", opts.StallTimeout)
	}
	if opts.WatchdogPoll != time.Duration(cfg.Download.WatchdogPollSeconds)*time.Second {
		t.Errorf("watchdog poll = %v", opts.WatchdogPoll)
	}
	if opts.MinDurationSeconds != cfg.Audio.MinDurationSeconds {
		t.Errorf("min duration = %v", opts.MinDurationSeconds)
	}
	if opts.CookiesFile != cfg.Paths.CookiesFile {
		t.Errorf("cookies file = %q", opts.CookiesFile)
	}
}

func TestBuildTiers(t *testing.T) {
	opts := testOptions(t)
	testsupport.WriteFile(t, opts.CookiesFile, 64)
	tiers := buildTiers(opts, t.TempDir(), "https://example.invalid/watch")

	if len(tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(tiers))
	}
	primary := strings.Join(tiers[0].Args, " ")
	fallback := strings.Join(tiers[1].Args, " ")
	alternate := strings.Join(tiers[2].Args, " ")

	if !strings.Contains(primary, "--concurrent-fragments 4") {
		t.Error("primary tier should download fragments concurrently")
	}
	if !strings.Contains(primary, "youtube:player_client=android") {
		t.Error("primary tier should use the android player client")
	}
	if strings.Contains(fallback, "--concurrent-fragments") || strings.Contains(fallback, "player_client") {
		t.Error("fallback tier must stay conservative")
	}
	if !strings.Contains(primary, "--cookies") || !strings.Contains(fallback, "--cookies") {
		t.Error("cookies should be attached to the first two tiers")
	}
	if strings.Contains(alternate, "--cookies") {
		t.Error("alternate tier must run without cookies")
	}
	if tiers[2].Binary != opts.AltExtractor {
		t.Errorf("alternate tier binary = %q", tiers[2].Binary)
	}
}

func TestBuildTiersWithoutCookiesFile(t *testing.T) {
	opts := testOptions(t)
	// CookiesFile points at a path that does not exist.
	tiers := buildTiers(opts, t.TempDir(), "https://example.invalid/watch")
	for _, tier := range tiers {
		if strings.Contains(strings.Join(tier.Args, " "), "--cookies") {
			t.Errorf("%s tier attached cookies without a cookies file", tier.Name)
		}
	}
}

func TestIsProgressLine(t *testing.T) {
	if !isProgressLine("[download]  12.3% of 4MiB") {
		t.Error("progress line not recognized")
	}
	if isProgressLine("[youtube] vid123: Downloading webpage") {
		t.Error("extractor chatter must not count as progress")
	}
}

func TestFetchParentCancellationIsNotAStall(t *testing.T) {
	store := newStore(t, 0)
	exec := &scriptedExecutor{script: []func(context.Context, string, []string, func(string)) error{
		blockUntilCancelled(),
	}}
	orch := New(testOptions(t), store, &fakeProber{}, nil, WithExecutor(exec))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, _, err := orch.Fetch(ctx, Request{VideoID: "vid123"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if _, ok := fault.Marker(err); ok {
		t.Error("cancellation must not carry a fault marker")
	}
}

func TestLocateDownloadIgnoresEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "vid123.m4a"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := locateDownload(dir, "vid123"); ok {
		t.Error("zero-byte artifact should not count as a download")
	}
}
