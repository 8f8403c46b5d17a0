package audiocache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"romajitool/internal/fileutil"
	"romajitool/internal/logging"
)

// KnownExtensions lists the raw audio container formats a download may
// produce. Lookup order matters: preferred formats first.
var KnownExtensions = []string{"m4a", "wav", "webm", "opus", "mp4"}

// preprocessedSuffix names the canonical waveform derived from a raw file.
const preprocessedSuffix = "_preprocessed.wav"

// Entry describes one cached raw audio artifact.
type Entry struct {
	ID              string
	Path            string
	Ext             string
	Age             time.Duration
	SizeBytes       int64
	DurationSeconds float64
}

// Policy is the eligibility filter for reusing a cached artifact.
type Policy struct {
	MaxAge             time.Duration
	MinSizeBytes       int64
	MinDurationSeconds float64
}

// DurationProber reports the decoded duration of an audio file.
type DurationProber interface {
	DurationSeconds(ctx context.Context, path string) (float64, error)
}

// Store is an identifier-keyed audio artifact store. Entries are advisory:
// absence is a cache miss, never an error.
type Store interface {
	// Get returns the eligible cached raw artifact for id, if any.
	Get(ctx context.Context, id string) (Entry, bool)
	// Put moves a freshly produced file into the store under id.
	Put(id, srcPath, ext string) (string, error)
	// Locate probes known extensions for id without applying the
	// eligibility filter. Used to find what a download backend produced.
	Locate(id string) (string, bool)
	// RawPath returns the canonical location for a raw artifact.
	RawPath(id, ext string) string
	// PreprocessedPath returns the canonical location for the preprocessed
	// waveform derived from id.
	PreprocessedPath(id string) string
	// Invalidate deletes the backing file of an entry.
	Invalidate(entry Entry) error
	// List reports every raw artifact currently stored.
	List(ctx context.Context) ([]Entry, error)
	// Clear removes all stored artifacts.
	Clear() error
	// Dir returns the backing directory.
	Dir() string
	// Lock takes the store's advisory lock for the duration of a run.
	Lock(ctx context.Context) (func(), error)
}

// DirStore implements Store on a flat directory of {id}.{ext} files.
type DirStore struct {
	dir    string
	policy Policy
	prober DurationProber
	logger *slog.Logger
	now    func() time.Time
}

// NewDirStore creates a directory-backed store.
func NewDirStore(dir string, policy Policy, prober DurationProber, logger *slog.Logger) *DirStore {
	return &DirStore{
		dir:    dir,
		policy: policy,
		prober: prober,
		logger: logging.NewComponentLogger(logger, "audiocache"),
		now:    time.Now,
	}
}

// WithClock overrides the time source (for testing).
func (s *DirStore) WithClock(now func() time.Time) *DirStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *DirStore) Dir() string { return s.dir }

func (s *DirStore) RawPath(id, ext string) string {
	return filepath.Join(s.dir, id+"."+strings.TrimPrefix(ext, "."))
}

func (s *DirStore) PreprocessedPath(id string) string {
	return filepath.Join(s.dir, id+preprocessedSuffix)
}

// Get scans known extensions and reports the first candidate passing the
// freshness, size, and duration filter. A duration probe failure degrades to
// a miss.
func (s *DirStore) Get(ctx context.Context, id string) (Entry, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Entry{}, false
	}
	for _, ext := range KnownExtensions {
		path := s.RawPath(id, ext)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		age := s.now().Sub(info.ModTime())
		if age >= s.policy.MaxAge || info.Size() <= s.policy.MinSizeBytes {
			continue
		}
		duration, err := s.prober.DurationSeconds(ctx, path)
		if err != nil {
			s.logger.Warn("duration probe failed, treating as cache miss",
				logging.String("path", path),
				logging.Error(err))
			continue
		}
		if duration < s.policy.MinDurationSeconds {
			// A decodable but too-short artifact will never become
			// eligible; drop it so the redownload starts clean.
			s.logger.Debug("cached artifact too short, invalidating",
				logging.String("path", path),
				logging.Float64("duration_seconds", duration))
			_ = s.Invalidate(Entry{ID: id, Path: path, Ext: ext})
			continue
		}
		entry := Entry{
			ID:              id,
			Path:            path,
			Ext:             ext,
			Age:             age,
			SizeBytes:       info.Size(),
			DurationSeconds: duration,
		}
		s.logger.Debug("cache hit",
			logging.String("path", path),
			logging.Duration("age", age),
			logging.Int64("size_bytes", info.Size()),
			logging.Float64("duration_seconds", duration))
		return entry, true
	}
	return Entry{}, false
}

func (s *DirStore) Put(id, srcPath, ext string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("audiocache put: id required")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("audiocache put: ensure dir: %w", err)
	}
	dst := s.RawPath(id, ext)
	if err := fileutil.MoveFile(srcPath, dst); err != nil {
		return "", fmt.Errorf("audiocache put: %w", err)
	}
	return dst, nil
}

func (s *DirStore) Locate(id string) (string, bool) {
	for _, ext := range KnownExtensions {
		path := s.RawPath(id, ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func (s *DirStore) Invalidate(entry Entry) error {
	if entry.Path == "" {
		return errors.New("audiocache invalidate: empty path")
	}
	if err := os.Remove(entry.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("audiocache invalidate: %w", err)
	}
	s.logger.Debug("invalidated cache entry", logging.String("path", entry.Path))
	return nil
}

// List reports every raw artifact with best-effort stats. Preprocessed
// waveforms are skipped; they are derived data.
func (s *DirStore) List(ctx context.Context) ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("audiocache list: %w", err)
	}

	var entries []Entry
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if dirEntry.IsDir() || strings.HasSuffix(name, preprocessedSuffix) {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		if !knownExtension(ext) {
			continue
		}
		info, err := dirEntry.Info()
		if err != nil {
			continue
		}
		entry := Entry{
			ID:        strings.TrimSuffix(name, "."+ext),
			Path:      filepath.Join(s.dir, name),
			Ext:       ext,
			Age:       s.now().Sub(info.ModTime()),
			SizeBytes: info.Size(),
		}
		if duration, err := s.prober.DurationSeconds(ctx, entry.Path); err == nil {
			entry.DurationSeconds = duration
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Clear removes raw and preprocessed artifacts, leaving unrelated files
// alone.
func (s *DirStore) Clear() error {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("audiocache clear: %w", err)
	}
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if dirEntry.IsDir() {
			continue
		}
		ext := strings.TrimPrefix(filepath.Ext(name), ".")
		if !knownExtension(ext) && !strings.HasSuffix(name, preprocessedSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return fmt.Errorf("audiocache clear: %w", err)
		}
	}
	return nil
}

// Lock takes an advisory file lock so concurrent runs do not clobber each
// other's artifacts.
func (s *DirStore) Lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("audiocache lock: ensure dir: %w", err)
	}
	lock := flock.New(filepath.Join(s.dir, ".lock"))
	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("audiocache lock: %w", err)
	}
	if !locked {
		return nil, errors.New("audiocache lock: not acquired")
	}
	return func() { _ = lock.Unlock() }, nil
}

func knownExtension(ext string) bool {
	for _, known := range KnownExtensions {
		if ext == known {
			return true
		}
	}
	return false
}
