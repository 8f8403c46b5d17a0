// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The pipeline only needs container-level facts: decoded duration and size.
// Probe failures are plain errors so callers can treat them as "duration
// unknown" and fall back to a cache miss.
package ffprobe
