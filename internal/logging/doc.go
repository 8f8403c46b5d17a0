// Package logging wires log/slog for the alignment pipeline.
//
// All diagnostics go to stderr (and optionally a log file); stdout belongs to
// the result JSON. The package provides Attr aliases so call sites avoid a
// direct slog import, component loggers for per-package attribution, and a
// no-op logger for tests.
package logging
