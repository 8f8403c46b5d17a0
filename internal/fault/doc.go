// Package fault defines the terminal failure taxonomy for the alignment
// pipeline.
//
// Every fatal condition carries a short machine-readable marker token
// (DOWNLOAD_STALLED, WHISPER_NO_SEGMENTS, ...) that the CLI prints to the
// diagnostic channel before exiting non-zero. Recoverable failures, such as a
// single download or transcription tier coming up empty, never surface as
// fault errors; they are handled by tier escalation.
package fault
