// Package silence turns ffmpeg silencedetect diagnostics into transcription
// windows.
//
// ParseEvents converts the filter's diagnostic text into typed events; Chunk
// maps the silence timeline onto bounded, slightly overlapping windows that
// cover the candidate speech regions. The Detector interface keeps the sweep
// strategy swappable.
package silence
