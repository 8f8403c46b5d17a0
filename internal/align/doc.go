// Package align drives the full pipeline for one video: acquire audio,
// preprocess it into a canonical waveform, transcribe with escalating
// recognizer passes, and romanize the resulting segments.
package align
