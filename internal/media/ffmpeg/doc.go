// Package ffmpeg drives the ffmpeg binary for the three audio operations the
// pipeline needs: loudness-normalized preprocessing into the canonical mono
// 16kHz waveform, extraction of chunk windows for independent transcription,
// and silencedetect sweeps whose diagnostics feed the silence parser.
package ffmpeg
