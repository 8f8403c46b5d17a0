// Package deps performs preflight checks for the external tools the pipeline
// drives (ffmpeg, ffprobe, the downloader tiers, the speech engine runner,
// and the transliterator).
package deps
