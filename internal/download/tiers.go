package download

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"romajitool/internal/config"
)

// Options carries everything the tier chain needs, flattened from config so
// the orchestrator does not depend on file layout at call time.
type Options struct {
	Downloader           string
	AltExtractor         string
	CookiesFile          string
	StallTimeout         time.Duration
	WatchdogPoll         time.Duration
	SocketTimeoutSeconds int
	Retries              int
	FragmentRetries      int
	ConcurrentFragments  int
	HTTPChunkSizeBytes   int
	MinDurationSeconds   float64
}

// OptionsFromConfig maps the download and audio sections onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Downloader:           cfg.Binaries.Downloader,
		AltExtractor:         cfg.Binaries.AltExtractor,
		CookiesFile:          cfg.Paths.CookiesFile,
		StallTimeout:         time.Duration(cfg.Download.StallTimeoutSeconds) * time.Second,
		WatchdogPoll:         time.Duration(cfg.Download.WatchdogPollSeconds) * time.Second,
		SocketTimeoutSeconds: cfg.Download.SocketTimeoutSeconds,
		Retries:              cfg.Download.Retries,
		FragmentRetries:      cfg.Download.FragmentRetries,
		ConcurrentFragments:  cfg.Download.ConcurrentFragments,
		HTTPChunkSizeBytes:   cfg.Download.HTTPChunkSizeBytes,
		MinDurationSeconds:   cfg.Audio.MinDurationSeconds,
	}
}

// Tier is one fully resolved download strategy. Tiers run in order; the first
// one that produces an artifact wins.
type Tier struct {
	Name   string
	Binary string
	Args   []string
}

// buildTiers resolves the escalation chain for one request. Cookies are only
// attached to the first two tiers; the alternate extractor runs bare.
func buildTiers(opts Options, stageDir, url string) []Tier {
	template := filepath.Join(stageDir, "%(id)s.%(ext)s")

	cookies := ""
	if opts.CookiesFile != "" {
		if _, err := os.Stat(opts.CookiesFile); err == nil {
			cookies = opts.CookiesFile
		}
	}

	base := []string{
		"-f", "bestaudio[ext=m4a]/bestaudio/best",
		"--newline",
		"--no-playlist",
		"--socket-timeout", strconv.Itoa(opts.SocketTimeoutSeconds),
		"--retries", strconv.Itoa(opts.Retries),
		"--fragment-retries", strconv.Itoa(opts.FragmentRetries),
		"--http-chunk-size", strconv.Itoa(opts.HTTPChunkSizeBytes),
	}

	primary := append([]string(nil), base...)
	primary = append(primary,
		"--concurrent-fragments", strconv.Itoa(opts.ConcurrentFragments),
		"--extractor-args", "youtube:player_client=android")
	if cookies != "" {
		primary = append(primary, "--cookies", cookies)
	}
	primary = append(primary, "-o", template, url)

	fallback := append([]string(nil), base...)
	if cookies != "" {
		fallback = append(fallback, "--cookies", cookies)
	}
	fallback = append(fallback, "-o", template, url)

	alternate := []string{
		"-f", "bestaudio/best",
		"--newline",
		"-o", template,
		url,
	}

	return []Tier{
		{Name: "primary", Binary: opts.Downloader, Args: primary},
		{Name: "fallback", Binary: opts.Downloader, Args: fallback},
		{Name: "alternate", Binary: opts.AltExtractor, Args: alternate},
	}
}
