package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"romajitool/internal/config"
	"romajitool/internal/fault"
)

// Requirement defines an external tool the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements builds the requirement list from configured binaries.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "ffmpeg", Command: cfg.Binaries.FFmpeg, Description: "audio transcoding, extraction, and silence detection"},
		{Name: "ffprobe", Command: cfg.Binaries.FFprobe, Description: "audio duration and size probing"},
		{Name: "downloader", Command: cfg.Binaries.Downloader, Description: "primary and fallback audio download tiers"},
		{Name: "alt-extractor", Command: cfg.Binaries.AltExtractor, Description: "last-resort download backend", Optional: true},
		{Name: "uvx", Command: cfg.Binaries.UVX, Description: "runs the speech recognition engine"},
		{Name: "kakasi", Command: cfg.Binaries.Kakasi, Description: "kana/kanji to romaji transliteration"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Verify returns a terminal fault for the first missing required tool.
// A missing ffmpeg keeps its historical marker; everything else maps to the
// generic dependency marker.
func Verify(statuses []Status) error {
	for _, status := range statuses {
		if status.Available || status.Optional {
			continue
		}
		token := fault.MarkerDependencyMissing
		if status.Name == "ffmpeg" {
			token = fault.MarkerFFmpegMissing
		}
		return fault.New(token, "%s: %s", status.Name, status.Detail)
	}
	return nil
}
