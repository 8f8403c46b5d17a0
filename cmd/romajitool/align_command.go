package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"romajitool/internal/align"
	"romajitool/internal/fault"
)

type alignSegmentJSON struct {
	Start                   float64 `json:"start"`
	End                     float64 `json:"end"`
	TextSource              string  `json:"text_source"`
	TextRomanized           string  `json:"text_romanized"`
	TextRomanizedNormalized string  `json:"text_romanized_normalized"`
}

type alignOutputJSON struct {
	Segments []alignSegmentJSON `json:"segments"`
}

func newAlignCommand(ctx *commandContext) *cobra.Command {
	var videoID string
	var url string
	var audioPath string
	var model string
	var device string
	var jsonIndent bool

	cmd := &cobra.Command{
		Use:   "align",
		Short: "Produce timestamped romanized captions for a video",
		Long: "Downloads audio for the given video (or uses --audio-path), normalizes it,\n" +
			"transcribes Japanese speech, and prints romanized segments as JSON on stdout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(videoID) == "" && strings.TrimSpace(audioPath) == "" {
				return errors.New("either --video-id or --audio-path is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			result, err := ctx.runAlign(cmd.Context(), cfg, logger, align.Request{
				VideoID:   strings.TrimSpace(videoID),
				URL:       strings.TrimSpace(url),
				AudioPath: strings.TrimSpace(audioPath),
				Model:     strings.TrimSpace(model),
				Device:    strings.TrimSpace(device),
			})
			if err != nil {
				if marker, ok := fault.Marker(err); ok {
					fmt.Fprintln(cmd.ErrOrStderr(), marker)
				}
				return err
			}

			output := alignOutputJSON{Segments: make([]alignSegmentJSON, 0, len(result.Segments))}
			for _, segment := range result.Segments {
				output.Segments = append(output.Segments, alignSegmentJSON{
					Start:                   segment.Start,
					End:                     segment.End,
					TextSource:              segment.Text,
					TextRomanized:           segment.Romaji,
					TextRomanizedNormalized: segment.RomajiNormalized,
				})
			}
			return writeJSON(cmd, output, jsonIndent)
		},
	}

	cmd.Flags().StringVar(&videoID, "video-id", "", "Video identifier to align")
	cmd.Flags().StringVar(&url, "url", "", "Source URL (derived from --video-id when omitted)")
	cmd.Flags().StringVar(&audioPath, "audio-path", "", "Use an existing audio file instead of downloading")
	cmd.Flags().StringVar(&model, "model", "", "Speech recognition model override")
	cmd.Flags().StringVar(&device, "device", "", "Inference device override (auto, cpu, cuda)")
	cmd.Flags().BoolVar(&jsonIndent, "json-indent", false, "Pretty-print the JSON output")
	return cmd
}
