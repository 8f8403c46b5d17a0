package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"romajitool/internal/services/lyrics"
)

func newLyricsCommand(ctx *commandContext) *cobra.Command {
	var lineCount int
	var referencePath string

	cmd := &cobra.Command{
		Use:   "lyrics",
		Short: "Polish romanized lyrics with a language model",
		Long: "Reads Japanese captions from stdin and prints a cleaned Hepburn\n" +
			"romanization, optionally steered by a reference romanization file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			captions, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read captions: %w", err)
			}
			if strings.TrimSpace(string(captions)) == "" {
				return fmt.Errorf("no captions on stdin")
			}

			reference := ""
			if referencePath != "" {
				data, err := os.ReadFile(referencePath)
				if err != nil {
					return fmt.Errorf("read reference: %w", err)
				}
				reference = string(data)
			}

			client := lyrics.NewClient(lyrics.Config{
				APIKey:         cfg.Lyrics.APIKey,
				BaseURL:        cfg.Lyrics.BaseURL,
				Model:          cfg.Lyrics.Model,
				TimeoutSeconds: cfg.Lyrics.TimeoutSeconds,
			})
			polished, err := client.Polish(cmd.Context(), lyrics.Request{
				Captions:  string(captions),
				Reference: reference,
				LineCount: lineCount,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), polished)
			return nil
		},
	}

	cmd.Flags().IntVar(&lineCount, "line-count", 0, "Expected output line count (derived from input when 0)")
	cmd.Flags().StringVar(&referencePath, "reference", "", "Path to a reference romanization file")
	return cmd
}
