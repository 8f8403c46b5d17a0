package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the audio cache",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached audio artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.newStore()
			if err != nil {
				return err
			}
			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				duration := "-"
				if entry.DurationSeconds > 0 {
					duration = formatDuration(entry.DurationSeconds)
				}
				rows = append(rows, []string{
					entry.ID,
					entry.Ext,
					fmt.Sprintf("%.1f MB", float64(entry.SizeBytes)/(1024*1024)),
					entry.Age.Round(time.Minute).String(),
					duration,
				})
			}
			headers := []string{"ID", "FORMAT", "SIZE", "AGE", "DURATION"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached audio artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.newStore()
			if err != nil {
				return err
			}
			release, err := store.Lock(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		},
	}
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return d.String()
}
