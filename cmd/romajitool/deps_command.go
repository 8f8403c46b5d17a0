package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"romajitool/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tool availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.Requirements(cfg))

			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = "missing"
					if status.Optional {
						state = "missing (optional)"
					}
				}
				rows = append(rows, []string{status.Name, status.Command, state, status.Description})
			}
			headers := []string{"TOOL", "COMMAND", "STATUS", "PURPOSE"}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, nil))

			return deps.Verify(statuses)
		},
	}
}
