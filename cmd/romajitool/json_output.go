package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any, indent bool) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
