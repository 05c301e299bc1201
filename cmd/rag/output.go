package main

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// writeCSV writes a header and rows to stdout.
func writeCSV(cmd *cobra.Command, header []string, rows ...[]string) error {
	w := csv.NewWriter(cmd.OutOrStdout())
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.4f", score)
}

// singleLine flattens text for display.
func singleLine(text string) string {
	return strings.ReplaceAll(text, "\n", " ")
}
