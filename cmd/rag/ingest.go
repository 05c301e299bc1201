package main

import (
	"fmt"
	"io"
	"os"

	"github.com/YhVgYe98/clawrag-core/internal"
	"github.com/spf13/cobra"
)

func NewIngestCmd(uc func() *internal.UseCases) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Embed a text file and store it",
		Long:  `Read a UTF-8 text file (or stdin with "-"), embed it with the table's model and append it to the table.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeIngestRunner(uc),
	}

	cmd.Flags().StringP("table", "t", "", "Target table")
	cmd.Flags().String("name", "", "Source label stored with the document")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func makeIngestRunner(uc func() *internal.UseCases) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		table, _ := cmd.Flags().GetString("table")
		name, _ := cmd.Flags().GetString("name")

		text, err := readText(cmd, args[0])
		if err != nil {
			return fmt.Errorf("ingest: %w", err)
		}

		out, err := uc().Ingest.Execute(cmd.Context(), internal.IngestInput{
			Table: table, Text: text, Name: name,
		})
		if err != nil {
			return fmt.Errorf("ingest: %w", err)
		}

		return writeCSV(cmd, []string{"status", "id", "name"}, []string{"success", out.ID, out.Name})
	}
}

func readText(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}
