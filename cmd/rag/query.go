package main

import (
	"fmt"

	"github.com/YhVgYe98/clawrag-core/internal"
	"github.com/spf13/cobra"
)

const defaultLimit = 5

func NewQueryCmd(uc func() *internal.UseCases) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Find the documents closest to a text",
		Long:  `Embed the query text with the table's model and print the nearest documents, best first.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeQueryRunner(uc),
	}

	cmd.Flags().StringP("table", "t", "", "Target table")
	cmd.Flags().IntP("limit", "l", defaultLimit, "Maximum results")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func makeQueryRunner(uc func() *internal.UseCases) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		table, _ := cmd.Flags().GetString("table")
		limit, _ := cmd.Flags().GetInt("limit")

		out, err := uc().Query.Execute(cmd.Context(), internal.QueryInput{
			Table: table, Text: args[0], Limit: limit,
		})
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}

		rows := make([][]string, 0, len(out.Results))
		for _, r := range out.Results {
			rows = append(rows, []string{formatScore(r.Score), r.ID, r.Name, singleLine(r.Text)})
		}
		return writeCSV(cmd, []string{"score", "id", "name", "text"}, rows...)
	}
}
