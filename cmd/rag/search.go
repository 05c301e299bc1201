package main

import (
	"fmt"

	"github.com/YhVgYe98/clawrag-core/internal"
	"github.com/spf13/cobra"
)

func NewSearchCmd(uc func() *internal.UseCases) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find documents by source label",
		Long:  `List the id of every document whose source label equals --name exactly.`,
		Args:  cobra.NoArgs,
		RunE:  makeSearchRunner(uc),
	}

	cmd.Flags().StringP("table", "t", "", "Target table")
	cmd.Flags().String("name", "", "Source label to match")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func makeSearchRunner(uc func() *internal.UseCases) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		table, _ := cmd.Flags().GetString("table")
		name, _ := cmd.Flags().GetString("name")

		out, err := uc().FindByLabel.Execute(cmd.Context(), internal.FindByLabelInput{
			Table: table, Name: name,
		})
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		rows := make([][]string, 0, len(out.Matches))
		for _, m := range out.Matches {
			rows = append(rows, []string{m.ID, m.Name})
		}
		return writeCSV(cmd, []string{"id", "name"}, rows...)
	}
}
