package main

import (
	"fmt"

	"github.com/YhVgYe98/clawrag-core/internal"
	"github.com/spf13/cobra"
)

func NewDeleteCmd(uc func() *internal.UseCases) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"del", "rm"},
		Short:   "Delete documents by id",
		Long:    `Remove every document with the given id. An id that matches nothing is not an error.`,
		Args:    cobra.ExactArgs(1),
		RunE:    makeDeleteRunner(uc),
	}

	cmd.Flags().StringP("table", "t", "", "Target table")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

func makeDeleteRunner(uc func() *internal.UseCases) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		table, _ := cmd.Flags().GetString("table")

		if _, err := uc().DeleteRecord.Execute(cmd.Context(), internal.DeleteRecordInput{
			Table: table, ID: args[0],
		}); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		return nil
	}
}

func NewClearCmd(uc func() *internal.UseCases) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every document from a table",
		Long:  `Empty the table. The table and its configuration are kept.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, _ := cmd.Flags().GetString("table")

			if err := uc().ClearTable.Execute(cmd.Context(), internal.TableInput{Table: table}); err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringP("table", "t", "", "Target table")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}
