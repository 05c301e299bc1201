package main

import (
	"fmt"
	"strconv"

	"github.com/YhVgYe98/clawrag-core/internal"
	"github.com/spf13/cobra"
)

const defaultDim = 1024

const tableDeleteLong = `Drop the table's documents, then remove its configuration. If the drop
fails the configuration is kept. A table that was declared but never
ingested into has nothing to drop; its configuration is removed and the
command succeeds.`

func NewTableCmd(uc func() *internal.UseCases) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage tables",
		Long:  `Declare tables, then inspect or delete them.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newTableListCmd(uc),
		newTableNewCmd(uc),
		newTableDeleteCmd(uc),
		newTableInfoCmd(uc),
	)
	return cmd
}

func newTableListCmd(uc func() *internal.UseCases) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tables with their row counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, _ := cmd.Flags().GetBool("all")

			out, err := uc().ListTables.Execute(cmd.Context(), internal.ListTablesInput{All: all})
			if err != nil {
				return fmt.Errorf("list tables: %w", err)
			}

			header := []string{"table", "count"}
			if all {
				header = append(header, "state")
			}

			rows := make([][]string, 0, len(out.Tables))
			for _, t := range out.Tables {
				row := []string{t.Name, strconv.Itoa(t.Rows)}
				if all {
					row = append(row, t.State.String())
				}
				rows = append(rows, row)
			}
			return writeCSV(cmd, header, rows...)
		},
	}

	cmd.Flags().BoolP("all", "a", false, "Include declared tables that hold no documents yet")
	return cmd
}

func newTableNewCmd(uc func() *internal.UseCases) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Declare a table",
		Long:  `Save the table's dimensionality and embedding model. The table itself is created by the first ingest.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dim, _ := cmd.Flags().GetInt("dim")
			model, _ := cmd.Flags().GetString("model")

			if err := uc().DeclareTable.Execute(cmd.Context(), internal.DeclareTableInput{
				Table: args[0], Dim: dim, Model: model,
			}); err != nil {
				return fmt.Errorf("declare table: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().Int("dim", defaultDim, "Vector dimensionality")
	cmd.Flags().String("model", "", "Embedding model name")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func newTableDeleteCmd(uc func() *internal.UseCases) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a table and its configuration",
		Long:    tableDeleteLong,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := uc().DeleteTable.Execute(cmd.Context(), internal.TableInput{Table: args[0]}); err != nil {
				return fmt.Errorf("delete table: %w", err)
			}
			return nil
		},
	}
}

func newTableInfoCmd(uc func() *internal.UseCases) *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show a table's configuration and row count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := uc().TableInfo.Execute(cmd.Context(), internal.TableInput{Table: args[0]})
			if err != nil {
				return fmt.Errorf("table info: %w", err)
			}

			dim, model := "unknown", "unknown"
			if out.Config != nil {
				dim, model = strconv.Itoa(out.Config.Dim), out.Config.Model
			}

			return writeCSV(cmd,
				[]string{"table", "dimensions", "embedding_model", "item_count"},
				[]string{out.Table, dim, model, strconv.Itoa(out.Rows)})
		},
	}
}
