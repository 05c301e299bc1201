package main

import (
	"log/slog"

	"github.com/YhVgYe98/clawrag-core/internal"
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rag",
		Short:         "Local embedding-indexed document store",
		Long:          `Store text with embedding vectors in named tables and query them by similarity.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	addPersistentFlags(rootCmd)

	if a != nil {
		rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
			return a.configure(cmd)
		}
		addSubcommands(rootCmd, a)
	}

	return rootCmd
}

func addPersistentFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP("db", "d", "", "Database directory (default $"+internal.EnvDB+" or "+internal.DefaultRoot+")")
	cmd.PersistentFlags().String("api-url", "", "Embedding API URL (default $"+internal.EnvAPIURL+")")
	cmd.PersistentFlags().String("api-key", "", "Embedding API key (default $"+internal.EnvAPIKey+")")
	cmd.PersistentFlags().Duration("timeout", internal.DefaultTimeout, "Embedding request timeout")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

func addSubcommands(root *cobra.Command, a *app) {
	uc := func() *internal.UseCases { return a.uc }
	ws := func() internal.Workspace { return a.ws }
	logger := func() *slog.Logger { return a.logger }

	root.AddCommand(
		NewInitCmd(ws, logger),
		NewTableCmd(uc),
		NewIngestCmd(uc),
		NewQueryCmd(uc),
		NewSearchCmd(uc),
		NewDeleteCmd(uc),
		NewClearCmd(uc),
	)
}
