package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/YhVgYe98/clawrag-core/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd(ws func() internal.Workspace, logger func() *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the database directory",
		Long:  `Create the database directory and a default config.yaml. Running it again is harmless.`,
		Args:  cobra.NoArgs,
		RunE:  makeInitRunner(ws, logger),
	}
}

func makeInitRunner(ws func() internal.Workspace, logger func() *slog.Logger) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		w := ws()
		if err := w.Init(); err != nil {
			return fmt.Errorf("init: %w", err)
		}

		if _, err := os.Stat(w.ConfigPath()); os.IsNotExist(err) {
			if err := internal.SaveConfig(w, internal.DefaultConfig()); err != nil {
				return fmt.Errorf("init: %w", err)
			}
		}

		logger().Info("database initialized", "path", w.Root)
		return nil
	}
}
