package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/YhVgYe98/clawrag-core/internal"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	a := newApp()
	rootCmd := NewRootCmd(version, a)
	err := fang.Execute(ctx, rootCmd)

	if cerr := a.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "rag: close index: %v\n", cerr)
		err = cerr
	}
	if err != nil {
		os.Exit(1)
	}
}

// app holds what one invocation resolves from flags, environment and the
// config file. embedder and index may be preset; otherwise they are built
// from configuration.
type app struct {
	ws       internal.Workspace
	cfg      *internal.Config
	logger   *slog.Logger
	embedder internal.Embedder
	index    internal.VectorIndex
	uc       *internal.UseCases
}

func newApp() *app {
	return &app{}
}

// configure runs before every subcommand. Precedence is flag, then
// environment, then config.yaml, then defaults.
func (a *app) configure(cmd *cobra.Command) error {
	dbFlag, _ := cmd.Flags().GetString("db")
	verbose, _ := cmd.Flags().GetBool("verbose")

	a.ws = internal.ResolveWorkspace(dbFlag)
	a.logger = internal.NewLogger(cmd.ErrOrStderr(), verbose)
	if verbose {
		a.logger = a.logger.With("run", uuid.NewString())
	}

	cfg, err := internal.LoadConfig(a.ws)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()

	if cmd.Flags().Changed("api-url") {
		cfg.Embedding.URL, _ = cmd.Flags().GetString("api-url")
	}
	if cmd.Flags().Changed("api-key") {
		cfg.Embedding.APIKey, _ = cmd.Flags().GetString("api-key")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Embedding.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	embedder := a.embedder
	if embedder == nil && cfg.Embedding.URL != "" {
		embedder = internal.NewHTTPEmbedder(internal.HTTPEmbedderConfig{
			URL:     cfg.Embedding.URL,
			APIKey:  cfg.Embedding.APIKey,
			Timeout: cfg.Embedding.Timeout,
		}, a.logger)
	}

	a.logger.Debug("configuration resolved",
		"db", a.ws.Root,
		"metric", cfg.Index.Metric,
		"endpoint", cfg.Embedding.URL != "")

	meta := internal.NewFileMetadataStore(a.ws)
	a.uc = internal.NewUseCases(meta, a.indexFor, embedder, a.logger)
	return nil
}

// indexFor opens the SQLite index on first use and reuses it afterwards.
func (a *app) indexFor(ctx context.Context) (internal.VectorIndex, error) {
	if a.index != nil {
		return a.index, nil
	}

	start := time.Now()
	idx, err := internal.OpenSQLiteIndex(ctx, a.ws.IndexPath(), a.cfg.Index.Metric)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("index opened", "path", a.ws.IndexPath(), "elapsed", time.Since(start))

	a.index = idx
	return idx, nil
}

func (a *app) Close() error {
	if a.index == nil {
		return nil
	}
	err := a.index.Close()
	a.index = nil
	return err
}
