package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"strata/internal/config"
	"strata/internal/logging"
	"strata/internal/store"
	"strata/internal/version"
)

var (
	repoFlag   string
	formatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Strata - incremental code graph indexer",
	Long: `Strata builds and incrementally maintains a cross-language code graph:
symbols, references, REST/template/config bridges, and the structural
metrics (pagerank, cycles, clusters, layers, health) derived from it.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("strata version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", ".", "Repository root")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "human", "Output format (json, human)")
}

// mustLoadConfig loads configuration for the --repo root
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(repoFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newCLILogger(cfg *config.Config) *logging.Logger {
	format := logging.Format(cfg.Logging.Format)
	if formatFlag == "json" {
		format = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: format,
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})
}

// mustOpenStore opens the graph database. Query commands require an
// existing index; only `strata index` creates one.
func mustOpenStore(cfg *config.Config, logger *logging.Logger, requireIndex bool) *store.DB {
	if requireIndex {
		if _, err := os.Stat(cfg.DBPath()); err != nil {
			fmt.Fprintf(os.Stderr, "No index found at %s. Run `strata index` first.\n", cfg.DBPath())
			os.Exit(1)
		}
	}
	if err := cfg.EnsureStateDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating state directory: %v\n", err)
		os.Exit(1)
	}
	db, err := store.Open(cfg.DBPath(), store.Options{
		ChunkSize:     cfg.Store.ChunkSize,
		CommitRetries: cfg.Store.CommitRetries,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	return db
}
