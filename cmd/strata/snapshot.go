package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"strata/internal/graph"
	"strata/internal/store"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save a snapshot of the current graph",
	Long: `Capture the current graph shape to .strata/snapshots for later
comparison with strata diff.`,
	Run: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newCLILogger(cfg)
	db := mustOpenStore(cfg, logger, true)
	defer db.Close() //nolint:errcheck

	runID, _, err := db.GetMeta(store.MetaKeyLastRunID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading meta: %v\n", err)
		os.Exit(1)
	}

	engine := graph.NewEngine(db, cfg.Graph, logger)
	snap, err := engine.SnapshotNow(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error capturing snapshot: %v\n", err)
		os.Exit(1)
	}

	path := filepath.Join(cfg.RepoRoot, ".strata", "snapshots", snap.ID+".json.zst")
	if err := snap.Save(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving snapshot: %v\n", err)
		os.Exit(1)
	}

	emit(snap, func() string {
		return fmt.Sprintf("Snapshot %s: %d symbols, %d edges\n  %s",
			snap.ID, len(snap.Nodes), len(snap.Edges), path)
	})
}
