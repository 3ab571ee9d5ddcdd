package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/graph"
)

var diffCmd = &cobra.Command{
	Use:   "diff <before> [after]",
	Short: "Compare graph snapshots",
	Long: `Compare two saved snapshots, or a saved snapshot against the
current graph when only one is given.`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newCLILogger(cfg)
	db := mustOpenStore(cfg, logger, true)
	defer db.Close() //nolint:errcheck

	before, err := graph.LoadSnapshot(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading snapshot: %v\n", err)
		os.Exit(1)
	}

	var after *graph.Snapshot
	if len(args) == 2 {
		after, err = graph.LoadSnapshot(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading snapshot: %v\n", err)
			os.Exit(1)
		}
	} else {
		engine := graph.NewEngine(db, cfg.Graph, logger)
		after, err = engine.SnapshotNow("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error capturing current graph: %v\n", err)
			os.Exit(1)
		}
	}

	d := graph.Diff(before, after)
	emit(d, func() string {
		if d.Empty() {
			return "No changes."
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Symbols: +%d -%d   Edges: +%d -%d\n",
			len(d.AddedNodes), len(d.RemovedNodes), len(d.AddedEdges), len(d.RemovedEdges))
		for _, n := range d.AddedNodes {
			fmt.Fprintf(&b, "  + %s %s (%s)\n", n.Kind, n.QualifiedName, n.FilePath)
		}
		for _, n := range d.RemovedNodes {
			fmt.Fprintf(&b, "  - %s %s (%s)\n", n.Kind, n.QualifiedName, n.FilePath)
		}
		return strings.TrimRight(b.String(), "\n")
	})
}
