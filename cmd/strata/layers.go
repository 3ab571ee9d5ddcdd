package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/graph"
	"strata/internal/store"
)

var layersCmd = &cobra.Command{
	Use:   "layers",
	Short: "Show dependency layers and violations",
	Long: `Assign each symbol a layer (longest dependency path from a root)
and list the edges that point from a deeper layer back to a shallower
one.`,
	Run: runLayers,
}

func init() {
	rootCmd.AddCommand(layersCmd)
}

func runLayers(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newCLILogger(cfg)
	db := mustOpenStore(cfg, logger, true)
	defer db.Close() //nolint:errcheck

	engine := graph.NewEngine(db, cfg.Graph, logger)
	layering, err := engine.ComputeLayers(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error layering: %v\n", err)
		os.Exit(1)
	}

	emit(layering, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "%d layers over %d symbols\n", layering.Depth, len(layering.Layers))

		counts := make([]int, layering.Depth)
		for _, l := range layering.Layers {
			counts[l]++
		}
		for i, n := range counts {
			fmt.Fprintf(&b, "  layer %d: %d symbols\n", i, n)
		}

		fmt.Fprintf(&b, "\nViolations (%d):\n", len(layering.Violations))
		if len(layering.Violations) == 0 {
			b.WriteString("  (none, clean layering)")
			return b.String()
		}
		names := violationNames(db, layering.Violations)
		for i, v := range layering.Violations {
			if i >= 30 {
				fmt.Fprintf(&b, "  (+%d more)\n", len(layering.Violations)-30)
				break
			}
			fmt.Fprintf(&b, "  %s (L%d) -> %s (L%d)\n",
				names[v.Source], v.SourceLayer, names[v.Target], v.TargetLayer)
		}
		return strings.TrimRight(b.String(), "\n")
	})
}

func violationNames(db *store.DB, violations []graph.Violation) map[string]string {
	idSet := make(map[string]bool, len(violations)*2)
	for _, v := range violations {
		idSet[v.Source] = true
		idSet[v.Target] = true
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	names := make(map[string]string, len(ids))
	for _, id := range ids {
		names[id] = shortID(id)
	}
	symbols, err := db.SymbolsByIDs(ids)
	if err != nil {
		return names
	}
	for id, s := range symbols {
		names[id] = s.QualifiedName
	}
	return names
}
