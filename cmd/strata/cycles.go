package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/graph"
)

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Show dependency cycles",
	Long: `List strongly connected components of two or more symbols. The
tangle ratio says how self-contained each cycle is: 1.0 means nothing
outside depends on it or feeds it.`,
	Run: runCycles,
}

func init() {
	rootCmd.AddCommand(cyclesCmd)
}

func runCycles(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newCLILogger(cfg)
	db := mustOpenStore(cfg, logger, true)
	defer db.Close() //nolint:errcheck

	engine := graph.NewEngine(db, cfg.Graph, logger)
	cycles, err := engine.FindCycles(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding cycles: %v\n", err)
		os.Exit(1)
	}

	emit(cycles, func() string {
		if len(cycles) == 0 {
			return "No dependency cycles."
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%d cycles:\n", len(cycles))
		for i, c := range cycles {
			fmt.Fprintf(&b, "\nCycle %d: %d symbols, tangle %.2f\n", i+1, len(c.Symbols), c.TangleRatio)
			for _, f := range c.Files {
				fmt.Fprintf(&b, "  %s\n", f)
			}
		}
		return strings.TrimRight(b.String(), "\n")
	})
}
