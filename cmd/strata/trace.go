package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/graph"
)

var traceK int

var traceCmd = &cobra.Command{
	Use:   "trace <from> <to>",
	Short: "Trace dependency paths between two symbols",
	Long: `Find the shortest dependency paths between two symbols. Directed
paths are preferred; when neither symbol reaches the other, the search
falls back to undirected coupling.`,
	Args: cobra.ExactArgs(2),
	Run:  runTrace,
}

func init() {
	traceCmd.Flags().IntVar(&traceK, "k", 3, "Max number of paths")
	rootCmd.AddCommand(traceCmd)
}

func runTrace(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newCLILogger(cfg)
	db := mustOpenStore(cfg, logger, true)
	defer db.Close() //nolint:errcheck

	from, ok := lookupSymbol(db, args[0])
	if !ok {
		return
	}
	to, ok := lookupSymbol(db, args[1])
	if !ok {
		return
	}

	engine := graph.NewEngine(db, cfg.Graph, logger)
	trace, err := engine.Trace(from.ID, to.ID, traceK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error tracing: %v\n", err)
		os.Exit(1)
	}

	emit(trace, func() string {
		if len(trace.Paths) == 0 {
			return fmt.Sprintf("No path between %s and %s", from.QualifiedName, to.QualifiedName)
		}
		var b strings.Builder
		if trace.Directed {
			fmt.Fprintf(&b, "%d directed paths:\n", len(trace.Paths))
		} else {
			fmt.Fprintf(&b, "No directed path; %d undirected couplings:\n", len(trace.Paths))
		}
		for _, p := range trace.Paths {
			names := make([]string, len(p))
			symbols, err := db.SymbolsByIDs(p)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error loading symbols: %v\n", err)
				os.Exit(1)
			}
			for i, id := range p {
				names[i] = symbols[id].QualifiedName
			}
			fmt.Fprintf(&b, "  %s\n", strings.Join(names, " -> "))
		}
		return strings.TrimRight(b.String(), "\n")
	})
}
