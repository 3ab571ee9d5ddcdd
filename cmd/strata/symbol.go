package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/store"
)

var symbolLimit int

var symbolCmd = &cobra.Command{
	Use:   "symbol <name>",
	Short: "Look up a symbol by name",
	Long: `Look up symbols by exact name or qualified name, with a substring
search fallback. Multiple matches are listed, never guessed between.`,
	Args: cobra.ExactArgs(1),
	Run:  runSymbol,
}

func init() {
	symbolCmd.Flags().IntVar(&symbolLimit, "limit", 20, "Max search results")
	rootCmd.AddCommand(symbolCmd)
}

// SymbolResponse is the symbol command's output shape
type SymbolResponse struct {
	Query   string              `json:"query"`
	Exact   bool                `json:"exact"`
	Matches []SymbolWithMetrics `json:"matches"`
}

// SymbolWithMetrics pairs a symbol with its computed metrics
type SymbolWithMetrics struct {
	Symbol  store.Symbol                 `json:"symbol"`
	Metrics map[store.MetricKind]float64 `json:"metrics,omitempty"`
}

func runSymbol(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newCLILogger(cfg)
	db := mustOpenStore(cfg, logger, true)
	defer db.Close() //nolint:errcheck

	resp := &SymbolResponse{Query: args[0], Exact: true}
	matches, err := db.FindSymbolsByName(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error looking up symbol: %v\n", err)
		os.Exit(1)
	}
	if len(matches) == 0 {
		resp.Exact = false
		matches, err = db.SearchSymbols(args[0], symbolLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error searching symbols: %v\n", err)
			os.Exit(1)
		}
	}

	for _, s := range matches {
		m, err := db.MetricsForOwner(store.OwnerSymbol, s.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading metrics: %v\n", err)
			os.Exit(1)
		}
		resp.Matches = append(resp.Matches, SymbolWithMetrics{Symbol: s, Metrics: m})
	}

	emit(resp, func() string {
		if len(resp.Matches) == 0 {
			return fmt.Sprintf("No symbol named %q", resp.Query)
		}
		var b strings.Builder
		if !resp.Exact {
			fmt.Fprintf(&b, "No exact match, %d search results:\n\n", len(resp.Matches))
		} else if len(resp.Matches) > 1 {
			fmt.Fprintf(&b, "%d symbols named %q:\n\n", len(resp.Matches), resp.Query)
		}
		rows := make([][]string, 0, len(resp.Matches))
		for _, m := range resp.Matches {
			s := m.Symbol
			rows = append(rows, []string{
				shortID(s.ID),
				s.Kind,
				s.QualifiedName,
				fmt.Sprintf("%s:%d", s.FilePath, s.LineStart),
				fmt.Sprintf("cx=%.0f in=%.0f out=%.0f",
					m.Metrics[store.MetricComplexity],
					m.Metrics[store.MetricInDegree],
					m.Metrics[store.MetricOutDegree]),
			})
		}
		b.WriteString(formatTable([]string{"ID", "Kind", "Name", "Location", "Metrics"}, rows))
		return strings.TrimRight(b.String(), "\n")
	})
}
