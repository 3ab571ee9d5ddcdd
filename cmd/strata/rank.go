package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/graph"
	"strata/internal/store"
)

var (
	rankTop    int
	rankAround string
	rankHops   int
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Show the most central symbols by pagerank",
	Run:   runRank,
}

func init() {
	rankCmd.Flags().IntVar(&rankTop, "top", 20, "Number of symbols to show")
	rankCmd.Flags().StringVar(&rankAround, "around", "", "Rank only the neighborhood of this symbol")
	rankCmd.Flags().IntVar(&rankHops, "hops", 2, "Neighborhood radius for --around")
	rootCmd.AddCommand(rankCmd)
}

// RankResponse is the rank command's output shape
type RankResponse struct {
	Damping     float64     `json:"damping"`
	Approximate bool        `json:"approximate"`
	Top         []RankEntry `json:"top"`
}

// RankEntry is one ranked symbol
type RankEntry struct {
	Symbol store.Symbol `json:"symbol"`
	Score  float64      `json:"score"`
}

func runRank(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newCLILogger(cfg)
	db := mustOpenStore(cfg, logger, true)
	defer db.Close() //nolint:errcheck

	var scope *graph.Scope
	if rankAround != "" {
		seed, ok := lookupSymbol(db, rankAround)
		if !ok {
			return
		}
		scope = &graph.Scope{Seeds: []string{seed.ID}, Hops: rankHops}
	}

	engine := graph.NewEngine(db, cfg.Graph, logger)
	result, err := engine.Rank(scope)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error ranking: %v\n", err)
		os.Exit(1)
	}

	top := result.Top(rankTop)
	symbols, err := db.SymbolsByIDs(top)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading symbols: %v\n", err)
		os.Exit(1)
	}

	resp := &RankResponse{Damping: result.Damping, Approximate: result.Approximate}
	for _, id := range top {
		resp.Top = append(resp.Top, RankEntry{Symbol: symbols[id], Score: result.Scores[id]})
	}

	emit(resp, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "Pagerank (damping %.3f)\n\n", resp.Damping)
		rows := make([][]string, 0, len(resp.Top))
		for i, e := range resp.Top {
			rows = append(rows, []string{
				fmt.Sprintf("%d.", i+1),
				fmt.Sprintf("%.5f", e.Score),
				e.Symbol.Kind,
				e.Symbol.QualifiedName,
				fmt.Sprintf("%s:%d", e.Symbol.FilePath, e.Symbol.LineStart),
			})
		}
		b.WriteString(formatTable([]string{"#", "Score", "Kind", "Name", "Location"}, rows))
		return strings.TrimRight(b.String(), "\n")
	})
}
