package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/store"
)

var metricTop int

var metricCmd = &cobra.Command{
	Use:   "metric <kind>",
	Short: "Show top files or symbols by a metric",
	Long: `Rank owners by a stored metric. Kinds include complexity, churn,
hotspot, health, debt, pagerank, in_degree, out_degree.`,
	Args: cobra.ExactArgs(1),
	Run:  runMetric,
}

func init() {
	metricCmd.Flags().IntVar(&metricTop, "top", 20, "Number of entries to show")
	rootCmd.AddCommand(metricCmd)
}

func runMetric(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newCLILogger(cfg)
	db := mustOpenStore(cfg, logger, true)
	defer db.Close() //nolint:errcheck

	kind := store.MetricKind(args[0])
	top, err := db.TopByMetric(kind, metricTop)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading metrics: %v\n", err)
		os.Exit(1)
	}

	emit(top, func() string {
		if len(top) == 0 {
			return fmt.Sprintf("No %q metrics computed yet. Run `strata index`.", kind)
		}
		var ids []string
		for _, m := range top {
			if m.Owner == store.OwnerSymbol {
				ids = append(ids, m.OwnerID)
			}
		}
		names, err := db.SymbolsByIDs(ids)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading symbols: %v\n", err)
			os.Exit(1)
		}

		rows := make([][]string, 0, len(top))
		for i, m := range top {
			owner := m.OwnerID
			if s, ok := names[m.OwnerID]; ok {
				owner = fmt.Sprintf("%s (%s:%d)", s.QualifiedName, s.FilePath, s.LineStart)
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d.", i+1),
				fmt.Sprintf("%.3f", m.Value),
				string(m.Owner),
				owner,
			})
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Top %s:\n\n", kind)
		b.WriteString(formatTable([]string{"#", "Value", "Owner", "Name"}, rows))
		return strings.TrimRight(b.String(), "\n")
	})
}
