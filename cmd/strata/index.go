package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/indexer"
	"strata/internal/metrics"
)

var indexCmd = &cobra.Command{
	Use:   "index [path...]",
	Short: "Build or update the code graph",
	Long: `Scan the repository, re-extract changed files, resolve references
and commit the result atomically. An unchanged tree writes nothing.
Paths narrow the run to those files or directories.`,
	Args: cobra.ArbitraryArgs,
	Run:  runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newCLILogger(cfg)
	db := mustOpenStore(cfg, logger, false)
	defer db.Close() //nolint:errcheck

	ix := indexer.New(cfg, db, metrics.NullProvider{}, logger)
	report, err := ix.Run(context.Background(), args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error indexing: %v\n", err)
		os.Exit(1)
	}

	emit(report, func() string {
		var b strings.Builder
		if report.FilesIndexed == 0 && report.FilesDeleted == 0 {
			fmt.Fprintf(&b, "Index up to date (%d files, %dms)\n",
				report.FilesScanned, report.Duration.Milliseconds())
			return b.String()
		}
		kind := "full"
		if report.Partial {
			kind = "incremental"
		}
		fmt.Fprintf(&b, "Indexed %d files (%s), deleted %d\n",
			report.FilesIndexed, kind, report.FilesDeleted)
		fmt.Fprintf(&b, "  symbols: %d  edges: %d  unresolved: %d\n",
			report.SymbolsIndexed, report.EdgesIndexed, report.UnresolvedRefs)
		fmt.Fprintf(&b, "  duration: %dms  run: %s\n",
			report.Duration.Milliseconds(), report.RunID)
		if len(report.Diagnostics) > 0 {
			fmt.Fprintf(&b, "\nDiagnostics (%d):\n", len(report.Diagnostics))
			for i, d := range report.Diagnostics {
				if i >= 20 {
					fmt.Fprintf(&b, "  (+%d more)\n", len(report.Diagnostics)-20)
					break
				}
				fmt.Fprintf(&b, "  %s:%d %s %s\n", d.Path, d.Line, d.Code, d.Message)
			}
		}
		return strings.TrimRight(b.String(), "\n")
	})
}
