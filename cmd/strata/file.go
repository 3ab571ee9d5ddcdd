package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/store"
)

var fileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Show a file's record and symbol skeleton",
	Args:  cobra.ExactArgs(1),
	Run:   runFile,
}

func init() {
	rootCmd.AddCommand(fileCmd)
}

// FileResponse is the file command's output shape
type FileResponse struct {
	File    store.File                   `json:"file"`
	Symbols []store.Symbol               `json:"symbols"`
	Metrics map[store.MetricKind]float64 `json:"metrics,omitempty"`
}

func runFile(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newCLILogger(cfg)
	db := mustOpenStore(cfg, logger, true)
	defer db.Close() //nolint:errcheck

	f, err := db.GetFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading file: %v\n", err)
		os.Exit(1)
	}
	if f == nil {
		fmt.Printf("File %q is not in the index\n", args[0])
		return
	}

	symbols, err := db.SymbolsForFile(f.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading symbols: %v\n", err)
		os.Exit(1)
	}
	fileMetrics, err := db.MetricsForOwner(store.OwnerFile, f.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading metrics: %v\n", err)
		os.Exit(1)
	}

	resp := &FileResponse{File: *f, Symbols: symbols, Metrics: fileMetrics}
	emit(resp, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "%s (%s, %s, %d lines)\n", f.Path, f.Language, f.Role, f.LineCount)
		if len(fileMetrics) > 0 {
			fmt.Fprintf(&b, "  churn=%.0f hotspot=%.1f health=%.2f debt=%.2f\n",
				fileMetrics[store.MetricChurn],
				fileMetrics[store.MetricHotspot],
				fileMetrics[store.MetricHealth],
				fileMetrics[store.MetricDebt])
		}
		b.WriteString("\n")
		rows := make([][]string, 0, len(symbols))
		for _, s := range symbols {
			rows = append(rows, []string{
				fmt.Sprintf("%d-%d", s.LineStart, s.LineEnd),
				s.Kind,
				s.Visibility,
				s.QualifiedName,
				truncate(s.Signature, 60),
			})
		}
		b.WriteString(formatTable([]string{"Lines", "Kind", "Vis", "Name", "Signature"}, rows))
		return strings.TrimRight(b.String(), "\n")
	})
}
