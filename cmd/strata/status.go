package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"strata/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Long:  "Display index size, freshness and unresolved-reference counts",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// StatusResponse is the status command's output shape
type StatusResponse struct {
	DBPath     string `json:"dbPath"`
	IndexState string `json:"indexState"`
	LastRunID  string `json:"lastRunId,omitempty"`
	LastIndex  string `json:"lastIndex,omitempty"`
	Files      int    `json:"files"`
	Symbols    int    `json:"symbols"`
	Edges      int    `json:"edges"`
	Unresolved int    `json:"unresolved"`
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newCLILogger(cfg)
	db := mustOpenStore(cfg, logger, true)
	defer db.Close() //nolint:errcheck

	resp := &StatusResponse{
		DBPath:  db.Path(),
		Files:   db.FileCount(),
		Symbols: db.SymbolCount(),
		Edges:   db.EdgeCount(),
	}
	resp.Unresolved = db.UnresolvedCount()
	if state, ok, _ := db.GetMeta(store.MetaKeyIndexState); ok {
		resp.IndexState = state
	}
	if runID, ok, _ := db.GetMeta(store.MetaKeyLastRunID); ok {
		resp.LastRunID = runID
	}
	for _, key := range []string{store.MetaKeyLastPartial, store.MetaKeyLastFull} {
		if ts, ok, _ := db.GetMeta(key); ok {
			if unix, err := strconv.ParseInt(ts, 10, 64); err == nil {
				resp.LastIndex = time.Unix(unix, 0).UTC().Format(time.RFC3339)
				break
			}
		}
	}

	emit(resp, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "Index: %s\n", resp.DBPath)
		fmt.Fprintf(&b, "  state: %s  last run: %s\n", resp.IndexState, resp.LastRunID)
		if resp.LastIndex != "" {
			fmt.Fprintf(&b, "  indexed at: %s\n", resp.LastIndex)
		}
		fmt.Fprintf(&b, "  files: %d  symbols: %d  edges: %d  unresolved: %d",
			resp.Files, resp.Symbols, resp.Edges, resp.Unresolved)
		return b.String()
	})
}
