package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/graph"
)

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "Show detected module clusters",
	Run:   runClusters,
}

func init() {
	rootCmd.AddCommand(clustersCmd)
}

// ClustersResponse is the clusters command's output shape
type ClustersResponse struct {
	Approximate bool            `json:"approximate"`
	Clusters    []graph.Cluster `json:"clusters"`
}

func runClusters(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newCLILogger(cfg)
	db := mustOpenStore(cfg, logger, true)
	defer db.Close() //nolint:errcheck

	engine := graph.NewEngine(db, cfg.Graph, logger)
	clusters, approximate, err := engine.FindClusters(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error clustering: %v\n", err)
		os.Exit(1)
	}

	resp := &ClustersResponse{Approximate: approximate, Clusters: clusters}
	emit(resp, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "%d clusters", len(clusters))
		if approximate {
			b.WriteString(" (approximate: graph was sampled)")
		}
		b.WriteString("\n")
		for _, c := range clusters {
			fmt.Fprintf(&b, "\n%s (%d symbols, %d files)\n", c.Label, len(c.Symbols), len(c.Files))
			for i, f := range c.Files {
				if i >= 8 {
					fmt.Fprintf(&b, "  (+%d more files)\n", len(c.Files)-8)
					break
				}
				fmt.Fprintf(&b, "  %s\n", f)
			}
		}
		return strings.TrimRight(b.String(), "\n")
	})
}
