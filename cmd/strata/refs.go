package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"strata/internal/store"
)

var refsCmd = &cobra.Command{
	Use:   "refs <symbol>",
	Short: "Show edges in and out of a symbol",
	Long: `Show every edge touching a symbol, with kind, origin, confidence
and the file whose indexing produced it. The symbol may be given by ID
or by name; an ambiguous name lists the candidates instead.`,
	Args: cobra.ExactArgs(1),
	Run:  runRefs,
}

func init() {
	rootCmd.AddCommand(refsCmd)
}

// RefsResponse is the refs command's output shape
type RefsResponse struct {
	Symbol   store.Symbol      `json:"symbol"`
	Incoming []store.Edge      `json:"incoming"`
	Outgoing []store.Edge      `json:"outgoing"`
	Names    map[string]string `json:"-"`
}

func runRefs(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newCLILogger(cfg)
	db := mustOpenStore(cfg, logger, true)
	defer db.Close() //nolint:errcheck

	sym, ok := lookupSymbol(db, args[0])
	if !ok {
		return
	}

	incoming, err := db.EdgesForSymbol(sym.ID, store.DirIn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading edges: %v\n", err)
		os.Exit(1)
	}
	outgoing, err := db.EdgesForSymbol(sym.ID, store.DirOut)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading edges: %v\n", err)
		os.Exit(1)
	}

	resp := &RefsResponse{Symbol: *sym, Incoming: incoming, Outgoing: outgoing}
	resp.Names = edgeEndpointNames(db, append(incoming, outgoing...))

	emit(resp, func() string {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s (%s:%d)\n", sym.Kind, sym.QualifiedName, sym.FilePath, sym.LineStart)
		fmt.Fprintf(&b, "\nIncoming (%d):\n", len(resp.Incoming))
		b.WriteString(renderEdges(resp.Incoming, resp.Names, true))
		fmt.Fprintf(&b, "\nOutgoing (%d):\n", len(resp.Outgoing))
		b.WriteString(renderEdges(resp.Outgoing, resp.Names, false))
		return strings.TrimRight(b.String(), "\n")
	})
}

// lookupSymbol finds a symbol by ID or name. Ambiguity and absence are
// reported as normal output, not errors.
func lookupSymbol(db *store.DB, arg string) (*store.Symbol, bool) {
	sym, err := db.GetSymbol(arg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error looking up symbol: %v\n", err)
		os.Exit(1)
	}
	if sym != nil {
		return sym, true
	}

	matches, err := db.FindSymbolsByName(arg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error looking up symbol: %v\n", err)
		os.Exit(1)
	}
	switch len(matches) {
	case 0:
		fmt.Printf("No symbol named %q\n", arg)
		return nil, false
	case 1:
		return &matches[0], true
	default:
		fmt.Printf("%q is ambiguous (%d candidates):\n", arg, len(matches))
		for _, m := range matches {
			fmt.Printf("  %s  %s  %s:%d\n", m.ID, m.QualifiedName, m.FilePath, m.LineStart)
		}
		return nil, false
	}
}

func edgeEndpointNames(db *store.DB, edges []store.Edge) map[string]string {
	ids := make([]string, 0, len(edges)*2)
	for _, e := range edges {
		if e.SourceSymbolID != "" {
			ids = append(ids, e.SourceSymbolID)
		}
		if e.TargetSymbolID != "" {
			ids = append(ids, e.TargetSymbolID)
		}
	}
	names := make(map[string]string, len(ids))
	symbols, err := db.SymbolsByIDs(ids)
	if err != nil {
		return names
	}
	for id, s := range symbols {
		names[id] = s.QualifiedName
	}
	return names
}

func renderEdges(edges []store.Edge, names map[string]string, incoming bool) string {
	if len(edges) == 0 {
		return "  (none)\n"
	}
	rows := make([][]string, 0, len(edges))
	for _, e := range edges {
		other := e.TargetSymbolID
		if incoming {
			other = e.SourceSymbolID
		}
		name := names[other]
		if name == "" {
			name = e.SourceFile
		}
		rows = append(rows, []string{
			"  " + string(e.Kind),
			name,
			string(e.Origin),
			fmt.Sprintf("%.2f", e.Confidence),
			fmt.Sprintf("%s:%d", e.Provenance, e.Line),
		})
	}
	return formatTable([]string{"  Kind", "Symbol", "Origin", "Conf", "From"}, rows)
}
