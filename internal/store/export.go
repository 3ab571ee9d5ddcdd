package store

import (
	"fmt"
	"sort"
)

// GraphExport is the store's read-side view handed to the graph engine:
// the full symbol set plus every resolved edge between symbols.
type GraphExport struct {
	Symbols []Symbol
	Edges   []Edge
}

// ExportGraph materializes the whole-project graph view
func (db *DB) ExportGraph() (*GraphExport, error) {
	symbols, err := db.AllSymbols()
	if err != nil {
		return nil, err
	}
	edges, err := db.ResolvedEdges()
	if err != nil {
		return nil, err
	}
	return &GraphExport{Symbols: symbols, Edges: edges}, nil
}

// ExportNeighborhood materializes the subgraph within hops steps of the
// seed symbols, following edges in both directions. The returned export
// contains only edges whose endpoints both fall inside the neighborhood.
func (db *DB) ExportNeighborhood(seeds []string, hops int) (*GraphExport, error) {
	if hops < 0 {
		hops = 0
	}

	inScope := make(map[string]bool, len(seeds))
	frontier := make([]string, 0, len(seeds))
	for _, id := range seeds {
		if !inScope[id] {
			inScope[id] = true
			frontier = append(frontier, id)
		}
	}

	for step := 0; step < hops && len(frontier) > 0; step++ {
		var next []string
		for _, chunk := range db.chunks(frontier) {
			args := make([]interface{}, 0, len(chunk)*2)
			for _, id := range chunk {
				args = append(args, id)
			}
			for _, id := range chunk {
				args = append(args, id)
			}
			ph := placeholders(len(chunk))
			rows, err := db.Query(`
				SELECT source_symbol_id, target_symbol_id FROM edges
				WHERE target_symbol_id IS NOT NULL AND target_symbol_id != ''
				  AND source_symbol_id IS NOT NULL AND source_symbol_id != ''
				  AND (source_symbol_id IN (`+ph+`) OR target_symbol_id IN (`+ph+`))
			`, args...)
			if err != nil {
				return nil, fmt.Errorf("failed to expand neighborhood: %w", err)
			}
			for rows.Next() {
				var src, dst string
				if err := rows.Scan(&src, &dst); err != nil {
					rows.Close() //nolint:errcheck
					return nil, fmt.Errorf("failed to scan neighborhood edge: %w", err)
				}
				for _, id := range []string{src, dst} {
					if !inScope[id] {
						inScope[id] = true
						next = append(next, id)
					}
				}
			}
			if err := rows.Err(); err != nil {
				rows.Close() //nolint:errcheck
				return nil, err
			}
			rows.Close() //nolint:errcheck
		}
		frontier = next
	}

	ids := make([]string, 0, len(inScope))
	for id := range inScope {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	symbolMap, err := db.SymbolsByIDs(ids)
	if err != nil {
		return nil, err
	}
	symbols := make([]Symbol, 0, len(symbolMap))
	for _, id := range ids {
		if s, ok := symbolMap[id]; ok {
			symbols = append(symbols, s)
		}
	}

	all, err := db.ResolvedEdges()
	if err != nil {
		return nil, err
	}
	var edges []Edge
	for _, e := range all {
		if inScope[e.SourceSymbolID] && inScope[e.TargetSymbolID] {
			edges = append(edges, e)
		}
	}

	return &GraphExport{Symbols: symbols, Edges: edges}, nil
}
