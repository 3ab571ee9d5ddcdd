// Package graph materializes an in-memory view of the stored code
// graph and runs the algorithm suite over it: pagerank, cycle
// detection, clustering, layering, path tracing and snapshot diffs.
// Views are ephemeral; the store stays the single source of truth.
package graph

import (
	"sort"

	"strata/internal/store"
)

// View is an algorithm-scoped materialization: nodes are symbols,
// adjacency is index-based for tight loops. Node order is sorted by
// symbol ID, so identical stores produce identical views.
type View struct {
	Symbols []store.Symbol
	index   map[string]int
	Out     [][]int
	In      [][]int
	Edges   int

	// Approximate marks a view reduced by the size guard; results
	// computed from it inherit the flag.
	Approximate bool
}

// NewView builds a view from a store export. Edges with endpoints
// outside the export are dropped; self-loops are kept.
func NewView(export *store.GraphExport) *View {
	symbols := make([]store.Symbol, len(export.Symbols))
	copy(symbols, export.Symbols)
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].ID < symbols[j].ID })

	v := &View{
		Symbols: symbols,
		index:   make(map[string]int, len(symbols)),
		Out:     make([][]int, len(symbols)),
		In:      make([][]int, len(symbols)),
	}
	for i, s := range symbols {
		v.index[s.ID] = i
	}

	type pair struct{ src, dst int }
	seen := make(map[pair]bool)
	for _, e := range export.Edges {
		src, okS := v.index[e.SourceSymbolID]
		dst, okD := v.index[e.TargetSymbolID]
		if !okS || !okD {
			continue
		}
		p := pair{src, dst}
		if seen[p] {
			continue
		}
		seen[p] = true
		v.Out[src] = append(v.Out[src], dst)
		v.In[dst] = append(v.In[dst], src)
		v.Edges++
	}
	for i := range v.Out {
		sort.Ints(v.Out[i])
		sort.Ints(v.In[i])
	}
	return v
}

// Len returns the node count
func (v *View) Len() int {
	return len(v.Symbols)
}

// IndexOf returns a node's index by symbol ID
func (v *View) IndexOf(id string) (int, bool) {
	i, ok := v.index[id]
	return i, ok
}

// ID returns a node's symbol ID by index
func (v *View) ID(i int) string {
	return v.Symbols[i].ID
}

// Undirected returns the undirected adjacency (union of In and Out,
// deduplicated), used by clustering.
func (v *View) Undirected() [][]int {
	adj := make([][]int, v.Len())
	for i := range adj {
		merged := make(map[int]bool, len(v.Out[i])+len(v.In[i]))
		for _, j := range v.Out[i] {
			merged[j] = true
		}
		for _, j := range v.In[i] {
			merged[j] = true
		}
		delete(merged, i)
		neighbors := make([]int, 0, len(merged))
		for j := range merged {
			neighbors = append(neighbors, j)
		}
		sort.Ints(neighbors)
		adj[i] = neighbors
	}
	return adj
}

// Sample reduces the view to at most n nodes, keeping the subgraph
// they induce. Selection is an even stride over the sorted node order,
// so the same view always samples identically. The result is marked
// approximate.
func (v *View) Sample(n int) *View {
	if v.Len() <= n || n <= 0 {
		return v
	}

	stride := float64(v.Len()) / float64(n)
	keep := make(map[string]bool, n)
	kept := make([]store.Symbol, 0, n)
	for i := 0; i < n; i++ {
		s := v.Symbols[int(float64(i)*stride)]
		if !keep[s.ID] {
			keep[s.ID] = true
			kept = append(kept, s)
		}
	}

	var edges []store.Edge
	for i := range v.Symbols {
		if !keep[v.ID(i)] {
			continue
		}
		for _, j := range v.Out[i] {
			if keep[v.ID(j)] {
				edges = append(edges, store.Edge{SourceSymbolID: v.ID(i), TargetSymbolID: v.ID(j)})
			}
		}
	}

	sampled := NewView(&store.GraphExport{Symbols: kept, Edges: edges})
	sampled.Approximate = true
	return sampled
}
