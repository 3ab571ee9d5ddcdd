package graph

import "sort"

// Component is a non-trivial strongly connected component: a set of
// symbols that can all reach each other, meaning a dependency cycle.
type Component struct {
	Symbols []string // Symbol IDs, sorted
	Files   []string // Owning files, sorted, deduplicated

	// TangleRatio is internal edges over all edges touching the
	// component. 1.0 means the cycle is self-contained; lower values
	// mean the tangled code is also load-bearing for the rest of the
	// graph.
	TangleRatio float64
}

// Cycles returns the non-trivial strongly connected components,
// largest first, ties broken by the smallest member ID. Single nodes
// without a self-loop are not cycles.
func Cycles(v *View) []Component {
	comp := stronglyConnected(v)

	members := make(map[int][]int)
	for node, c := range comp {
		members[c] = append(members[c], node)
	}

	var out []Component
	for _, nodes := range members {
		if len(nodes) == 1 && !hasSelfLoop(v, nodes[0]) {
			continue
		}
		internal, touching := 0, 0
		inComp := make(map[int]bool, len(nodes))
		for _, n := range nodes {
			inComp[n] = true
		}
		for _, n := range nodes {
			for _, m := range v.Out[n] {
				touching++
				if inComp[m] {
					internal++
				}
			}
			for _, m := range v.In[n] {
				if !inComp[m] {
					touching++
				}
			}
		}
		ratio := 0.0
		if touching > 0 {
			ratio = float64(internal) / float64(touching)
		}

		ids := make([]string, 0, len(nodes))
		fileSet := make(map[string]bool)
		for _, n := range nodes {
			ids = append(ids, v.ID(n))
			fileSet[v.Symbols[n].FilePath] = true
		}
		sort.Strings(ids)
		files := make([]string, 0, len(fileSet))
		for f := range fileSet {
			files = append(files, f)
		}
		sort.Strings(files)

		out = append(out, Component{Symbols: ids, Files: files, TangleRatio: ratio})
	}

	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Symbols) != len(out[j].Symbols) {
			return len(out[i].Symbols) > len(out[j].Symbols)
		}
		return out[i].Symbols[0] < out[j].Symbols[0]
	})
	return out
}

// CycleFiles returns the set of files owning at least one symbol in a
// non-trivial component. The metrics engine consumes this.
func CycleFiles(v *View) map[string]bool {
	files := make(map[string]bool)
	for _, c := range Cycles(v) {
		for _, f := range c.Files {
			files[f] = true
		}
	}
	return files
}

func hasSelfLoop(v *View, n int) bool {
	for _, m := range v.Out[n] {
		if m == n {
			return true
		}
	}
	return false
}

// stronglyConnected assigns each node a component number using an
// iterative Tarjan walk. Recursion would blow the stack on deep call
// chains, so the DFS keeps its own frame stack.
func stronglyConnected(v *View) []int {
	n := v.Len()
	const unvisited = -1

	index := make([]int, n)
	lowlink := make([]int, n)
	comp := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = unvisited
		comp[i] = unvisited
	}

	var stack []int
	next := 0
	nComp := 0

	type frame struct {
		node  int
		child int
	}

	for start := 0; start < n; start++ {
		if index[start] != unvisited {
			continue
		}
		frames := []frame{{node: start}}
		index[start] = next
		lowlink[start] = next
		next++
		stack = append(stack, start)
		onStack[start] = true

		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			if f.child < len(v.Out[f.node]) {
				child := v.Out[f.node][f.child]
				f.child++
				if index[child] == unvisited {
					index[child] = next
					lowlink[child] = next
					next++
					stack = append(stack, child)
					onStack[child] = true
					frames = append(frames, frame{node: child})
				} else if onStack[child] && index[child] < lowlink[f.node] {
					lowlink[f.node] = index[child]
				}
				continue
			}

			if lowlink[f.node] == index[f.node] {
				for {
					top := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[top] = false
					comp[top] = nComp
					if top == f.node {
						break
					}
				}
				nComp++
			}

			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := &frames[len(frames)-1]
				if lowlink[f.node] < lowlink[parent.node] {
					lowlink[parent.node] = lowlink[f.node]
				}
			}
		}
	}
	return comp
}

// cycleRatio is the share of nodes living inside non-trivial
// components. Pagerank adapts its damping to it.
func cycleRatio(v *View) float64 {
	if v.Len() == 0 {
		return 0
	}
	comp := stronglyConnected(v)
	size := make(map[int]int)
	for _, c := range comp {
		size[c]++
	}
	tangled := 0
	for i, c := range comp {
		if size[c] > 1 || hasSelfLoop(v, i) {
			tangled++
		}
	}
	return float64(tangled) / float64(v.Len())
}
