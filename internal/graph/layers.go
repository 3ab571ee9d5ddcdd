package graph

import "sort"

// Violation is an edge pointing against the layering: its source sits
// in a deeper layer than its target, meaning a lower-level piece
// reaches back up. Every cycle produces at least one.
type Violation struct {
	Source      string
	Target      string
	SourceLayer int
	TargetLayer int
}

// Layering assigns every symbol a layer and lists the edges that break
// it. The per-node flat mapping is the contract; callers that want
// grouped layers build them from it.
type Layering struct {
	Layers     map[string]int
	Depth      int // Highest layer number plus one; 0 for an empty view
	Violations []Violation
}

// Layers assigns each symbol the length of the longest dependency path
// leading to it from a root, where roots are nodes nothing depends on.
// Nodes are peeled in topological order; when a cycle blocks the peel,
// the member with the fewest unresolved dependencies goes first (ties
// by ID order), so the same graph always layers identically. The edges
// that closed the cycle then point from a deeper layer to a shallower
// one and are reported as violations.
func Layers(v *View) *Layering {
	n := v.Len()
	result := &Layering{Layers: make(map[string]int, n)}
	if n == 0 {
		return result
	}

	inDeg := make([]int, n)
	for i := range v.In {
		inDeg[i] = len(v.In[i])
	}
	layer := make([]int, n)
	peeled := make([]bool, n)

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if inDeg[i] == 0 {
			queue = append(queue, i)
		}
	}

	for remaining := n; remaining > 0; {
		if len(queue) == 0 {
			// Cycle: force the least-depended-on member through.
			pick := -1
			for i := 0; i < n; i++ {
				if !peeled[i] && (pick < 0 || inDeg[i] < inDeg[pick]) {
					pick = i
				}
			}
			queue = append(queue, pick)
		}
		node := queue[0]
		queue = queue[1:]
		if peeled[node] {
			continue
		}
		peeled[node] = true
		remaining--

		for _, p := range v.In[node] {
			if peeled[p] && layer[p]+1 > layer[node] {
				layer[node] = layer[p] + 1
			}
		}
		for _, next := range v.Out[node] {
			if peeled[next] {
				continue
			}
			inDeg[next]--
			if inDeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	for i := 0; i < n; i++ {
		result.Layers[v.ID(i)] = layer[i]
		if layer[i]+1 > result.Depth {
			result.Depth = layer[i] + 1
		}
	}

	for i := range v.Out {
		for _, j := range v.Out[i] {
			if layer[i] > layer[j] {
				result.Violations = append(result.Violations, Violation{
					Source:      v.ID(i),
					Target:      v.ID(j),
					SourceLayer: layer[i],
					TargetLayer: layer[j],
				})
			}
		}
	}
	sort.Slice(result.Violations, func(a, b int) bool {
		if result.Violations[a].Source != result.Violations[b].Source {
			return result.Violations[a].Source < result.Violations[b].Source
		}
		return result.Violations[a].Target < result.Violations[b].Target
	})
	return result
}
