package graph

import "sort"

// Trace is the result of a path query between two symbols. When no
// directed path exists the search falls back to the undirected
// projection, which still tells the caller the two symbols are coupled
// even if neither reaches the other.
type Trace struct {
	Paths    [][]string // Symbol ID sequences, shortest first
	Directed bool       // False when only the undirected fallback connected them
}

// TracePaths finds up to k shortest simple paths between two symbols,
// each at most maxLen edges long. Directed paths are preferred; only
// when none exists is the undirected projection searched.
func TracePaths(v *View, from, to string, k, maxLen int) *Trace {
	if k <= 0 {
		k = 1
	}
	if maxLen <= 0 {
		maxLen = 12
	}
	src, okS := v.IndexOf(from)
	dst, okD := v.IndexOf(to)
	if !okS || !okD {
		return &Trace{Directed: true}
	}

	paths := kShortest(v.Out, src, dst, k, maxLen)
	directed := true
	if len(paths) == 0 {
		paths = kShortest(v.Undirected(), src, dst, k, maxLen)
		directed = false
	}

	out := &Trace{Directed: directed}
	for _, p := range paths {
		ids := make([]string, len(p))
		for i, n := range p {
			ids[i] = v.ID(n)
		}
		out.Paths = append(out.Paths, ids)
	}
	return out
}

// kShortest is Yen's algorithm over unweighted BFS shortest paths.
// Candidate ties are broken lexicographically by node sequence, so the
// result is stable.
func kShortest(adj [][]int, src, dst, k, maxLen int) [][]int {
	first := bfsPath(adj, src, dst, nil, nil, maxLen)
	if first == nil {
		return nil
	}
	found := [][]int{first}
	var candidates [][]int

	for len(found) < k {
		prev := found[len(found)-1]
		for i := 0; i < len(prev)-1; i++ {
			spurNode := prev[i]
			rootPath := prev[:i+1]

			// Edges leaving any known path along the same root are
			// banned, so the spur produces a genuinely new path.
			banned := make(map[[2]int]bool)
			for _, p := range found {
				if len(p) > i && samePrefix(p, rootPath) {
					banned[[2]int{p[i], p[i+1]}] = true
				}
			}
			blockedNodes := make(map[int]bool)
			for _, n := range rootPath[:i] {
				blockedNodes[n] = true
			}

			spur := bfsPath(adj, spurNode, dst, banned, blockedNodes, maxLen-i)
			if spur == nil {
				continue
			}
			candidate := append(append([]int{}, rootPath[:i]...), spur...)
			if !containsPath(found, candidate) && !containsPath(candidates, candidate) {
				candidates = append(candidates, candidate)
			}
		}
		if len(candidates) == 0 {
			break
		}
		sort.Slice(candidates, func(a, b int) bool {
			if len(candidates[a]) != len(candidates[b]) {
				return len(candidates[a]) < len(candidates[b])
			}
			return lessPath(candidates[a], candidates[b])
		})
		found = append(found, candidates[0])
		candidates = candidates[1:]
	}
	return found
}

// bfsPath finds one shortest path avoiding banned edges and blocked
// nodes, nil when none exists within maxLen edges.
func bfsPath(adj [][]int, src, dst int, banned map[[2]int]bool, blocked map[int]bool, maxLen int) []int {
	if blocked[src] {
		return nil
	}
	if src == dst {
		return []int{src}
	}
	parent := make(map[int]int)
	depth := map[int]int{src: 0}
	queue := []int{src}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if depth[n] >= maxLen {
			continue
		}
		for _, m := range adj[n] {
			if blocked[m] || banned[[2]int{n, m}] {
				continue
			}
			if _, seen := depth[m]; seen {
				continue
			}
			depth[m] = depth[n] + 1
			parent[m] = n
			if m == dst {
				path := []int{dst}
				for at := dst; at != src; at = parent[at] {
					path = append(path, parent[at])
				}
				reverse(path)
				return path
			}
			queue = append(queue, m)
		}
	}
	return nil
}

func samePrefix(p, prefix []int) bool {
	if len(p) < len(prefix) {
		return false
	}
	for i, n := range prefix {
		if p[i] != n {
			return false
		}
	}
	return true
}

func containsPath(paths [][]int, p []int) bool {
	for _, q := range paths {
		if len(q) == len(p) && samePrefix(q, p) {
			return true
		}
	}
	return false
}

func lessPath(a, b []int) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func reverse(p []int) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}
