package graph

import (
	"fmt"
	"path"
	"sort"
)

// Cluster is a detected community of symbols, labeled after the
// directory most of its members live in.
type Cluster struct {
	ID      int
	Label   string
	Symbols []string // Symbol IDs, sorted
	Files   []string // Owning files, sorted, deduplicated
}

// Clusters partitions the undirected projection of the view with
// Louvain modularity optimization. Node order is fixed by the view, so
// the partition is deterministic for a given graph.
func Clusters(v *View) []Cluster {
	adj := v.Undirected()

	// Weighted graph for the aggregation levels. Level zero has unit
	// weights.
	weights := make([]map[int]float64, len(adj))
	for i, ns := range adj {
		weights[i] = make(map[int]float64, len(ns))
		for _, j := range ns {
			weights[i][j] = 1
		}
	}

	// membership[i] is node i's community in the original view.
	membership := make([]int, v.Len())
	for i := range membership {
		membership[i] = i
	}

	for {
		comm, improved := louvainPass(weights)
		if !improved {
			break
		}
		relabel := compactCommunities(comm)
		for i := range membership {
			membership[i] = relabel[comm[membership[i]]]
		}
		weights = aggregate(weights, comm, relabel)
		if len(weights) == len(comm) {
			break
		}
	}

	relabel := compactCommunities(membership)
	groups := make(map[int][]int)
	for i, c := range membership {
		groups[relabel[c]] = append(groups[relabel[c]], i)
	}

	out := make([]Cluster, 0, len(groups))
	for id, nodes := range groups {
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

		c := Cluster{ID: id, Symbols: ids, Files: files}
		c.Label = clusterLabel(v, nodes, id)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].Symbols) != len(out[j].Symbols) {
			return len(out[i].Symbols) > len(out[j].Symbols)
		}
		return out[i].Symbols[0] < out[j].Symbols[0]
	})
	for i := range out {
		out[i].ID = i
		if out[i].Label == "" {
			out[i].Label = fmt.Sprintf("cluster-%d", i)
		}
	}
	return out
}

// louvainPass runs one level of local moves: each node greedily joins
// the neighboring community with the best modularity gain until a full
// sweep changes nothing. Nodes are visited in index order.
func louvainPass(weights []map[int]float64) ([]int, bool) {
	n := len(weights)
	comm := make([]int, n)
	degree := make([]float64, n)
	commDegree := make([]float64, n)
	var total float64
	for i, ns := range weights {
		comm[i] = i
		for _, w := range ns {
			degree[i] += w
		}
		commDegree[i] = degree[i]
		total += degree[i]
	}
	if total == 0 {
		return comm, false
	}

	improvedEver := false
	for {
		improved := false
		for i := 0; i < n; i++ {
			// Weight from i into each neighboring community.
			toComm := make(map[int]float64)
			for j, w := range weights[i] {
				if j != i {
					toComm[comm[j]] += w
				}
			}

			current := comm[i]
			commDegree[current] -= degree[i]

			best := current
			bestGain := toComm[current] - commDegree[current]*degree[i]/total
			candidates := make([]int, 0, len(toComm))
			for c := range toComm {
				candidates = append(candidates, c)
			}
			sort.Ints(candidates)
			for _, c := range candidates {
				gain := toComm[c] - commDegree[c]*degree[i]/total
				if gain > bestGain {
					bestGain = gain
					best = c
				}
			}

			commDegree[best] += degree[i]
			if best != current {
				comm[i] = best
				improved = true
				improvedEver = true
			}
		}
		if !improved {
			break
		}
	}
	return comm, improvedEver
}

// compactCommunities maps sparse community labels to 0..k-1, in label
// order.
func compactCommunities(comm []int) map[int]int {
	labels := make([]int, 0)
	seen := make(map[int]bool)
	for _, c := range comm {
		if !seen[c] {
			seen[c] = true
			labels = append(labels, c)
		}
	}
	sort.Ints(labels)
	relabel := make(map[int]int, len(labels))
	for i, c := range labels {
		relabel[c] = i
	}
	return relabel
}

// aggregate collapses each community into one super-node, summing edge
// weights between communities.
func aggregate(weights []map[int]float64, comm []int, relabel map[int]int) []map[int]float64 {
	k := len(relabel)
	next := make([]map[int]float64, k)
	for i := range next {
		next[i] = make(map[int]float64)
	}
	for i, ns := range weights {
		ci := relabel[comm[i]]
		for j, w := range ns {
			next[ci][relabel[comm[j]]] += w
		}
	}
	return next
}

// clusterLabel names a cluster after the directory the plurality of
// its members live in; the short label is the last path component.
func clusterLabel(v *View, nodes []int, id int) string {
	counts := make(map[string]int)
	for _, n := range nodes {
		counts[path.Dir(v.Symbols[n].FilePath)]++
	}
	bestDir, bestCount := "", 0
	dirs := make([]string, 0, len(counts))
	for d := range counts {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	for _, d := range dirs {
		if counts[d] > bestCount {
			bestDir, bestCount = d, counts[d]
		}
	}
	if bestDir == "" || bestDir == "." {
		return fmt.Sprintf("cluster-%d", id)
	}
	return path.Base(bestDir)
}
