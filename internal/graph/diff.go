package graph

import "sort"

// GraphDiff is the symmetric difference between two snapshots
type GraphDiff struct {
	AddedNodes   []SnapshotNode
	RemovedNodes []SnapshotNode
	AddedEdges   []SnapshotEdge
	RemovedEdges []SnapshotEdge
}

// Empty reports whether the two snapshots describe the same graph
func (d *GraphDiff) Empty() bool {
	return len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 &&
		len(d.AddedEdges) == 0 && len(d.RemovedEdges) == 0
}

// Diff compares two snapshots by node and edge identity. Renamed
// symbols show up as a removal plus an addition; deterministic IDs
// keep unchanged symbols out of the diff entirely.
func Diff(before, after *Snapshot) *GraphDiff {
	d := &GraphDiff{}

	beforeNodes := make(map[string]SnapshotNode, len(before.Nodes))
	for _, n := range before.Nodes {
		beforeNodes[n.ID] = n
	}
	afterNodes := make(map[string]SnapshotNode, len(after.Nodes))
	for _, n := range after.Nodes {
		afterNodes[n.ID] = n
	}
	for id, n := range afterNodes {
		if _, ok := beforeNodes[id]; !ok {
			d.AddedNodes = append(d.AddedNodes, n)
		}
	}
	for id, n := range beforeNodes {
		if _, ok := afterNodes[id]; !ok {
			d.RemovedNodes = append(d.RemovedNodes, n)
		}
	}

	type key struct{ src, dst, kind string }
	beforeEdges := make(map[key]SnapshotEdge, len(before.Edges))
	for _, e := range before.Edges {
		beforeEdges[key{e.Source, e.Target, e.Kind}] = e
	}
	afterEdges := make(map[key]SnapshotEdge, len(after.Edges))
	for _, e := range after.Edges {
		afterEdges[key{e.Source, e.Target, e.Kind}] = e
	}
	for k, e := range afterEdges {
		if _, ok := beforeEdges[k]; !ok {
			d.AddedEdges = append(d.AddedEdges, e)
		}
	}
	for k, e := range beforeEdges {
		if _, ok := afterEdges[k]; !ok {
			d.RemovedEdges = append(d.RemovedEdges, e)
		}
	}

	sortNodes := func(ns []SnapshotNode) {
		sort.Slice(ns, func(i, j int) bool { return ns[i].ID < ns[j].ID })
	}
	sortEdges := func(es []SnapshotEdge) {
		sort.Slice(es, func(i, j int) bool {
			if es[i].Source != es[j].Source {
				return es[i].Source < es[j].Source
			}
			return es[i].Target < es[j].Target
		})
	}
	sortNodes(d.AddedNodes)
	sortNodes(d.RemovedNodes)
	sortEdges(d.AddedEdges)
	sortEdges(d.RemovedEdges)
	return d
}
