package graph

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"strata/internal/store"
)

func node(id, file string) store.Symbol {
	return store.Symbol{ID: id, FilePath: file, Name: id, QualifiedName: id, Kind: "function"}
}

func edge(src, dst string) store.Edge {
	return store.Edge{SourceSymbolID: src, TargetSymbolID: dst, Kind: store.EdgeCall}
}

func buildView(symbols []store.Symbol, edges []store.Edge) *View {
	return NewView(&store.GraphExport{Symbols: symbols, Edges: edges})
}

func TestCyclesDetectsTriangle(t *testing.T) {
	v := buildView(
		[]store.Symbol{node("a", "x/a.go"), node("b", "x/b.go"), node("c", "x/c.go"), node("d", "y/d.go")},
		[]store.Edge{edge("a", "b"), edge("b", "c"), edge("c", "a")},
	)

	cycles := Cycles(v)
	if len(cycles) != 1 {
		t.Fatalf("cycles = %d, want 1", len(cycles))
	}
	c := cycles[0]
	if len(c.Symbols) != 3 {
		t.Errorf("cycle size = %d, want 3", len(c.Symbols))
	}
	for _, id := range c.Symbols {
		if id == "d" {
			t.Error("isolated node must not join the cycle")
		}
	}
	if c.TangleRatio != 1.0 {
		t.Errorf("self-contained cycle tangle ratio = %f, want 1.0", c.TangleRatio)
	}
}

func TestCyclesTangleRatioWithExternalEdges(t *testing.T) {
	v := buildView(
		[]store.Symbol{node("a", "x/a.go"), node("b", "x/b.go"), node("out", "y/o.go")},
		[]store.Edge{edge("a", "b"), edge("b", "a"), edge("a", "out")},
	)

	cycles := Cycles(v)
	if len(cycles) != 1 {
		t.Fatalf("cycles = %d, want 1", len(cycles))
	}
	// Two internal edges, one leaving.
	want := 2.0 / 3.0
	if diff := cycles[0].TangleRatio - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("tangle ratio = %f, want %f", cycles[0].TangleRatio, want)
	}
}

func TestLayersLinearChain(t *testing.T) {
	v := buildView(
		[]store.Symbol{node("a", "x/a.go"), node("b", "x/b.go"), node("c", "x/c.go")},
		[]store.Edge{edge("a", "b"), edge("b", "c")},
	)

	l := Layers(v)
	want := map[string]int{"a": 0, "b": 1, "c": 2}
	for id, layer := range want {
		if l.Layers[id] != layer {
			t.Errorf("layer[%s] = %d, want %d", id, l.Layers[id], layer)
		}
	}
	if l.Depth != 3 {
		t.Errorf("depth = %d, want 3", l.Depth)
	}
	if len(l.Violations) != 0 {
		t.Errorf("clean chain reported %d violations", len(l.Violations))
	}
}

func TestLayersCycleProducesViolation(t *testing.T) {
	v := buildView(
		[]store.Symbol{node("top", "a.go"), node("mid", "b.go"), node("deep", "c.go")},
		[]store.Edge{edge("top", "mid"), edge("mid", "deep"), edge("deep", "top")},
	)

	l := Layers(v)
	if len(l.Violations) != 1 {
		t.Fatalf("violations = %d, want exactly 1 for a 3-cycle", len(l.Violations))
	}
	viol := l.Violations[0]
	if viol.SourceLayer <= viol.TargetLayer {
		t.Errorf("violation layers %d -> %d must point upward", viol.SourceLayer, viol.TargetLayer)
	}

	// Same graph, same layering.
	again := Layers(v)
	for id, layer := range l.Layers {
		if again.Layers[id] != layer {
			t.Errorf("layer[%s] changed between runs: %d vs %d", id, layer, again.Layers[id])
		}
	}
}

func TestPageRankSymmetry(t *testing.T) {
	v := buildView(
		[]store.Symbol{node("a", "a.go"), node("b", "b.go")},
		[]store.Edge{edge("a", "b"), edge("b", "a")},
	)

	r := PageRank(v, 0, 0, 0)
	if diff := r.Scores["a"] - r.Scores["b"]; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("symmetric nodes scored %f vs %f", r.Scores["a"], r.Scores["b"])
	}
	sum := r.Scores["a"] + r.Scores["b"]
	if diff := sum - 1.0; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("rank mass = %f, want 1.0", sum)
	}
}

func TestPageRankFavorsHub(t *testing.T) {
	symbols := []store.Symbol{node("hub", "h.go")}
	var edges []store.Edge
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("leaf%d", i)
		symbols = append(symbols, node(id, id+".go"))
		edges = append(edges, edge(id, "hub"))
	}
	v := buildView(symbols, edges)

	r := PageRank(v, 0, 0, 0)
	for i := 0; i < 5; i++ {
		leaf := fmt.Sprintf("leaf%d", i)
		if r.Scores["hub"] <= r.Scores[leaf] {
			t.Errorf("hub (%f) must outrank %s (%f)", r.Scores["hub"], leaf, r.Scores[leaf])
		}
	}
	if top := r.Top(1); len(top) != 1 || top[0] != "hub" {
		t.Errorf("Top(1) = %v, want [hub]", top)
	}
}

func TestPageRankAdaptiveDamping(t *testing.T) {
	acyclic := buildView(
		[]store.Symbol{node("a", "a.go"), node("b", "b.go")},
		[]store.Edge{edge("a", "b")},
	)
	if r := PageRank(acyclic, 0, 0, 0); r.Damping != 0.92 {
		t.Errorf("acyclic damping = %f, want 0.92", r.Damping)
	}

	tangled := buildView(
		[]store.Symbol{node("a", "a.go"), node("b", "b.go")},
		[]store.Edge{edge("a", "b"), edge("b", "a")},
	)
	if r := PageRank(tangled, 0, 0, 0); r.Damping != 0.82 {
		t.Errorf("fully tangled damping = %f, want 0.82", r.Damping)
	}
}

func TestClustersSeparateCommunities(t *testing.T) {
	var symbols []store.Symbol
	var edges []store.Edge
	// Two dense groups joined by a single bridge edge.
	for _, grp := range []string{"auth", "billing"} {
		for i := 0; i < 4; i++ {
			symbols = append(symbols, node(fmt.Sprintf("%s%d", grp, i), fmt.Sprintf("app/%s/f%d.go", grp, i)))
		}
		for i := 0; i < 4; i++ {
			for j := i + 1; j < 4; j++ {
				edges = append(edges, edge(fmt.Sprintf("%s%d", grp, i), fmt.Sprintf("%s%d", grp, j)))
			}
		}
	}
	edges = append(edges, edge("auth0", "billing0"))
	v := buildView(symbols, edges)

	clusters := Clusters(v)
	if len(clusters) != 2 {
		t.Fatalf("clusters = %d, want 2", len(clusters))
	}
	membership := make(map[string]int)
	for _, c := range clusters {
		for _, id := range c.Symbols {
			membership[id] = c.ID
		}
	}
	for _, grp := range []string{"auth", "billing"} {
		want := membership[grp+"0"]
		for i := 1; i < 4; i++ {
			if membership[fmt.Sprintf("%s%d", grp, i)] != want {
				t.Errorf("%s group split across clusters", grp)
			}
		}
	}
	if membership["auth0"] == membership["billing0"] {
		t.Error("the two groups must land in different clusters")
	}

	labels := map[string]bool{clusters[0].Label: true, clusters[1].Label: true}
	if !labels["auth"] || !labels["billing"] {
		t.Errorf("cluster labels = %v, want directory names auth and billing", labels)
	}
}

func TestTracePathsDirectedFirst(t *testing.T) {
	v := buildView(
		[]store.Symbol{node("a", "a.go"), node("b", "b.go"), node("c", "c.go")},
		[]store.Edge{edge("a", "b"), edge("b", "c")},
	)

	tr := TracePaths(v, "a", "c", 1, 0)
	if !tr.Directed {
		t.Error("directed path exists, fallback must not trigger")
	}
	if len(tr.Paths) != 1 || len(tr.Paths[0]) != 3 {
		t.Fatalf("paths = %v, want one a-b-c path", tr.Paths)
	}

	// Against edge direction only the undirected projection connects.
	tr = TracePaths(v, "c", "a", 1, 0)
	if tr.Directed {
		t.Error("no directed path c->a, fallback expected")
	}
	if len(tr.Paths) != 1 {
		t.Fatalf("undirected fallback found %d paths, want 1", len(tr.Paths))
	}
}

func TestTracePathsKShortest(t *testing.T) {
	v := buildView(
		[]store.Symbol{node("s", "s.go"), node("m1", "m1.go"), node("m2", "m2.go"), node("t", "t.go")},
		[]store.Edge{edge("s", "m1"), edge("m1", "t"), edge("s", "m2"), edge("m2", "t")},
	)

	tr := TracePaths(v, "s", "t", 3, 0)
	if len(tr.Paths) != 2 {
		t.Fatalf("paths = %d, want 2 distinct routes", len(tr.Paths))
	}
	if tr.Paths[0][1] == tr.Paths[1][1] {
		t.Error("the two paths must go through different middles")
	}
}

func TestSizeGuardSamplesLargeGraph(t *testing.T) {
	const n = 10000
	symbols := make([]store.Symbol, n)
	edges := make([]store.Edge, 0, n)
	for i := 0; i < n; i++ {
		symbols[i] = node(fmt.Sprintf("n%05d", i), fmt.Sprintf("f%d.go", i%100))
		if i > 0 {
			edges = append(edges, edge(fmt.Sprintf("n%05d", i-1), fmt.Sprintf("n%05d", i)))
		}
	}
	v := buildView(symbols, edges)

	start := time.Now()
	sampled := v.Sample(500)
	clusters := Clusters(sampled)
	elapsed := time.Since(start)

	if !sampled.Approximate {
		t.Error("sampled view must be flagged approximate")
	}
	if sampled.Len() > 500 {
		t.Errorf("sampled size = %d, want <= 500", sampled.Len())
	}
	if len(clusters) == 0 {
		t.Error("clustering the sample produced nothing")
	}
	if elapsed > 10*time.Second {
		t.Errorf("guarded clustering took %s, want bounded time", elapsed)
	}

	// The same graph samples to the same nodes.
	again := v.Sample(500)
	if again.Len() != sampled.Len() || again.ID(0) != sampled.ID(0) {
		t.Error("sampling must be deterministic")
	}
}

func TestSnapshotRoundTripAndDiff(t *testing.T) {
	before := Capture(buildView(
		[]store.Symbol{node("a", "a.go"), node("b", "b.go")},
		[]store.Edge{edge("a", "b")},
	), "run-1")

	path := filepath.Join(t.TempDir(), "snap.json.zst")
	if err := before.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if loaded.ID != before.ID || len(loaded.Nodes) != 2 || len(loaded.Edges) != 1 {
		t.Fatalf("round trip lost data: %+v", loaded)
	}

	after := Capture(buildView(
		[]store.Symbol{node("a", "a.go"), node("c", "c.go")},
		[]store.Edge{edge("a", "c")},
	), "run-2")

	d := Diff(loaded, after)
	if len(d.AddedNodes) != 1 || d.AddedNodes[0].ID != "c" {
		t.Errorf("added nodes = %+v, want [c]", d.AddedNodes)
	}
	if len(d.RemovedNodes) != 1 || d.RemovedNodes[0].ID != "b" {
		t.Errorf("removed nodes = %+v, want [b]", d.RemovedNodes)
	}
	if len(d.AddedEdges) != 1 || len(d.RemovedEdges) != 1 {
		t.Errorf("edge diff = +%d -%d, want +1 -1", len(d.AddedEdges), len(d.RemovedEdges))
	}
	if d.Empty() {
		t.Error("diff with changes must not be empty")
	}

	if !Diff(loaded, loaded).Empty() {
		t.Error("self diff must be empty")
	}
}
