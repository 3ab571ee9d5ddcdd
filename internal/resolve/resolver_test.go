package resolve

import (
	"testing"

	"strata/internal/bridge"
	"strata/internal/lang"
	"strata/internal/logging"
	"strata/internal/store"
)

func sym(id, file, name, qualified, kind string) store.Symbol {
	return store.Symbol{ID: id, FilePath: file, Name: name, QualifiedName: qualified, Kind: kind}
}

func newTestResolver(symbols []store.Symbol) *Resolver {
	table := NewTable(symbols)
	bridges := bridge.NewRegistry(bridge.Config{Rest: true, Template: true, Config: true})
	return NewResolver(table, bridges, Options{}, logging.Discard())
}

func TestResolveOrderSameFileFirst(t *testing.T) {
	r := newTestResolver([]store.Symbol{
		sym("local", "pkg/a.go", "helper", "helper", "function"),
		sym("sibling", "pkg/b.go", "helper", "helper", "function"),
		sym("far", "other/c.go", "helper", "helper", "function"),
	})

	edge := r.Resolve(&lang.Reference{Name: "helper", Kind: store.EdgeCall}, "pkg/a.go", "src")
	if edge.TargetSymbolID != "local" {
		t.Errorf("same-file match must win, got %s", edge.TargetSymbolID)
	}
	if edge.Confidence != 1.0 {
		t.Errorf("same-file confidence = %f, want 1.0", edge.Confidence)
	}
}

func TestResolveOrderPackageBeforeGlobal(t *testing.T) {
	r := newTestResolver([]store.Symbol{
		sym("sibling", "pkg/b.go", "helper", "helper", "function"),
		sym("far", "other/c.go", "helper", "helper", "function"),
	})

	edge := r.Resolve(&lang.Reference{Name: "helper", Kind: store.EdgeCall}, "pkg/a.go", "src")
	if edge.TargetSymbolID != "sibling" {
		t.Errorf("same-package match must win over global, got %s", edge.TargetSymbolID)
	}
}

func TestResolveUniqueGlobal(t *testing.T) {
	r := newTestResolver([]store.Symbol{
		sym("only", "other/c.go", "ProcessBatch", "ProcessBatch", "function"),
	})

	edge := r.Resolve(&lang.Reference{Name: "ProcessBatch", Kind: store.EdgeCall}, "pkg/a.go", "src")
	if edge.TargetSymbolID != "only" {
		t.Errorf("unique global match should resolve, got %q", edge.TargetSymbolID)
	}
}

func TestResolveAmbiguityNeverGuessed(t *testing.T) {
	r := newTestResolver([]store.Symbol{
		sym("one", "a/x.go", "process", "process", "function"),
		sym("two", "b/y.go", "process", "process", "function"),
	})

	edge := r.Resolve(&lang.Reference{Name: "process", Kind: store.EdgeCall}, "c/z.go", "src")
	if edge.Resolved() {
		t.Fatalf("ambiguous reference must stay unresolved, got %s", edge.TargetSymbolID)
	}
	if edge.Candidates != 2 {
		t.Errorf("candidates = %d, want 2", edge.Candidates)
	}
}

func TestResolveScopeSibling(t *testing.T) {
	r := newTestResolver([]store.Symbol{
		sym("m1", "app/h.py", "process", "Handler.process", "method"),
		sym("m2", "app/h.py", "_clean", "Handler._clean", "method"),
	})

	ref := &lang.Reference{
		Name: "_clean", Qualified: "self._clean",
		Kind: store.EdgeCall, Scope: "Handler.process",
	}
	edge := r.Resolve(ref, "app/h.py", "m1")
	if edge.TargetSymbolID != "m2" {
		t.Errorf("sibling method should resolve via scope, got %q", edge.TargetSymbolID)
	}
	if edge.Confidence != 1.0 {
		t.Errorf("same-file confidence = %f, want 1.0", edge.Confidence)
	}
}

func TestResolveDeterministic(t *testing.T) {
	symbols := []store.Symbol{
		sym("one", "a/x.go", "process", "process", "function"),
		sym("two", "b/y.go", "process", "process", "function"),
		sym("uniq", "b/y.go", "Unique", "Unique", "function"),
	}
	// Same table contents in a different insertion order.
	reversed := []store.Symbol{symbols[2], symbols[1], symbols[0]}

	refs := []*lang.Reference{
		{Name: "process", Kind: store.EdgeCall},
		{Name: "Unique", Kind: store.EdgeCall},
		{Name: "missing", Kind: store.EdgeCall},
	}

	a := newTestResolver(symbols)
	b := newTestResolver(reversed)
	for _, ref := range refs {
		ea := a.Resolve(ref, "c/z.go", "src")
		eb := b.Resolve(ref, "c/z.go", "src")
		if ea.TargetSymbolID != eb.TargetSymbolID || ea.Candidates != eb.Candidates {
			t.Errorf("resolution of %q depends on table build order: %+v vs %+v", ref.Name, ea, eb)
		}
	}
}

func TestResolveBridgeAfterLexical(t *testing.T) {
	r := newTestResolver([]store.Symbol{
		sym("route1", "server/api.py", "GET /items", "route:GET /items", "route"),
	})

	ref := &lang.Reference{Name: "get", Kind: store.EdgeCall, Arg: "/items"}
	edge := r.Resolve(ref, "web/client.js", "src")
	if edge.TargetSymbolID != "route1" {
		t.Fatalf("bridge should resolve the HTTP call, got %q", edge.TargetSymbolID)
	}
	if edge.Origin != store.OriginBridgeRest {
		t.Errorf("origin = %s, want bridge-rest", edge.Origin)
	}
	if edge.Kind != store.EdgeRoute {
		t.Errorf("kind = %s, want route", edge.Kind)
	}
}

func TestResolveFuzzyFallback(t *testing.T) {
	r := newTestResolver([]store.Symbol{
		sym("target", "lib/u.py", "get_user", "get_user", "function"),
	})

	edge := r.Resolve(&lang.Reference{Name: "getUser", Kind: store.EdgeCall}, "web/a.js", "src")
	if edge.TargetSymbolID != "target" {
		t.Fatalf("fuzzy match should resolve getUser to get_user, got %q", edge.TargetSymbolID)
	}
	if edge.Origin != store.OriginFallback {
		t.Errorf("origin = %s, want fallback", edge.Origin)
	}
	if edge.Confidence >= 0.85 {
		t.Errorf("fuzzy confidence = %f, must be below exact-match tiers", edge.Confidence)
	}
}

func TestResolveUnresolvedKeepsProvenance(t *testing.T) {
	r := newTestResolver(nil)

	edge := r.Resolve(&lang.Reference{Name: "nothing", Kind: store.EdgeCall, Line: 12}, "a/b.go", "src")
	if edge.Resolved() {
		t.Fatal("empty table must not resolve anything")
	}
	if edge.Provenance != "a/b.go" || edge.Line != 12 {
		t.Errorf("unresolved edge must keep provenance and line: %+v", edge)
	}
}
