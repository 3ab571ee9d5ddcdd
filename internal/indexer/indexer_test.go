package indexer

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
	"time"

	"strata/internal/config"
	"strata/internal/logging"
	"strata/internal/metrics"
	"strata/internal/store"
)

func newTestIndexer(t *testing.T, root string) (*Indexer, *store.DB) {
	t.Helper()
	cfg := config.Default(root)
	cfg.Store.Path = filepath.Join(t.TempDir(), "strata.db")

	db, err := store.Open(cfg.DBPath(), store.Options{}, logging.Discard())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck

	return New(cfg, db, metrics.NullProvider{}, logging.Discard()), db
}

func writeFile(t *testing.T, root, rel, content string, mtime time.Time) {
	t.Helper()
	abs := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Chtimes(abs, mtime, mtime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
}

const libPy = `def helper(x):
    return x * 2

def unused(x):
    return x
`

const appPy = `import lib

def main():
    return helper(42)
`

func TestRunIndexesProject(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, root, "lib.py", libPy, base)
	writeFile(t, root, "app.py", appPy, base)

	ix, db := newTestIndexer(t, root)
	report, err := ix.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Partial {
		t.Error("first run must be a full index")
	}
	if report.FilesIndexed != 2 {
		t.Errorf("files indexed = %d, want 2", report.FilesIndexed)
	}
	if report.SymbolsIndexed < 3 {
		t.Errorf("symbols indexed = %d, want at least helper, unused, main", report.SymbolsIndexed)
	}

	syms, err := db.FindSymbolsByName("helper")
	if err != nil || len(syms) != 1 {
		t.Fatalf("FindSymbolsByName(helper) = %v, %v", syms, err)
	}
	edges, err := db.EdgesForSymbol(syms[0].ID, store.DirIn)
	if err != nil {
		t.Fatalf("EdgesForSymbol: %v", err)
	}
	found := false
	for _, e := range edges {
		if e.Provenance == "app.py" && e.Kind == store.EdgeCall {
			found = true
		}
	}
	if !found {
		t.Error("call from app.py to helper did not resolve")
	}
}

func TestRunIdempotent(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, root, "lib.py", libPy, base)

	ix, db := newTestIndexer(t, root)
	if _, err := ix.Run(context.Background(), nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	before, ok, err := db.GetMeta(store.MetaKeyLastRunID)
	if err != nil || !ok {
		t.Fatalf("GetMeta: %v, %v", ok, err)
	}

	report, err := ix.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.FilesIndexed != 0 || report.SymbolsIndexed != 0 {
		t.Errorf("unchanged tree re-indexed: %+v", report)
	}
	after, _, err := db.GetMeta(store.MetaKeyLastRunID)
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if before != after {
		t.Error("unchanged tree must write nothing, run id advanced")
	}
}

func TestRunIncrementalPreservesForeignEdges(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, root, "lib.py", libPy, base)
	writeFile(t, root, "app.py", appPy, base)

	ix, db := newTestIndexer(t, root)
	if _, err := ix.Run(context.Background(), nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	before, err := db.EdgesByProvenance("app.py")
	if err != nil {
		t.Fatalf("EdgesByProvenance: %v", err)
	}
	if len(before) == 0 {
		t.Fatal("app.py produced no edges")
	}

	// Touch only lib.py, keeping helper's identity intact.
	writeFile(t, root, "lib.py", libPy+`
def extra(y):
    return y + 1
`, base.Add(time.Minute))

	report, err := ix.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.FilesIndexed != 1 {
		t.Errorf("files indexed = %d, want only lib.py", report.FilesIndexed)
	}

	after, err := db.EdgesByProvenance("app.py")
	if err != nil {
		t.Fatalf("EdgesByProvenance: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("app.py edges changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i].TargetSymbolID != after[i].TargetSymbolID ||
			before[i].Kind != after[i].Kind ||
			before[i].Confidence != after[i].Confidence {
			t.Errorf("foreign edge changed on re-index of its target file:\n%+v\n%+v", before[i], after[i])
		}
	}
}

func TestRunDeletedFileCleansUp(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, root, "lib.py", libPy, base)
	writeFile(t, root, "app.py", appPy, base)

	ix, db := newTestIndexer(t, root)
	if _, err := ix.Run(context.Background(), nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "lib.py")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	report, err := ix.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.FilesDeleted != 1 {
		t.Errorf("files deleted = %d, want 1", report.FilesDeleted)
	}

	syms, err := db.SymbolsForFile("lib.py")
	if err != nil {
		t.Fatalf("SymbolsForFile: %v", err)
	}
	if len(syms) != 0 {
		t.Errorf("deleted file still owns %d symbols", len(syms))
	}

	// No edge may survive pointing at a removed symbol.
	edges, err := db.AllEdges()
	if err != nil {
		t.Fatalf("AllEdges: %v", err)
	}
	for _, e := range edges {
		if e.Resolved() {
			target, err := db.GetSymbol(e.TargetSymbolID)
			if err != nil || target == nil {
				t.Errorf("dangling edge survived deletion: %+v", e)
			}
		}
	}
}

type graphShape struct {
	Symbols []string
	Edges   []string
}

func shapeOf(t *testing.T, db *store.DB) graphShape {
	t.Helper()
	export, err := db.ExportGraph()
	if err != nil {
		t.Fatalf("ExportGraph: %v", err)
	}
	var shape graphShape
	for _, s := range export.Symbols {
		shape.Symbols = append(shape.Symbols, s.ID)
	}
	for _, e := range export.Edges {
		shape.Edges = append(shape.Edges, e.SourceFile+">"+e.TargetSymbolID+":"+string(e.Kind))
	}
	sort.Strings(shape.Symbols)
	sort.Strings(shape.Edges)
	return shape
}

func TestRunConfluence(t *testing.T) {
	// Indexing incrementally must converge to the same graph a fresh
	// index of the final tree produces.
	finalLib := libPy + `
def extra(y):
    return y
`
	base := time.Now().Add(-time.Hour)

	incRoot := t.TempDir()
	writeFile(t, incRoot, "lib.py", libPy, base)
	writeFile(t, incRoot, "app.py", appPy, base)
	incIx, incDB := newTestIndexer(t, incRoot)
	if _, err := incIx.Run(context.Background(), nil); err != nil {
		t.Fatalf("incremental first Run: %v", err)
	}
	writeFile(t, incRoot, "lib.py", finalLib, base.Add(time.Minute))
	if _, err := incIx.Run(context.Background(), nil); err != nil {
		t.Fatalf("incremental second Run: %v", err)
	}

	freshRoot := t.TempDir()
	writeFile(t, freshRoot, "lib.py", finalLib, base)
	writeFile(t, freshRoot, "app.py", appPy, base)
	freshIx, freshDB := newTestIndexer(t, freshRoot)
	if _, err := freshIx.Run(context.Background(), nil); err != nil {
		t.Fatalf("fresh Run: %v", err)
	}

	inc, fresh := shapeOf(t, incDB), shapeOf(t, freshDB)
	if !reflect.DeepEqual(inc, fresh) {
		t.Errorf("incremental and fresh index diverged:\nincremental: %+v\nfresh: %+v", inc, fresh)
	}
}

func TestRunContainsParseFailure(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, root, "good.py", libPy, base)
	writeFile(t, root, "bad.py", "def broken(:\n    nonsense((\n", base)

	ix, db := newTestIndexer(t, root)
	report, err := ix.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run must contain per-file failures: %v", err)
	}

	hasParseError := false
	for _, d := range report.Diagnostics {
		if d.Path == "bad.py" && d.Code == "PARSE_ERROR" {
			hasParseError = true
		}
	}
	if !hasParseError {
		t.Errorf("diagnostics missing PARSE_ERROR for bad.py: %+v", report.Diagnostics)
	}

	syms, err := db.FindSymbolsByName("helper")
	if err != nil || len(syms) != 1 {
		t.Errorf("healthy file must index despite sibling failure: %v, %v", syms, err)
	}
}

func TestRunExplicitPathsScopeTheRun(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, root, "pkg/lib.py", libPy, base)
	writeFile(t, root, "app.py", appPy, base)

	ix, db := newTestIndexer(t, root)
	report, err := ix.Run(context.Background(), []string{"pkg"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.FilesIndexed != 1 {
		t.Errorf("files indexed = %d, want only pkg/lib.py", report.FilesIndexed)
	}
	if !report.Partial {
		t.Error("an explicitly scoped run is partial")
	}
	syms, err := db.SymbolsForFile("app.py")
	if err != nil {
		t.Fatalf("SymbolsForFile: %v", err)
	}
	if len(syms) != 0 {
		t.Errorf("out-of-scope file was indexed: %d symbols", len(syms))
	}

	// Files outside the scope must survive a scoped run that no longer
	// sees them.
	if _, err := ix.Run(context.Background(), nil); err != nil {
		t.Fatalf("full Run: %v", err)
	}
	if _, err := ix.Run(context.Background(), []string{"pkg"}); err != nil {
		t.Fatalf("scoped Run: %v", err)
	}
	syms, err = db.SymbolsForFile("app.py")
	if err != nil {
		t.Fatalf("SymbolsForFile: %v", err)
	}
	if len(syms) == 0 {
		t.Error("scoped run deleted an out-of-scope file")
	}
}

func TestDiscoveryHonorsExcludes(t *testing.T) {
	root := t.TempDir()
	base := time.Now().Add(-time.Hour)
	writeFile(t, root, "src/main.py", libPy, base)
	writeFile(t, root, "node_modules/dep/index.js", "module.exports = 1\n", base)
	writeFile(t, root, ".git/config", "[core]\n", base)
	writeFile(t, root, "image.png", "\x89PNG", base)

	d := NewFSDiscovery(root, []string{"node_modules"})
	tracked, err := d.Tracked()
	if err != nil {
		t.Fatalf("Tracked: %v", err)
	}
	want := []string{"src/main.py"}
	if !reflect.DeepEqual(tracked, want) {
		t.Errorf("tracked = %v, want %v", tracked, want)
	}
}
