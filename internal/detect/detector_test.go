package detect

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"strata/internal/logging"
	"strata/internal/store"
)

func writeFile(t *testing.T, root, path, content string) string {
	t.Helper()
	abs := filepath.Join(root, path)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return abs
}

func statMtime(t *testing.T, abs string) int64 {
	t.Helper()
	info, err := os.Stat(abs)
	if err != nil {
		t.Fatal(err)
	}
	return info.ModTime().Unix()
}

func TestDetectPartitions(t *testing.T) {
	root := t.TempDir()
	d := NewDetector(root, 3, logging.Discard())

	keptAbs := writeFile(t, root, "kept.go", "package kept\n")
	writeFile(t, root, "changed.go", "package changed // v2\n")
	writeFile(t, root, "new.go", "package new\n")

	keptHash, err := d.HashFile("kept.go")
	if err != nil {
		t.Fatal(err)
	}

	stored := []store.File{
		{Path: "kept.go", Hash: keptHash, Mtime: statMtime(t, keptAbs)},
		{Path: "changed.go", Hash: "stale-hash", Mtime: 1},
		{Path: "gone.go", Hash: "whatever", Mtime: 1},
	}

	cs, err := d.Detect([]string{"kept.go", "changed.go", "new.go"}, stored)
	if err != nil {
		t.Fatal(err)
	}

	if len(cs.Added) != 1 || cs.Added[0] != "new.go" {
		t.Errorf("added = %v, want [new.go]", cs.Added)
	}
	if len(cs.Modified) != 1 || cs.Modified[0] != "changed.go" {
		t.Errorf("modified = %v, want [changed.go]", cs.Modified)
	}
	if len(cs.Deleted) != 1 || cs.Deleted[0] != "gone.go" {
		t.Errorf("deleted = %v, want [gone.go]", cs.Deleted)
	}
	if len(cs.Unchanged) != 1 || cs.Unchanged[0] != "kept.go" {
		t.Errorf("unchanged = %v, want [kept.go]", cs.Unchanged)
	}
}

func TestDetectHashAuthoritativeOverMtime(t *testing.T) {
	root := t.TempDir()
	d := NewDetector(root, 3, logging.Discard())

	abs := writeFile(t, root, "touched.go", "package touched\n")
	hash, err := d.HashFile("touched.go")
	if err != nil {
		t.Fatal(err)
	}

	// Stored mtime deliberately stale so the pre-filter misses.
	stored := []store.File{{Path: "touched.go", Hash: hash, Mtime: statMtime(t, abs) - 100}}

	cs, err := d.Detect([]string{"touched.go"}, stored)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs.Modified) != 0 {
		t.Errorf("modified = %v, want none: content is unchanged", cs.Modified)
	}
	if len(cs.Unchanged) != 1 {
		t.Errorf("unchanged = %v, want [touched.go]", cs.Unchanged)
	}
}

func TestDetectMtimePrefilterSkipsHash(t *testing.T) {
	root := t.TempDir()
	d := NewDetector(root, 3, logging.Discard())

	abs := writeFile(t, root, "same.go", "package same\n")
	// Hash deliberately wrong: matching mtime means it is never consulted.
	stored := []store.File{{Path: "same.go", Hash: "not-the-real-hash", Mtime: statMtime(t, abs)}}

	cs, err := d.Detect([]string{"same.go"}, stored)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs.Unchanged) != 1 {
		t.Errorf("unchanged = %v, want [same.go]", cs.Unchanged)
	}
}

func TestDetectUnreadableTrackedFileTreatedAsDeleted(t *testing.T) {
	root := t.TempDir()
	d := NewDetector(root, 2, logging.Discard())

	stored := []store.File{{Path: "vanished.go", Hash: "h", Mtime: 1}}

	// Tracked but absent on disk.
	cs, err := d.Detect([]string{"vanished.go"}, stored)
	if err != nil {
		t.Fatal(err)
	}
	if len(cs.Deleted) != 1 || cs.Deleted[0] != "vanished.go" {
		t.Errorf("deleted = %v, want [vanished.go]", cs.Deleted)
	}
}

func TestHashFileRetriesThenFails(t *testing.T) {
	root := t.TempDir()
	d := NewDetector(root, 2, logging.Discard())

	start := time.Now()
	_, err := d.HashFile("missing.go")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("retry budget should be bounded")
	}
}

func TestClassifyRole(t *testing.T) {
	cases := []struct {
		path string
		want store.FileRole
	}{
		{"internal/store/db.go", store.RoleSource},
		{"internal/store/db_test.go", store.RoleTest},
		{"src/__tests__/app.spec.ts", store.RoleTest},
		{"README.md", store.RoleDocs},
		{"docs/guide.txt", store.RoleDocs},
		{"config/settings.yaml", store.RoleConfig},
		{".env.production", store.RoleConfig},
		{"go.mod", store.RoleBuild},
		{"Dockerfile", store.RoleBuild},
		{"app/handlers.py", store.RoleSource},
	}
	for _, tc := range cases {
		if got := ClassifyRole(tc.path); got != tc.want {
			t.Errorf("ClassifyRole(%q) = %s, want %s", tc.path, got, tc.want)
		}
	}
}
