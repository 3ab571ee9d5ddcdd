package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"strata/internal/logging"
	"strata/internal/store"
)

func openTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "strata.db"), store.Options{}, logging.Discard())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck
	return db
}

func seedSymbol(path, name string, complexity, inDeg, outDeg float64) (store.Symbol, []store.Metric) {
	s := store.Symbol{
		ID:            store.SymbolID(path, name, "function", 0),
		FilePath:      path,
		Name:          name,
		QualifiedName: name,
		Kind:          "function",
		Visibility:    "public",
	}
	return s, []store.Metric{
		{Owner: store.OwnerSymbol, OwnerID: s.ID, Kind: store.MetricComplexity, Value: complexity},
		{Owner: store.OwnerSymbol, OwnerID: s.ID, Kind: store.MetricInDegree, Value: inDeg},
		{Owner: store.OwnerSymbol, OwnerID: s.ID, Kind: store.MetricOutDegree, Value: outDeg},
	}
}

func seed(t *testing.T, db *store.DB, updates []store.FileUpdate, records []store.Metric) {
	t.Helper()
	if err := db.ApplyBatch(&store.Batch{Updates: updates}); err != nil {
		t.Fatalf("ApplyBatch: %v", err)
	}
	if err := db.PutMetrics(records); err != nil {
		t.Fatalf("PutMetrics: %v", err)
	}
}

func file(path string) store.File {
	return store.File{Path: path, Language: "python", Hash: path, Role: store.RoleSource, IndexedAt: time.Now()}
}

func TestFoldVCS(t *testing.T) {
	db := openTestDB(t)
	provider := StaticProvider{
		"hot.py": {Churn: 120, CoChange: 0.8, BlameAge: 30, Entropy: 0.6},
	}
	engine := NewEngine(db, provider, logging.Discard())

	if err := engine.FoldVCS([]string{"hot.py", "cold.py"}); err != nil {
		t.Fatalf("FoldVCS: %v", err)
	}

	churn, ok, err := db.GetMetric(store.OwnerFile, "hot.py", store.MetricChurn)
	if err != nil || !ok || churn != 120 {
		t.Errorf("churn = %f, %v, %v; want 120", churn, ok, err)
	}
	if _, ok, _ := db.GetMetric(store.OwnerFile, "cold.py", store.MetricChurn); ok {
		t.Error("provider reported nothing for cold.py, metric must not exist")
	}
}

func TestComputeScoresBlendsPenalties(t *testing.T) {
	db := openTestDB(t)

	// calm.py: trivial. messy.py: max complexity, in a cycle, heavily
	// connected, with a dead export.
	calm, calmMetrics := seedSymbol("calm.py", "tidy", 1, 1, 0)
	messy, messyMetrics := seedSymbol("messy.py", "tangle", 40, 30, 30)
	dead, deadMetrics := seedSymbol("messy.py", "orphan", 5, 0, 0)

	seed(t, db,
		[]store.FileUpdate{
			{File: file("calm.py"), Symbols: []store.Symbol{calm}},
			{File: file("messy.py"), Symbols: []store.Symbol{messy, dead}},
		},
		append(append(calmMetrics, messyMetrics...), deadMetrics...),
	)

	engine := NewEngine(db, StaticProvider{
		"calm.py":  {Churn: 1},
		"messy.py": {Churn: 100},
	}, logging.Discard())
	if err := engine.FoldVCS([]string{"calm.py", "messy.py"}); err != nil {
		t.Fatalf("FoldVCS: %v", err)
	}
	if err := engine.ComputeScores(map[string]bool{"messy.py": true}); err != nil {
		t.Fatalf("ComputeScores: %v", err)
	}

	messyHealth, ok, err := db.GetMetric(store.OwnerFile, "messy.py", store.MetricHealth)
	if err != nil || !ok {
		t.Fatalf("messy health: %v, %v", ok, err)
	}
	calmHealth, ok, err := db.GetMetric(store.OwnerFile, "calm.py", store.MetricHealth)
	if err != nil || !ok {
		t.Fatalf("calm health: %v, %v", ok, err)
	}
	if messyHealth <= calmHealth {
		t.Errorf("health penalty: messy %.3f must exceed calm %.3f", messyHealth, calmHealth)
	}

	// messy.py: complexity_norm 1.0, cycle 1.0, god (60 > 40) 1.0,
	// dead ratio 0.5 of two exports.
	want := 1.0*weightComplexity + 1.0*weightCycle + 1.0*weightGod + 0.5*weightDead
	if diff := messyHealth - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("messy health = %.4f, want %.4f", messyHealth, want)
	}

	hotspot, _, err := db.GetMetric(store.OwnerFile, "messy.py", store.MetricHotspot)
	if err != nil {
		t.Fatalf("hotspot: %v", err)
	}
	if hotspot != 100*45 {
		t.Errorf("hotspot = %.1f, want churn*complexity = 4500", hotspot)
	}

	debt, _, err := db.GetMetric(store.OwnerFile, "messy.py", store.MetricDebt)
	if err != nil {
		t.Fatalf("debt: %v", err)
	}
	if debt < messyHealth {
		t.Errorf("debt %.3f must amplify health %.3f for hot files", debt, messyHealth)
	}
	calmDebt, _, err := db.GetMetric(store.OwnerFile, "calm.py", store.MetricDebt)
	if err != nil {
		t.Fatalf("calm debt: %v", err)
	}
	if calmDebt != calmHealth {
		t.Errorf("cold file debt = %.4f, want unamplified health %.4f", calmDebt, calmHealth)
	}
}

func TestComputeScoresDeterministic(t *testing.T) {
	db := openTestDB(t)
	s, m := seedSymbol("a.py", "f", 3, 2, 1)
	seed(t, db, []store.FileUpdate{{File: file("a.py"), Symbols: []store.Symbol{s}}}, m)

	engine := NewEngine(db, NullProvider{}, logging.Discard())
	if err := engine.ComputeScores(nil); err != nil {
		t.Fatalf("ComputeScores: %v", err)
	}
	first, _, err := db.GetMetric(store.OwnerFile, "a.py", store.MetricHealth)
	if err != nil {
		t.Fatalf("GetMetric: %v", err)
	}
	if err := engine.ComputeScores(nil); err != nil {
		t.Fatalf("ComputeScores again: %v", err)
	}
	second, _, err := db.GetMetric(store.OwnerFile, "a.py", store.MetricHealth)
	if err != nil {
		t.Fatalf("GetMetric: %v", err)
	}
	if first != second {
		t.Errorf("recomputation changed the score: %f vs %f", first, second)
	}
}
