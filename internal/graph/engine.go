package graph

import (
	"strata/internal/config"
	"strata/internal/logging"
	"strata/internal/store"
)

// Engine runs graph algorithms over the store. Read operations never
// write; PersistStructure is the one method that does, and the indexer
// calls it after each run.
type Engine struct {
	db     *store.DB
	cfg    config.GraphConfig
	logger *logging.Logger
}

// NewEngine creates a graph engine
func NewEngine(db *store.DB, cfg config.GraphConfig, logger *logging.Logger) *Engine {
	return &Engine{db: db, cfg: cfg, logger: logger}
}

// Scope narrows an algorithm to the neighborhood of some seed
// symbols. A nil scope means the whole graph.
type Scope struct {
	Seeds []string
	Hops  int
}

// LoadView materializes the scoped graph
func (e *Engine) LoadView(scope *Scope) (*View, error) {
	var export *store.GraphExport
	var err error
	if scope == nil || len(scope.Seeds) == 0 {
		export, err = e.db.ExportGraph()
	} else {
		hops := scope.Hops
		if hops <= 0 {
			hops = 2
		}
		export, err = e.db.ExportNeighborhood(scope.Seeds, hops)
	}
	if err != nil {
		return nil, err
	}
	return NewView(export), nil
}

// guard caps the view for algorithms whose cost grows faster than the
// graph. The sampled result is clearly marked approximate.
func (e *Engine) guard(v *View) *View {
	threshold := e.cfg.SampleThreshold
	if threshold <= 0 || v.Len() <= threshold {
		return v
	}
	size := e.cfg.SampleSize
	if size <= 0 {
		size = threshold
	}
	sampled := v.Sample(size)
	e.logger.Warn("Graph exceeds size guard, sampling", map[string]interface{}{
		"nodes":   v.Len(),
		"sampled": sampled.Len(),
	})
	return sampled
}

// Rank computes pagerank over the scoped graph
func (e *Engine) Rank(scope *Scope) (*RankResult, error) {
	v, err := e.LoadView(scope)
	if err != nil {
		return nil, err
	}
	return PageRank(v, e.cfg.PageRankDamping, e.cfg.PageRankIters, e.cfg.PageRankTol), nil
}

// FindCycles lists dependency cycles in the scoped graph. Cycle
// detection is linear, so it never samples.
func (e *Engine) FindCycles(scope *Scope) ([]Component, error) {
	v, err := e.LoadView(scope)
	if err != nil {
		return nil, err
	}
	return Cycles(v), nil
}

// FindClusters partitions the scoped graph into communities. Louvain
// is the most expensive algorithm here, so it runs behind the guard.
func (e *Engine) FindClusters(scope *Scope) ([]Cluster, bool, error) {
	v, err := e.LoadView(scope)
	if err != nil {
		return nil, false, err
	}
	v = e.guard(v)
	return Clusters(v), v.Approximate, nil
}

// ComputeLayers layers the scoped graph and reports violations
func (e *Engine) ComputeLayers(scope *Scope) (*Layering, error) {
	v, err := e.LoadView(scope)
	if err != nil {
		return nil, err
	}
	return Layers(v), nil
}

// Trace finds up to k paths between two symbols
func (e *Engine) Trace(from, to string, k int) (*Trace, error) {
	v, err := e.LoadView(nil)
	if err != nil {
		return nil, err
	}
	return TracePaths(v, from, to, k, e.cfg.MaxPathLength), nil
}

// SnapshotNow captures the whole current graph
func (e *Engine) SnapshotNow(runID string) (*Snapshot, error) {
	v, err := e.LoadView(nil)
	if err != nil {
		return nil, err
	}
	return Capture(v, runID), nil
}

// PersistStructure recomputes and stores the structural metrics the
// rest of the system reads: per-symbol degrees, pagerank and layer,
// plus cluster membership. Returns the set of files participating in
// cycles, which the metrics engine folds into health scores.
func (e *Engine) PersistStructure() (map[string]bool, error) {
	v, err := e.LoadView(nil)
	if err != nil {
		return nil, err
	}

	records := make([]store.Metric, 0, v.Len()*4)
	for i := range v.Symbols {
		id := v.ID(i)
		records = append(records,
			store.Metric{Owner: store.OwnerSymbol, OwnerID: id, Kind: store.MetricInDegree, Value: float64(len(v.In[i]))},
			store.Metric{Owner: store.OwnerSymbol, OwnerID: id, Kind: store.MetricOutDegree, Value: float64(len(v.Out[i]))},
		)
	}

	rank := PageRank(v, e.cfg.PageRankDamping, e.cfg.PageRankIters, e.cfg.PageRankTol)
	for id, score := range rank.Scores {
		records = append(records, store.Metric{Owner: store.OwnerSymbol, OwnerID: id, Kind: store.MetricPageRank, Value: score})
	}

	layering := Layers(v)
	for id, layer := range layering.Layers {
		records = append(records, store.Metric{Owner: store.OwnerSymbol, OwnerID: id, Kind: store.MetricLayer, Value: float64(layer)})
	}

	guarded := e.guard(v)
	for _, c := range Clusters(guarded) {
		for _, id := range c.Symbols {
			records = append(records, store.Metric{Owner: store.OwnerSymbol, OwnerID: id, Kind: store.MetricCluster, Value: float64(c.ID)})
		}
	}

	if err := e.db.PutMetrics(records); err != nil {
		return nil, err
	}
	e.logger.Debug("Persisted structural metrics", map[string]interface{}{
		"symbols": v.Len(),
		"damping": rank.Damping,
		"layers":  layering.Depth,
	})
	return CycleFiles(v), nil
}
