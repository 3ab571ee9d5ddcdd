package metrics

import (
	"sort"

	"strata/internal/logging"
	"strata/internal/store"
)

// Score weights and thresholds. Health blends four penalties; debt is
// health amplified by how often the file actually changes, so hot
// unhealthy code outranks cold unhealthy code.
const (
	weightComplexity = 0.4
	weightCycle      = 0.3
	weightGod        = 0.2
	weightDead       = 0.1

	godDegreeThreshold = 40
	hotspotAmplifyCap  = 3.0
)

// Engine computes derived metric records over the store
type Engine struct {
	db     *store.DB
	vcs    VCSProvider
	logger *logging.Logger
}

// NewEngine creates a metrics engine
func NewEngine(db *store.DB, vcs VCSProvider, logger *logging.Logger) *Engine {
	if vcs == nil {
		vcs = NullProvider{}
	}
	return &Engine{db: db, vcs: vcs, logger: logger}
}

// FoldVCS merges the provider's per-file numbers into the metric table
func (e *Engine) FoldVCS(paths []string) error {
	var records []store.Metric
	for _, path := range paths {
		m, ok := e.vcs.FileMetrics(path)
		if !ok {
			continue
		}
		records = append(records,
			store.Metric{Owner: store.OwnerFile, OwnerID: path, Kind: store.MetricChurn, Value: m.Churn},
			store.Metric{Owner: store.OwnerFile, OwnerID: path, Kind: store.MetricCoChange, Value: m.CoChange},
			store.Metric{Owner: store.OwnerFile, OwnerID: path, Kind: store.MetricBlameAge, Value: m.BlameAge},
			store.Metric{Owner: store.OwnerFile, OwnerID: path, Kind: store.MetricEntropy, Value: m.Entropy},
		)
	}
	return e.db.PutMetrics(records)
}

// ComputeScores derives hotspot, health and debt per file from current
// complexity, degree and churn metrics. cycleFiles marks files owning
// at least one symbol inside a non-trivial strongly connected
// component; the graph engine supplies it.
func (e *Engine) ComputeScores(cycleFiles map[string]bool) error {
	symbols, err := e.db.AllSymbols()
	if err != nil {
		return err
	}
	symComplexity, err := e.db.AllMetricsOfKind(store.OwnerSymbol, store.MetricComplexity)
	if err != nil {
		return err
	}
	inDegree, err := e.db.AllMetricsOfKind(store.OwnerSymbol, store.MetricInDegree)
	if err != nil {
		return err
	}
	outDegree, err := e.db.AllMetricsOfKind(store.OwnerSymbol, store.MetricOutDegree)
	if err != nil {
		return err
	}
	churn, err := e.db.AllMetricsOfKind(store.OwnerFile, store.MetricChurn)
	if err != nil {
		return err
	}

	type fileStats struct {
		complexity float64
		degree     float64
		exported   int
		dead       int
	}
	stats := make(map[string]*fileStats)
	for _, s := range symbols {
		fs := stats[s.FilePath]
		if fs == nil {
			fs = &fileStats{}
			stats[s.FilePath] = fs
		}
		fs.complexity += symComplexity[s.ID]
		fs.degree += inDegree[s.ID] + outDegree[s.ID]

		if s.Visibility == "public" && callableKind(s.Kind) {
			fs.exported++
			if inDegree[s.ID] == 0 {
				fs.dead++
			}
		}
	}

	var maxComplexity float64 = 1
	for _, fs := range stats {
		if fs.complexity > maxComplexity {
			maxComplexity = fs.complexity
		}
	}
	churns := make([]float64, 0, len(stats))
	for path := range stats {
		churns = append(churns, churn[path])
	}
	sort.Float64s(churns)

	var records []store.Metric
	for path, fs := range stats {
		complexityNorm := fs.complexity / maxComplexity
		churnPctile := percentileRank(churn[path], churns)

		cyclePenalty := 0.0
		if cycleFiles[path] {
			cyclePenalty = 1.0
		}
		godPenalty := 0.0
		if fs.degree > godDegreeThreshold {
			godPenalty = 1.0
		}
		deadRatio := 0.0
		if fs.exported > 0 {
			deadRatio = float64(fs.dead) / float64(fs.exported)
		}

		healthPenalty := complexityNorm*weightComplexity +
			cyclePenalty*weightCycle +
			godPenalty*weightGod +
			deadRatio*weightDead

		hotspotFactor := churnPctile * hotspotAmplifyCap
		if hotspotFactor < 1.0 {
			hotspotFactor = 1.0
		}

		records = append(records,
			store.Metric{Owner: store.OwnerFile, OwnerID: path, Kind: store.MetricHotspot, Value: churn[path] * fs.complexity},
			store.Metric{Owner: store.OwnerFile, OwnerID: path, Kind: store.MetricHealth, Value: healthPenalty},
			store.Metric{Owner: store.OwnerFile, OwnerID: path, Kind: store.MetricDebt, Value: healthPenalty * hotspotFactor},
		)
	}

	e.logger.Debug("Computed derived scores", map[string]interface{}{
		"files": len(stats),
	})
	return e.db.PutMetrics(records)
}

func callableKind(kind string) bool {
	switch kind {
	case "function", "method", "class", "interface", "type":
		return true
	}
	return false
}

// percentileRank returns the rank (0..1) of value within sorted values
func percentileRank(value float64, sorted []float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	below := sort.SearchFloat64s(sorted, value)
	return float64(below) / float64(len(sorted))
}
