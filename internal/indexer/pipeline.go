package indexer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"strata/internal/bridge"
	"strata/internal/config"
	"strata/internal/detect"
	"strata/internal/graph"
	"strata/internal/lang"
	"strata/internal/logging"
	"strata/internal/metrics"
	"strata/internal/resolve"
	"strata/internal/store"
)

// Report summarizes one index run. Per-file failures land in
// Diagnostics; only an integrity violation or a store failure aborts
// the run itself.
type Report struct {
	RunID          string
	Partial        bool
	FilesScanned   int
	FilesIndexed   int
	FilesDeleted   int
	FilesUnchanged int
	SymbolsIndexed int
	EdgesIndexed   int
	UnresolvedRefs int
	Diagnostics    []lang.Diagnostic
	Duration       time.Duration
}

// Indexer owns the pipeline
type Indexer struct {
	cfg       *config.Config
	db        *store.DB
	discovery Discovery
	detector  *detect.Detector
	registry  *lang.Registry
	bridges   *bridge.Registry
	graphs    *graph.Engine
	scores    *metrics.Engine
	logger    *logging.Logger
}

// New wires an indexer from configuration. vcs may be nil when no
// version-control metrics are available.
func New(cfg *config.Config, db *store.DB, vcs metrics.VCSProvider, logger *logging.Logger) *Indexer {
	return &Indexer{
		cfg:       cfg,
		db:        db,
		discovery: NewFSDiscovery(cfg.RepoRoot, cfg.Index.Excludes),
		detector:  detect.NewDetector(cfg.RepoRoot, cfg.Index.HashRetries, logger),
		registry:  lang.NewRegistry(logger),
		bridges: bridge.NewRegistry(bridge.Config{
			Rest:     cfg.Bridges.RestAPI,
			Template: cfg.Bridges.Template,
			Config:   cfg.Bridges.Config,
		}),
		graphs: graph.NewEngine(db, cfg.Graph, logger),
		scores: metrics.NewEngine(db, vcs, logger),
		logger: logger,
	}
}

// fileResult is one file's extraction, plus everything needed to build
// its store records.
type fileResult struct {
	path       string
	file       store.File
	extraction *lang.Extraction
	symbols    []store.Symbol
	drafts     []lang.SymbolDraft
	skipped    bool
}

// Run indexes the working tree incrementally. An unchanged tree writes
// nothing at all; a changed tree commits exactly one batch covering
// the changed files, then recomputes derived metrics. A non-empty
// explicit list narrows the run to those paths and their subtrees;
// files outside the scope are left untouched, never deleted.
func (ix *Indexer) Run(ctx context.Context, explicit []string) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString(), Partial: ix.db.HasIndex()}

	tracked, err := ix.discovery.Tracked()
	if err != nil {
		return nil, err
	}
	stored, err := ix.db.AllFiles()
	if err != nil {
		return nil, err
	}
	if len(explicit) > 0 {
		report.Partial = true
		tracked = scopePaths(tracked, explicit)
		stored = scopeFiles(stored, explicit)
	}
	report.FilesScanned = len(tracked)

	cs, err := ix.detector.Detect(tracked, stored)
	if err != nil {
		return nil, err
	}
	report.FilesUnchanged = len(cs.Unchanged)

	if cs.Total() == 0 {
		report.Duration = time.Since(start)
		ix.logger.Info("Index up to date", map[string]interface{}{
			"files": len(tracked),
		})
		return report, nil
	}

	work := append(append([]string{}, cs.Added...), cs.Modified...)
	results, diags := ix.extractAll(ctx, work)
	report.Diagnostics = append(report.Diagnostics, diags...)

	// The resolver sees the post-batch world: fresh symbols from this
	// run plus stored symbols whose files are untouched.
	touched := make(map[string]bool, len(work)+len(cs.Deleted))
	for _, p := range work {
		touched[p] = true
	}
	for _, p := range cs.Deleted {
		touched[p] = true
	}
	allStored, err := ix.db.AllSymbols()
	if err != nil {
		return nil, err
	}
	tableSymbols := make([]store.Symbol, 0, len(allStored))
	for _, s := range allStored {
		if !touched[s.FilePath] {
			tableSymbols = append(tableSymbols, s)
		}
	}
	for _, r := range results {
		if !r.skipped {
			tableSymbols = append(tableSymbols, r.symbols...)
		}
	}
	table := resolve.NewTable(tableSymbols)
	resolver := resolve.NewResolver(table, ix.bridges, resolve.Options{
		AmbiguityLimit:   ix.cfg.Resolver.AmbiguityLimit,
		FuzzyNameWeight:  ix.cfg.Resolver.FuzzyNameWeight,
		FuzzyScopeWeight: ix.cfg.Resolver.FuzzyScopeWeight,
	}, ix.logger)

	batch := &store.Batch{RunID: report.RunID, Partial: report.Partial, Deleted: cs.Deleted}
	var complexityRecords []store.Metric
	for _, r := range results {
		if r.skipped {
			continue
		}
		update := store.FileUpdate{File: r.file, Symbols: r.symbols}
		if r.extraction != nil {
			update.Edges = ix.resolveFile(resolver, r)
			for _, d := range r.extraction.Diagnostics {
				report.Diagnostics = append(report.Diagnostics, d)
			}
		}
		for _, e := range update.Edges {
			if !e.Resolved() {
				report.UnresolvedRefs++
			}
		}
		for i, s := range r.symbols {
			if s.Kind == "function" || s.Kind == "method" {
				complexityRecords = append(complexityRecords, store.Metric{
					Owner:   store.OwnerSymbol,
					OwnerID: s.ID,
					Kind:    store.MetricComplexity,
					Value:   float64(r.drafts[i].Complexity.Cognitive),
				})
			}
		}
		report.SymbolsIndexed += len(update.Symbols)
		report.EdgesIndexed += len(update.Edges)
		batch.Updates = append(batch.Updates, update)
	}
	report.FilesIndexed = len(batch.Updates)
	report.FilesDeleted = len(cs.Deleted)

	if err := ix.db.ApplyBatch(batch); err != nil {
		return nil, err
	}
	if err := ix.db.PutMetrics(complexityRecords); err != nil {
		return nil, err
	}

	cycleFiles, err := ix.graphs.PersistStructure()
	if err != nil {
		return nil, err
	}
	if err := ix.scores.FoldVCS(tracked); err != nil {
		return nil, err
	}
	if err := ix.scores.ComputeScores(cycleFiles); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	ix.logger.Info("Index run complete", map[string]interface{}{
		"run_id":      report.RunID,
		"indexed":     report.FilesIndexed,
		"deleted":     report.FilesDeleted,
		"symbols":     report.SymbolsIndexed,
		"edges":       report.EdgesIndexed,
		"unresolved":  report.UnresolvedRefs,
		"duration_ms": report.Duration.Milliseconds(),
	})
	return report, nil
}

// inScope reports whether path equals one of the explicit paths or
// lives under one of them.
func inScope(path string, explicit []string) bool {
	for _, e := range explicit {
		e = filepath.ToSlash(filepath.Clean(e))
		if path == e || strings.HasPrefix(path, e+"/") {
			return true
		}
	}
	return false
}

func scopePaths(paths []string, explicit []string) []string {
	out := paths[:0]
	for _, p := range paths {
		if inScope(p, explicit) {
			out = append(out, p)
		}
	}
	return out
}

func scopeFiles(files []store.File, explicit []string) []store.File {
	out := files[:0]
	for _, f := range files {
		if inScope(f.Path, explicit) {
			out = append(out, f)
		}
	}
	return out
}

// extractAll runs extraction for the work list on a bounded worker
// pool. Results keep the input order so downstream steps, and thus the
// committed batch, never depend on scheduling.
func (ix *Indexer) extractAll(ctx context.Context, work []string) ([]fileResult, []lang.Diagnostic) {
	results := make([]fileResult, len(work))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Index.Workers)
	for i, path := range work {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = ix.extractOne(path)
			return nil
		})
	}
	// Worker errors are only context cancellation; per-file problems
	// are carried inside the results.
	_ = g.Wait()

	var diags []lang.Diagnostic
	for i := range results {
		if results[i].skipped && results[i].path != "" {
			diags = append(diags, lang.Diagnostic{
				Path:    results[i].path,
				Code:    "READ_ERROR",
				Message: "file skipped: unreadable during extraction",
			})
		}
	}
	return results, diags
}

func (ix *Indexer) extractOne(path string) fileResult {
	abs := filepath.Join(ix.cfg.RepoRoot, path)
	source, err := os.ReadFile(abs)
	if err != nil {
		return fileResult{path: path, skipped: true}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fileResult{path: path, skipped: true}
	}

	sum := sha256.Sum256(source)
	role := detect.ClassifyRole(path)
	r := fileResult{
		path: path,
		file: store.File{
			Path:      path,
			Language:  lang.LanguageForPath(path),
			Hash:      hex.EncodeToString(sum[:]),
			Mtime:     info.ModTime().Unix(),
			Role:      role,
			LineCount: bytes.Count(source, []byte("\n")) + 1,
			IndexedAt: time.Now().UTC(),
		},
	}

	// Docs and build files are tracked for completeness but carry no
	// symbols worth extracting.
	if role == store.RoleDocs || role == store.RoleBuild {
		return r
	}
	if !ix.cfg.Index.IncludeTests && role == store.RoleTest {
		return r
	}
	if max := ix.cfg.Index.MaxFileSizeKiB; max > 0 && len(source) > max*1024 {
		ix.logger.Debug("File exceeds size limit, skipping extraction", map[string]interface{}{
			"path": path, "bytes": len(source),
		})
		return r
	}

	extraction, err := ix.registry.ForPath(path).Extract(path, source)
	if err != nil {
		r.extraction = &lang.Extraction{
			Language: r.file.Language,
			Diagnostics: []lang.Diagnostic{{
				Path: path, Code: "EXTRACT_ERROR", Message: err.Error(),
			}},
		}
		return r
	}
	r.extraction = extraction
	r.drafts = extraction.Symbols
	r.symbols = materialize(path, extraction.Symbols)
	return r
}

// materialize assigns store identities to drafts. Duplicate
// (qualified name, kind) pairs within one file get ordinals in source
// order, so overloads stay distinct and stable.
func materialize(path string, drafts []lang.SymbolDraft) []store.Symbol {
	seen := make(map[string]int, len(drafts))
	symbols := make([]store.Symbol, 0, len(drafts))
	for _, d := range drafts {
		key := d.QualifiedName + "\x00" + d.Kind
		ordinal := seen[key]
		seen[key] = ordinal + 1
		symbols = append(symbols, store.Symbol{
			ID:            store.SymbolID(path, d.QualifiedName, d.Kind, ordinal),
			FilePath:      path,
			Name:          d.Name,
			QualifiedName: d.QualifiedName,
			Kind:          d.Kind,
			Signature:     d.Signature,
			LineStart:     d.LineStart,
			LineEnd:       d.LineEnd,
			Visibility:    d.Visibility,
		})
	}
	return symbols
}

// resolveFile binds one file's references. Edges from heuristic
// extraction are marked fallback and discounted: the reference text
// itself is less trustworthy.
func (ix *Indexer) resolveFile(resolver *resolve.Resolver, r fileResult) []store.Edge {
	byQualified := make(map[string]string, len(r.symbols))
	for _, s := range r.symbols {
		byQualified[s.QualifiedName] = s.ID
	}

	edges := make([]store.Edge, 0, len(r.extraction.Refs))
	for i := range r.extraction.Refs {
		ref := &r.extraction.Refs[i]
		edge := resolver.Resolve(ref, r.path, byQualified[ref.Scope])
		if r.extraction.Fallback && edge.Resolved() && edge.Origin == store.OriginLexical {
			edge.Origin = store.OriginFallback
			edge.Confidence *= 0.8
		}
		edges = append(edges, edge)
	}
	return edges
}
