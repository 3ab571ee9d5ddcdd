package resolve

import (
	"strings"

	"strata/internal/bridge"
	"strata/internal/lang"
	"strata/internal/logging"
	"strata/internal/store"
)

// Options carries the resolver's tunables. The ambiguity limit and
// fuzzy weights are configuration, not contract: only the lookup order
// itself is fixed.
type Options struct {
	AmbiguityLimit   int     // Names matching more candidates than this are recorded, not chased
	FuzzyNameWeight  float64 // Confidence assigned to a unique normalized-name match
	FuzzyScopeWeight float64 // Bonus when the fuzzy match shares the reference's package
}

// Resolver binds references against a symbol table, consulting bridges
// when in-language lookup fails. Resolution is deterministic: the same
// reference against the same table always produces the same edge or
// the same unresolved record.
type Resolver struct {
	table   *Table
	bridges *bridge.Registry
	opts    Options
	logger  *logging.Logger
}

// NewResolver creates a resolver over a symbol table
func NewResolver(table *Table, bridges *bridge.Registry, opts Options, logger *logging.Logger) *Resolver {
	if opts.AmbiguityLimit <= 0 {
		opts.AmbiguityLimit = 25
	}
	if opts.FuzzyNameWeight <= 0 {
		opts.FuzzyNameWeight = 0.7
	}
	return &Resolver{table: table, bridges: bridges, opts: opts, logger: logger}
}

// Resolve binds one reference. The returned edge always carries the
// reference's provenance and line; an unresolved reference comes back
// with an empty target and the ambiguous candidate count.
//
// Lookup order, first match wins:
//  1. exact qualified name in the same file
//  2. exact qualified name in the same package
//  3. unique bare-name match across the whole table
//  4. bridges
//  5. unique normalized-name match (fuzzy, reduced confidence)
// Two or more equally valid candidates at step 3 are never guessed.
func (r *Resolver) Resolve(ref *lang.Reference, fromFile, sourceSymbolID string) store.Edge {
	edge := store.Edge{
		SourceSymbolID: sourceSymbolID,
		SourceFile:     fromFile,
		Kind:           ref.Kind,
		Origin:         store.OriginLexical,
		Provenance:     fromFile,
		Line:           ref.Line,
	}

	for _, qname := range candidateQualifiedNames(ref) {
		if matches := r.table.InFile(fromFile, qname); len(matches) > 0 {
			edge.TargetSymbolID = matches[0].ID
			edge.Confidence = 1.0
			return edge
		}
	}

	for _, qname := range candidateQualifiedNames(ref) {
		if matches := r.table.InPackage(fromFile, qname); len(matches) > 0 {
			edge.TargetSymbolID = matches[0].ID
			edge.Confidence = 0.95
			return edge
		}
	}

	global := r.table.ByUnqualified(ref.Name)
	if len(global) == 1 {
		edge.TargetSymbolID = global[0].ID
		edge.Confidence = 0.85
		return edge
	}
	if len(global) > r.opts.AmbiguityLimit {
		// Too common a name to mean anything: record and move on
		// without burning bridge lookups on it.
		edge.Candidates = len(global)
		edge.Confidence = 0
		return edge
	}

	if r.bridges != nil {
		if c, origin, ok := r.bridges.Resolve(ref, fromFile, r.table); ok {
			edge.TargetSymbolID = c.Target.ID
			edge.Kind = c.Kind
			edge.Origin = origin
			edge.Confidence = c.Confidence
			return edge
		}
	}

	if len(global) == 0 && len(ref.Name) > 2 {
		if fuzzy := r.table.ByNormalized(ref.Name); len(fuzzy) == 1 {
			edge.TargetSymbolID = fuzzy[0].ID
			edge.Origin = store.OriginFallback
			edge.Confidence = r.opts.FuzzyNameWeight
			if samePackage(fuzzy[0].FilePath, fromFile) {
				edge.Confidence += r.opts.FuzzyScopeWeight * (1 - r.opts.FuzzyNameWeight)
			}
			return edge
		}
	}

	// Unresolved. The candidate count is part of the record: ambiguity
	// is reported, never hidden behind a guess.
	edge.TargetSymbolID = ""
	edge.Candidates = len(global)
	edge.Confidence = 0
	return edge
}

// candidateQualifiedNames lists the qualified names a reference could
// legitimately mean, most specific first. Order matters: it is part of
// the deterministic contract.
func candidateQualifiedNames(ref *lang.Reference) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(n string) {
		if n != "" && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}

	add(ref.Qualified)
	if ref.Scope != "" {
		// A sibling inside the same container: from scope A.b, the
		// name c may mean A.c.
		if idx := strings.LastIndex(ref.Scope, "."); idx >= 0 {
			add(ref.Scope[:idx] + "." + ref.Name)
		}
		add(ref.Scope + "." + ref.Name)
	}
	add(ref.Name)
	return names
}

func samePackage(a, b string) bool {
	return pathDir(a) == pathDir(b)
}

func pathDir(p string) string {
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		return p[:idx]
	}
	return "."
}
