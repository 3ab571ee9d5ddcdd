package store

import (
	"time"

	"github.com/google/uuid"
)

// FileRole classifies what a tracked file is for
type FileRole string

const (
	RoleSource FileRole = "source"
	RoleTest   FileRole = "test"
	RoleConfig FileRole = "config"
	RoleDocs   FileRole = "docs"
	RoleBuild  FileRole = "build"
	RoleOther  FileRole = "other"
)

// File is a tracked file record
type File struct {
	Path      string // Relative to repo root, unique key
	Language  string // Language tag, empty if undetected
	Hash      string // SHA256 of content
	Mtime     int64  // Unix seconds, cheap pre-filter only
	Role      FileRole
	LineCount int
	IndexedAt time.Time
}

// Symbol is a named definition at a file location.
// IDs are deterministic: the same (file, qualified name, kind) always
// produces the same ID, which is what keeps edges from other files
// valid across a re-index of the defining file.
type Symbol struct {
	ID            string
	FilePath      string
	Name          string
	QualifiedName string
	Kind          string // function, method, class, type, variable, ...
	Signature     string
	LineStart     int
	LineEnd       int
	Visibility    string // public, private
}

// symbolNamespace seeds deterministic symbol IDs
var symbolNamespace = uuid.MustParse("7a1f0a52-9c3e-4b7d-8f21-d4c5e6a7b8c9")

// SymbolID computes the deterministic ID for a symbol identity.
// ordinal disambiguates duplicate identities within one file (overloads).
func SymbolID(filePath, qualifiedName, kind string, ordinal int) string {
	key := filePath + "\x00" + qualifiedName + "\x00" + kind
	if ordinal > 0 {
		key += "\x00" + string(rune('0'+ordinal))
	}
	return uuid.NewSHA1(symbolNamespace, []byte(key)).String()
}

// EdgeKind is the relationship carried by an edge
type EdgeKind string

const (
	EdgeCall      EdgeKind = "call"
	EdgeImport    EdgeKind = "import"
	EdgeInherit   EdgeKind = "inherit"
	EdgeReference EdgeKind = "reference"
	EdgeRoute     EdgeKind = "route"    // REST bridge
	EdgeTemplate  EdgeKind = "template" // Template bridge
	EdgeConfigKey EdgeKind = "config"   // Config bridge
)

// EdgeOrigin records which resolution stage produced an edge
type EdgeOrigin string

const (
	OriginLexical        EdgeOrigin = "lexical"
	OriginBridgeRest     EdgeOrigin = "bridge-rest"
	OriginBridgeTemplate EdgeOrigin = "bridge-template"
	OriginBridgeConfig   EdgeOrigin = "bridge-config"
	OriginFallback       EdgeOrigin = "fallback"
)

// Edge is a resolved (or recorded-unresolved) reference.
// TargetSymbolID is empty for unresolved references; Candidates then
// carries the count of equally valid candidates that blocked resolution.
// Provenance is the file whose re-indexing produced the edge: re-indexing
// that file deletes and regenerates exactly these edges and no others.
type Edge struct {
	ID             int64
	SourceSymbolID string // Empty for file-level references (imports)
	SourceFile     string
	TargetSymbolID string // Empty if unresolved
	Kind           EdgeKind
	Origin         EdgeOrigin
	Confidence     float64
	Candidates     int
	Provenance     string
	Line           int
}

// Resolved reports whether the edge has a concrete target
func (e *Edge) Resolved() bool {
	return e.TargetSymbolID != ""
}

// MetricOwner distinguishes symbol-keyed from file-keyed metrics
type MetricOwner string

const (
	OwnerSymbol MetricOwner = "symbol"
	OwnerFile   MetricOwner = "file"
)

// MetricKind tags a metric record
type MetricKind string

const (
	MetricComplexity MetricKind = "complexity"
	MetricChurn      MetricKind = "churn"
	MetricCoChange   MetricKind = "cochange"
	MetricBlameAge   MetricKind = "blame_age"
	MetricEntropy    MetricKind = "entropy"
	MetricPageRank   MetricKind = "pagerank"
	MetricInDegree   MetricKind = "in_degree"
	MetricOutDegree  MetricKind = "out_degree"
	MetricLayer      MetricKind = "layer"
	MetricCluster    MetricKind = "cluster"
	MetricHotspot    MetricKind = "hotspot"
	MetricHealth     MetricKind = "health"
	MetricDebt       MetricKind = "debt"
)

// Metric is one metric record
type Metric struct {
	Owner   MetricOwner
	OwnerID string // Symbol ID or file path
	Kind    MetricKind
	Value   float64
}

// Direction selects incoming or outgoing edges
type Direction string

const (
	DirIn  Direction = "in"
	DirOut Direction = "out"
)

// Meta keys stored in the meta table
const (
	MetaKeyIndexState  = "index_state" // "full" or "partial"
	MetaKeyLastFull    = "last_full_index"
	MetaKeyLastPartial = "last_partial_index"
	MetaKeyLastRunID   = "last_run_id"
	MetaKeySchema      = "schema_version"
)
