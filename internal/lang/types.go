// Package lang turns source files into symbols and raw references.
// Extractors are pure per-file functions: same bytes in, same
// extraction out, no store access and no cross-file state.
package lang

import (
	"strata/internal/store"
)

// SymbolDraft is an extracted definition before it gets a store identity
type SymbolDraft struct {
	Name          string
	QualifiedName string // container.name, or name at file level
	Kind          string // function, method, class, interface, type, variable
	Container     string
	Signature     string
	Visibility    string // public, private
	LineStart     int    // 1-indexed
	LineEnd       int
	Complexity    ComplexityFactors // Populated for function and method kinds
}

// Reference is a raw, unresolved mention of another symbol. The
// resolver later turns references into edges; extraction never decides
// what a name binds to.
type Reference struct {
	Name      string // Trailing segment (what the resolver matches first)
	Qualified string // Full dotted/qualified text as written, if any
	Kind      store.EdgeKind
	Line      int
	Scope     string // Qualified name of the enclosing symbol, "" at file level
	Arg       string // First string-literal call argument; bridges key off it
}

// Diagnostic is a non-fatal extraction problem attached to one file
type Diagnostic struct {
	Path    string
	Code    string
	Message string
	Line    int
}

// Extraction is everything one file yields
type Extraction struct {
	Language    string
	Symbols     []SymbolDraft
	Refs        []Reference
	Diagnostics []Diagnostic
	Fallback    bool // True when produced by the heuristic extractor
}

// Extractor extracts from a single file's bytes
type Extractor interface {
	Language() string
	Extract(path string, source []byte) (*Extraction, error)
}
