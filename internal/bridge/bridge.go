// Package bridge connects references across language boundaries:
// HTTP call sites to route definitions, render calls to templates,
// environment reads to config keys. Bridges are consulted by the
// resolver only after in-language resolution fails or a reference
// matches a bridge's detection predicate.
package bridge

import (
	"strata/internal/lang"
	"strata/internal/store"
)

// SymbolIndex is the read view bridges resolve against. The resolver's
// symbol table implements it.
type SymbolIndex interface {
	ByKind(kind string) []store.Symbol
	ByKindAndName(kind, name string) []store.Symbol
}

// Candidate is a successful bridge resolution
type Candidate struct {
	Target     store.Symbol
	Kind       store.EdgeKind
	Confidence float64
}

// Bridge resolves one class of cross-language reference
type Bridge interface {
	Name() string
	Origin() store.EdgeOrigin
	Detect(ref *lang.Reference) bool
	Resolve(ref *lang.Reference, fromFile string, index SymbolIndex) (Candidate, bool)
}

// Registry holds the enabled bridges in a fixed consultation order
type Registry struct {
	bridges []Bridge
}

// Config selects which bridges participate
type Config struct {
	Rest     bool
	Template bool
	Config   bool
}

// NewRegistry builds the registry. Order is fixed: rest, template,
// config. The first bridge that detects and resolves a reference wins.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{}
	if cfg.Rest {
		r.bridges = append(r.bridges, NewRestBridge())
	}
	if cfg.Template {
		r.bridges = append(r.bridges, NewTemplateBridge())
	}
	if cfg.Config {
		r.bridges = append(r.bridges, NewConfigBridge())
	}
	return r
}

// Bridges returns the consultation order
func (r *Registry) Bridges() []Bridge {
	return r.bridges
}

// Resolve consults each bridge in order
func (r *Registry) Resolve(ref *lang.Reference, fromFile string, index SymbolIndex) (Candidate, store.EdgeOrigin, bool) {
	for _, b := range r.bridges {
		if !b.Detect(ref) {
			continue
		}
		if c, ok := b.Resolve(ref, fromFile, index); ok {
			return c, b.Origin(), true
		}
	}
	return Candidate{}, "", false
}
