// Package resolve turns raw references into graph edges.
package resolve

import (
	"path"
	"sort"
	"strings"

	"strata/internal/store"
)

// Table is the symbol table one resolution run works against: every
// symbol currently known, indexed for the resolver's lookup order and
// for bridge queries.
type Table struct {
	byFileQualified map[string]map[string][]store.Symbol
	byPkgQualified  map[string]map[string][]store.Symbol
	byName          map[string][]store.Symbol
	byNormalized    map[string][]store.Symbol
	byKind          map[string][]store.Symbol
	byKindName      map[string][]store.Symbol
}

// NewTable indexes the given symbols. Input order does not matter:
// every index is sorted so lookups are deterministic.
func NewTable(symbols []store.Symbol) *Table {
	t := &Table{
		byFileQualified: make(map[string]map[string][]store.Symbol),
		byPkgQualified:  make(map[string]map[string][]store.Symbol),
		byName:          make(map[string][]store.Symbol),
		byNormalized:    make(map[string][]store.Symbol),
		byKind:          make(map[string][]store.Symbol),
		byKindName:      make(map[string][]store.Symbol),
	}
	for _, s := range symbols {
		pkg := path.Dir(s.FilePath)

		if t.byFileQualified[s.FilePath] == nil {
			t.byFileQualified[s.FilePath] = make(map[string][]store.Symbol)
		}
		t.byFileQualified[s.FilePath][s.QualifiedName] = append(t.byFileQualified[s.FilePath][s.QualifiedName], s)

		if t.byPkgQualified[pkg] == nil {
			t.byPkgQualified[pkg] = make(map[string][]store.Symbol)
		}
		t.byPkgQualified[pkg][s.QualifiedName] = append(t.byPkgQualified[pkg][s.QualifiedName], s)

		t.byName[s.Name] = append(t.byName[s.Name], s)
		t.byNormalized[normalizeName(s.Name)] = append(t.byNormalized[normalizeName(s.Name)], s)
		t.byKind[s.Kind] = append(t.byKind[s.Kind], s)
		t.byKindName[s.Kind+"\x00"+s.Name] = append(t.byKindName[s.Kind+"\x00"+s.Name], s)
	}

	for _, m := range []map[string][]store.Symbol{t.byName, t.byNormalized, t.byKind, t.byKindName} {
		for k := range m {
			sortSymbols(m[k])
		}
	}
	for _, files := range t.byFileQualified {
		for k := range files {
			sortSymbols(files[k])
		}
	}
	for _, pkgs := range t.byPkgQualified {
		for k := range pkgs {
			sortSymbols(pkgs[k])
		}
	}
	return t
}

func sortSymbols(symbols []store.Symbol) {
	sort.Slice(symbols, func(i, j int) bool {
		if symbols[i].FilePath != symbols[j].FilePath {
			return symbols[i].FilePath < symbols[j].FilePath
		}
		if symbols[i].LineStart != symbols[j].LineStart {
			return symbols[i].LineStart < symbols[j].LineStart
		}
		return symbols[i].ID < symbols[j].ID
	})
}

// InFile looks up a qualified name within one file
func (t *Table) InFile(file, qualified string) []store.Symbol {
	return t.byFileQualified[file][qualified]
}

// InPackage looks up a qualified name within one package (directory)
func (t *Table) InPackage(file, qualified string) []store.Symbol {
	return t.byPkgQualified[path.Dir(file)][qualified]
}

// ByUnqualified looks up symbols by bare name across the whole table
func (t *Table) ByUnqualified(name string) []store.Symbol {
	return t.byName[name]
}

// ByNormalized looks up symbols by case- and separator-insensitive name
func (t *Table) ByNormalized(name string) []store.Symbol {
	return t.byNormalized[normalizeName(name)]
}

// ByKind implements bridge.SymbolIndex
func (t *Table) ByKind(kind string) []store.Symbol {
	return t.byKind[kind]
}

// ByKindAndName implements bridge.SymbolIndex
func (t *Table) ByKindAndName(kind, name string) []store.Symbol {
	return t.byKindName[kind+"\x00"+name]
}

// normalizeName folds case and snake/camel separators so getUser,
// get_user and GetUser collide.
func normalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(name, "_", ""), "-", ""))
}
