package lang

import (
	"regexp"
	"strings"

	"strata/internal/store"
)

// FallbackLanguage tags extractions produced without a grammar
const FallbackLanguage = "generic"

// fallbackExtractor is the heuristic line scanner used when no grammar
// is registered for a file. Its matches are shallow (no nesting, no
// qualified names) which is why its output carries the fallback mark.
type fallbackExtractor struct {
	defRe   *regexp.Regexp
	classRe *regexp.Regexp
	callRe  *regexp.Regexp
}

var fallbackKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "return": true,
	"catch": true, "defer": true, "function": true, "def": true, "fn": true,
	"func": true, "do": true, "else": true, "case": true, "match": true,
	"new": true, "typeof": true, "sizeof": true, "assert": true,
}

func newFallbackExtractor() *fallbackExtractor {
	return &fallbackExtractor{
		defRe:   regexp.MustCompile(`^\s*(?:pub\s+|static\s+|async\s+|export\s+)*(?:def|fn|func|function|sub|proc)\s+([A-Za-z_][A-Za-z0-9_]*)`),
		classRe: regexp.MustCompile(`^\s*(?:pub\s+|export\s+|abstract\s+)*(?:class|struct|trait|interface|module|enum)\s+([A-Za-z_][A-Za-z0-9_]*)`),
		callRe:  regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
	}
}

func (f *fallbackExtractor) Language() string { return FallbackLanguage }

func (f *fallbackExtractor) Extract(path string, source []byte) (*Extraction, error) {
	out := &Extraction{Language: FallbackLanguage, Fallback: true}

	var current string // Last seen definition, used as ref scope
	for i, line := range strings.Split(string(source), "\n") {
		lineNo := i + 1

		if m := f.classRe.FindStringSubmatch(line); m != nil {
			out.Symbols = append(out.Symbols, SymbolDraft{
				Name:          m[1],
				QualifiedName: m[1],
				Kind:          "class",
				Signature:     strings.TrimSpace(line),
				Visibility:    "public",
				LineStart:     lineNo,
				LineEnd:       lineNo,
			})
			current = m[1]
			continue
		}
		if m := f.defRe.FindStringSubmatch(line); m != nil {
			out.Symbols = append(out.Symbols, SymbolDraft{
				Name:          m[1],
				QualifiedName: m[1],
				Kind:          "function",
				Signature:     strings.TrimSpace(line),
				Visibility:    "public",
				LineStart:     lineNo,
				LineEnd:       lineNo,
			})
			current = m[1]
			continue
		}

		for _, m := range f.callRe.FindAllStringSubmatch(line, -1) {
			name := m[1]
			if fallbackKeywords[name] || name == current {
				continue
			}
			out.Refs = append(out.Refs, Reference{
				Name:  name,
				Kind:  store.EdgeReference,
				Line:  lineNo,
				Scope: current,
			})
		}
	}
	return out, nil
}
