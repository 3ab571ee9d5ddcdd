package lang

import (
	"path/filepath"
	"regexp"
	"strings"

	"strata/internal/store"
)

// templateExtractor handles template files. Each file becomes one
// symbol of kind "template" named by its stem, which is what render
// call sites resolve against through the template bridge. Includes and
// extends clauses become template references.
type templateExtractor struct {
	includeRe *regexp.Regexp // {% include "x.html" %}, {% extends "b" %}
	partialRe *regexp.Regexp // {{> partial}}
	varRe     *regexp.Regexp // {{ name }} and {{ name.field }}
}

func newTemplateExtractor() *templateExtractor {
	return &templateExtractor{
		includeRe: regexp.MustCompile(`\{%-?\s*(?:include|extends|import)\s+["']([^"']+)["']`),
		partialRe: regexp.MustCompile(`\{\{>\s*([A-Za-z_][A-Za-z0-9_./-]*)`),
		varRe:     regexp.MustCompile(`\{\{-?\s*\.?([A-Za-z_][A-Za-z0-9_]*)`),
	}
}

func (t *templateExtractor) Language() string { return "html" }

// TemplateName reduces a template path to the stem templates are known
// by: base name without extension.
func TemplateName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (t *templateExtractor) Extract(path string, source []byte) (*Extraction, error) {
	text := string(source)
	lineCount := strings.Count(text, "\n") + 1

	out := &Extraction{Language: "html"}
	out.Symbols = append(out.Symbols, SymbolDraft{
		Name:          TemplateName(path),
		QualifiedName: "template:" + TemplateName(path),
		Kind:          "template",
		Signature:     path,
		Visibility:    "public",
		LineStart:     1,
		LineEnd:       lineCount,
	})

	scope := "template:" + TemplateName(path)
	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		for _, m := range t.includeRe.FindAllStringSubmatch(line, -1) {
			out.Refs = append(out.Refs, Reference{
				Name:      TemplateName(m[1]),
				Qualified: m[1],
				Kind:      store.EdgeTemplate,
				Line:      lineNo,
				Scope:     scope,
				Arg:       m[1],
			})
		}
		for _, m := range t.partialRe.FindAllStringSubmatch(line, -1) {
			out.Refs = append(out.Refs, Reference{
				Name:      TemplateName(m[1]),
				Qualified: m[1],
				Kind:      store.EdgeTemplate,
				Line:      lineNo,
				Scope:     scope,
				Arg:       m[1],
			})
		}
		for _, m := range t.varRe.FindAllStringSubmatch(line, -1) {
			name := m[1]
			if name == "end" || name == "if" || name == "else" || name == "range" || name == "with" {
				continue
			}
			out.Refs = append(out.Refs, Reference{
				Name:  name,
				Kind:  store.EdgeReference,
				Line:  lineNo,
				Scope: scope,
			})
		}
	}
	return out, nil
}
