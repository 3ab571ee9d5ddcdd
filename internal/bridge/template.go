package bridge

import (
	"strings"

	"strata/internal/lang"
	"strata/internal/store"
)

// TemplateBridge links render call sites and template include clauses
// to template symbols.
type TemplateBridge struct{}

// NewTemplateBridge creates the template bridge
func NewTemplateBridge() *TemplateBridge {
	return &TemplateBridge{}
}

func (b *TemplateBridge) Name() string             { return "template" }
func (b *TemplateBridge) Origin() store.EdgeOrigin { return store.OriginBridgeTemplate }

var renderCallees = map[string]bool{
	"render": true, "render_template": true, "rendertemplate": true,
	"executetemplate": true, "template": true, "partial": true,
	"render_to_string": true, "include": true,
}

var templateExtensions = []string{
	".html", ".htm", ".tmpl", ".tpl", ".j2", ".jinja2", ".erb", ".ejs", ".hbs",
}

func (b *TemplateBridge) Detect(ref *lang.Reference) bool {
	if ref.Kind == store.EdgeTemplate {
		// Includes and extends emitted by the template extractor.
		return true
	}
	if ref.Kind != store.EdgeCall || ref.Arg == "" {
		return false
	}
	if !renderCallees[strings.ToLower(ref.Name)] {
		return false
	}
	lower := strings.ToLower(ref.Arg)
	for _, ext := range templateExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func (b *TemplateBridge) Resolve(ref *lang.Reference, fromFile string, index SymbolIndex) (Candidate, bool) {
	stem := lang.TemplateName(ref.Arg)
	if stem == "" {
		stem = ref.Name
	}

	matches := index.ByKindAndName("template", stem)
	if len(matches) == 0 {
		return Candidate{}, false
	}

	// Prefer the template whose file path ends with the written path,
	// then fall back to the unique stem match.
	written := strings.TrimPrefix(ref.Arg, "./")
	for _, sym := range matches {
		if written != "" && strings.HasSuffix(sym.FilePath, written) {
			return Candidate{Target: sym, Kind: store.EdgeTemplate, Confidence: 0.9}, true
		}
	}
	if len(matches) == 1 {
		return Candidate{Target: matches[0], Kind: store.EdgeTemplate, Confidence: 0.8}, true
	}
	return Candidate{}, false
}
