package lang

import (
	"path/filepath"
	"sort"
	"strings"

	"strata/internal/logging"
)

// Registry maps language tags to extractors. Each call hands back a
// fresh extractor so callers may run them concurrently.
type Registry struct {
	logger *logging.Logger
}

// NewRegistry creates the extractor registry
func NewRegistry(logger *logging.Logger) *Registry {
	return &Registry{logger: logger}
}

// ForPath returns the extractor for a file path. Template and config
// files get their dedicated extractors, files without a registered
// grammar get the heuristic fallback extractor; fallback output is
// marked so downstream consumers assign it lower confidence.
func (r *Registry) ForPath(path string) Extractor {
	tag := LanguageForPath(path)
	if strings.HasPrefix(filepath.Base(path), ".env") {
		tag = "env"
	}
	switch tag {
	case "html":
		return newTemplateExtractor()
	case "yaml", "toml", "env":
		return newConfigExtractor(tag)
	}
	if spec, ok := grammars[tag]; ok {
		return newTreeSitterExtractor(tag, spec)
	}
	return newFallbackExtractor()
}

// ForLanguage returns the extractor for an explicit language tag
func (r *Registry) ForLanguage(tag string) (Extractor, bool) {
	spec, ok := grammars[tag]
	if !ok {
		return nil, false
	}
	return newTreeSitterExtractor(tag, spec), true
}

// Supported reports whether a path maps to a registered grammar
func (r *Registry) Supported(path string) bool {
	_, ok := grammars[LanguageForPath(path)]
	return ok
}

// Languages lists registered language tags, sorted
func (r *Registry) Languages() []string {
	tags := SupportedLanguages()
	sort.Strings(tags)
	return tags
}
