package lang

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	strataerrors "strata/internal/errors"
)

// configExtractor turns configuration files into config_key symbols so
// the config bridge can resolve environment and settings reads against
// them. Nested keys are flattened with dots up to a fixed depth.
type configExtractor struct {
	tag string // yaml, toml or env
}

const maxKeyDepth = 3

func newConfigExtractor(tag string) *configExtractor {
	return &configExtractor{tag: tag}
}

func (c *configExtractor) Language() string { return c.tag }

func (c *configExtractor) Extract(path string, source []byte) (*Extraction, error) {
	out := &Extraction{Language: c.tag}

	var keys []configKey
	var parseErr error
	switch c.tag {
	case "yaml":
		keys, parseErr = yamlKeys(source)
	case "toml":
		keys, parseErr = tomlKeys(source)
	default:
		keys = envKeys(source)
	}
	if parseErr != nil {
		out.Diagnostics = append(out.Diagnostics, Diagnostic{
			Path:    path,
			Code:    string(strataerrors.ParseError),
			Message: parseErr.Error(),
			Line:    1,
		})
		return out, nil
	}

	for _, k := range keys {
		out.Symbols = append(out.Symbols, SymbolDraft{
			Name:          k.name,
			QualifiedName: k.name,
			Kind:          "config_key",
			Signature:     k.name,
			Visibility:    "public",
			LineStart:     k.line,
			LineEnd:       k.line,
		})
	}
	return out, nil
}

type configKey struct {
	name string
	line int
}

// yamlKeys walks the document's node tree so each key keeps its line
func yamlKeys(source []byte) ([]configKey, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(source, &root); err != nil {
		return nil, err
	}

	var keys []configKey
	var visit func(node *yaml.Node, prefix string, depth int)
	visit = func(node *yaml.Node, prefix string, depth int) {
		if node == nil || depth > maxKeyDepth {
			return
		}
		switch node.Kind {
		case yaml.DocumentNode:
			for _, child := range node.Content {
				visit(child, prefix, depth)
			}
		case yaml.MappingNode:
			for i := 0; i+1 < len(node.Content); i += 2 {
				keyNode, valNode := node.Content[i], node.Content[i+1]
				name := keyNode.Value
				if prefix != "" {
					name = prefix + "." + name
				}
				keys = append(keys, configKey{name: name, line: keyNode.Line})
				visit(valNode, name, depth+1)
			}
		}
	}
	visit(&root, "", 1)
	return keys, nil
}

func tomlKeys(source []byte) ([]configKey, error) {
	var doc map[string]interface{}
	meta, err := toml.Decode(string(source), &doc)
	if err != nil {
		return nil, err
	}

	var keys []configKey
	for _, k := range meta.Keys() {
		parts := strings.Split(k.String(), ".")
		if len(parts) > maxKeyDepth {
			continue
		}
		keys = append(keys, configKey{name: k.String(), line: 1})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].name < keys[j].name })
	return keys, nil
}

// envKeys scans KEY=value lines (.env and ini-style files)
func envKeys(source []byte) []configKey {
	var keys []configKey
	for i, line := range strings.Split(string(source), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") ||
			strings.HasPrefix(trimmed, "[") {
			continue
		}
		trimmed = strings.TrimPrefix(trimmed, "export ")
		eq := strings.Index(trimmed, "=")
		if eq <= 0 {
			continue
		}
		name := strings.TrimSpace(trimmed[:eq])
		if name == "" || strings.ContainsAny(name, " \t") {
			continue
		}
		keys = append(keys, configKey{name: name, line: i + 1})
	}
	return keys
}
