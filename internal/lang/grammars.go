package lang

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/elixir"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/lua"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/scala"
	"github.com/smacker/go-tree-sitter/swift"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// grammarSpec describes how one language's syntax tree maps onto the
// extraction model. Node type names come from each grammar's node-types
// inventory.
type grammarSpec struct {
	language *sitter.Language

	// Definition nodes. A function node with a class container becomes a
	// method; classKinds overrides the symbol kind per node type.
	functions  []string
	classes    []string
	classKinds map[string]string

	// Reference nodes
	calls     []string
	callField string // Field holding the callee, "function" for most grammars
	imports   []string
	inherits  []string // Supertype clause nodes inside a class node
}

var grammars = map[string]*grammarSpec{
	"go": {
		language:  golang.GetLanguage(),
		functions: []string{"function_declaration", "method_declaration"},
		classes:   []string{"type_declaration"},
		classKinds: map[string]string{
			"type_declaration": "type",
		},
		calls:     []string{"call_expression"},
		callField: "function",
		imports:   []string{"import_spec"},
	},
	"javascript": {
		language:  javascript.GetLanguage(),
		functions: []string{"function_declaration", "generator_function_declaration", "method_definition"},
		classes:   []string{"class_declaration"},
		calls:     []string{"call_expression", "new_expression"},
		callField: "function",
		imports:   []string{"import_statement"},
		inherits:  []string{"class_heritage"},
	},
	"typescript": {
		language: typescript.GetLanguage(),
		functions: []string{
			"function_declaration", "generator_function_declaration", "method_definition",
		},
		classes: []string{
			"class_declaration", "interface_declaration", "type_alias_declaration", "enum_declaration",
		},
		classKinds: map[string]string{
			"interface_declaration":  "interface",
			"type_alias_declaration": "type",
			"enum_declaration":       "type",
		},
		calls:     []string{"call_expression", "new_expression"},
		callField: "function",
		imports:   []string{"import_statement"},
		inherits:  []string{"class_heritage", "extends_clause", "implements_clause", "extends_type_clause"},
	},
	"tsx": {
		language: tsx.GetLanguage(),
		functions: []string{
			"function_declaration", "generator_function_declaration", "method_definition",
		},
		classes: []string{
			"class_declaration", "interface_declaration", "type_alias_declaration", "enum_declaration",
		},
		classKinds: map[string]string{
			"interface_declaration":  "interface",
			"type_alias_declaration": "type",
			"enum_declaration":       "type",
		},
		calls:     []string{"call_expression", "new_expression"},
		callField: "function",
		imports:   []string{"import_statement"},
		inherits:  []string{"class_heritage", "extends_clause", "implements_clause", "extends_type_clause"},
	},
	"python": {
		language:  python.GetLanguage(),
		functions: []string{"function_definition"},
		classes:   []string{"class_definition"},
		calls:     []string{"call"},
		callField: "function",
		imports:   []string{"import_statement", "import_from_statement"},
		inherits:  []string{"argument_list"},
	},
	"rust": {
		language:  rust.GetLanguage(),
		functions: []string{"function_item"},
		classes:   []string{"struct_item", "enum_item", "trait_item", "impl_item"},
		classKinds: map[string]string{
			"struct_item": "type",
			"enum_item":   "type",
			"trait_item":  "interface",
			"impl_item":   "type",
		},
		calls:     []string{"call_expression"},
		callField: "function",
		imports:   []string{"use_declaration"},
	},
	"java": {
		language:  java.GetLanguage(),
		functions: []string{"method_declaration", "constructor_declaration"},
		classes: []string{
			"class_declaration", "interface_declaration", "enum_declaration", "record_declaration",
		},
		classKinds: map[string]string{
			"interface_declaration": "interface",
			"enum_declaration":      "type",
			"record_declaration":    "type",
		},
		calls:     []string{"method_invocation", "object_creation_expression"},
		callField: "name",
		imports:   []string{"import_declaration"},
		inherits:  []string{"superclass", "super_interfaces", "extends_interfaces"},
	},
	"kotlin": {
		language:  kotlin.GetLanguage(),
		functions: []string{"function_declaration"},
		classes:   []string{"class_declaration", "object_declaration"},
		calls:     []string{"call_expression"},
		imports:   []string{"import_header"},
		inherits:  []string{"delegation_specifier"},
	},
	"ruby": {
		language:  ruby.GetLanguage(),
		functions: []string{"method", "singleton_method"},
		classes:   []string{"class", "module"},
		classKinds: map[string]string{
			"module": "type",
		},
		calls:     []string{"call"},
		callField: "method",
		inherits:  []string{"superclass"},
	},
	"php": {
		language:  php.GetLanguage(),
		functions: []string{"function_definition", "method_declaration"},
		classes:   []string{"class_declaration", "interface_declaration", "trait_declaration"},
		classKinds: map[string]string{
			"interface_declaration": "interface",
			"trait_declaration":     "type",
		},
		calls: []string{
			"function_call_expression", "member_call_expression", "object_creation_expression",
		},
		callField: "function",
		imports:   []string{"namespace_use_declaration"},
		inherits:  []string{"base_clause", "class_interface_clause"},
	},
	"c": {
		language:  c.GetLanguage(),
		functions: []string{"function_definition"},
		classes:   []string{"struct_specifier", "enum_specifier", "union_specifier"},
		classKinds: map[string]string{
			"struct_specifier": "type",
			"enum_specifier":   "type",
			"union_specifier":  "type",
		},
		calls:     []string{"call_expression"},
		callField: "function",
		imports:   []string{"preproc_include"},
	},
	"cpp": {
		language:  cpp.GetLanguage(),
		functions: []string{"function_definition"},
		classes:   []string{"class_specifier", "struct_specifier", "enum_specifier"},
		classKinds: map[string]string{
			"struct_specifier": "type",
			"enum_specifier":   "type",
		},
		calls:     []string{"call_expression"},
		callField: "function",
		imports:   []string{"preproc_include"},
		inherits:  []string{"base_class_clause"},
	},
	"csharp": {
		language:  csharp.GetLanguage(),
		functions: []string{"method_declaration", "constructor_declaration", "local_function_statement"},
		classes: []string{
			"class_declaration", "interface_declaration", "struct_declaration",
			"enum_declaration", "record_declaration",
		},
		classKinds: map[string]string{
			"interface_declaration": "interface",
			"struct_declaration":    "type",
			"enum_declaration":      "type",
			"record_declaration":    "type",
		},
		calls:     []string{"invocation_expression", "object_creation_expression"},
		callField: "function",
		imports:   []string{"using_directive"},
		inherits:  []string{"base_list"},
	},
	"swift": {
		language:  swift.GetLanguage(),
		functions: []string{"function_declaration", "init_declaration"},
		classes:   []string{"class_declaration", "protocol_declaration"},
		classKinds: map[string]string{
			"protocol_declaration": "interface",
		},
		calls:    []string{"call_expression"},
		imports:  []string{"import_declaration"},
		inherits: []string{"inheritance_specifier"},
	},
	"scala": {
		language:  scala.GetLanguage(),
		functions: []string{"function_definition"},
		classes:   []string{"class_definition", "object_definition", "trait_definition"},
		classKinds: map[string]string{
			"trait_definition":  "interface",
			"object_definition": "type",
		},
		calls:     []string{"call_expression"},
		callField: "function",
		imports:   []string{"import_declaration"},
		inherits:  []string{"extends_clause"},
	},
	"lua": {
		language:  lua.GetLanguage(),
		functions: []string{"function_declaration"},
		calls:     []string{"function_call"},
		callField: "name",
	},
	"bash": {
		language:  bash.GetLanguage(),
		functions: []string{"function_definition"},
	},
	// Parse-validity only: elixir models definitions as calls and css
	// carries no callable symbols. The fallback extractor covers them.
	"elixir": {language: elixir.GetLanguage()},
	"css":    {language: css.GetLanguage()},
}

var extensions = map[string]string{
	".go":    "go",
	".js":    "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".mts":   "typescript",
	".tsx":   "tsx",
	".py":    "python",
	".pyi":   "python",
	".rs":    "rust",
	".java":  "java",
	".kt":    "kotlin",
	".kts":   "kotlin",
	".rb":    "ruby",
	".rake":  "ruby",
	".php":   "php",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".swift": "swift",
	".scala": "scala",
	".sc":    "scala",
	".lua":   "lua",
	".sh":    "bash",
	".bash":  "bash",
	".ex":    "elixir",
	".exs":   "elixir",
	".css":   "css",

	// Handled by the template and config extractors, not grammars
	".html":   "html",
	".htm":    "html",
	".tmpl":   "html",
	".tpl":    "html",
	".j2":     "html",
	".jinja2": "html",
	".erb":    "html",
	".ejs":    "html",
	".hbs":    "html",
	".yaml":   "yaml",
	".yml":    "yaml",
	".toml":   "toml",
	".env":    "env",
	".ini":    "env",
}

// LanguageForPath maps a file path to its language tag, or "" when the
// extension is not recognized.
func LanguageForPath(path string) string {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// SupportedLanguages lists every language with a registered grammar
func SupportedLanguages() []string {
	out := make([]string, 0, len(grammars))
	for tag := range grammars {
		out = append(out, tag)
	}
	return out
}
