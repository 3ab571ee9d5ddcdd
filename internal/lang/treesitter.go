package lang

import (
	"context"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	strataerrors "strata/internal/errors"
	"strata/internal/store"
)

// tsExtractor drives one grammar through a generic definition/reference
// walk. All language-specific knowledge lives in the grammarSpec tables.
type tsExtractor struct {
	tag       string
	spec      *grammarSpec
	functions map[string]bool
	classes   map[string]bool
	calls     map[string]bool
	imports   map[string]bool
	inherits  map[string]bool
}

func newTreeSitterExtractor(tag string, spec *grammarSpec) *tsExtractor {
	return &tsExtractor{
		tag:       tag,
		spec:      spec,
		functions: toSet(spec.functions),
		classes:   toSet(spec.classes),
		calls:     toSet(spec.calls),
		imports:   toSet(spec.imports),
		inherits:  toSet(spec.inherits),
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func (e *tsExtractor) Language() string { return e.tag }

// Extract parses and walks one file. Malformed source is not fatal:
// whatever parsed before the error point is still extracted, and
// exactly one parse diagnostic is attached.
func (e *tsExtractor) Extract(path string, source []byte) (*Extraction, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.spec.language)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, strataerrors.Wrap(strataerrors.ParseError, "failed to parse "+path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	out := &Extraction{Language: e.tag}

	if root.HasError() {
		out.Diagnostics = append(out.Diagnostics, Diagnostic{
			Path:    path,
			Code:    string(strataerrors.ParseError),
			Message: "syntax error, extraction is partial",
			Line:    firstErrorLine(root),
		})
	}

	w := &tsWalker{ex: e, source: source, out: out}
	w.walk(root)
	return out, nil
}

type tsWalker struct {
	ex     *tsExtractor
	source []byte
	out    *Extraction
	stack  []string // Qualified names of enclosing named definitions
}

func (w *tsWalker) container() string {
	if len(w.stack) == 0 {
		return ""
	}
	return w.stack[len(w.stack)-1]
}

func (w *tsWalker) walk(node *sitter.Node) {
	if node == nil {
		return
	}
	t := node.Type()

	switch {
	case w.ex.tag == "go" && t == "type_declaration":
		w.goTypeDeclaration(node)
		return
	case w.ex.classes[t]:
		w.enterClass(node, t)
		return
	case w.ex.functions[t]:
		w.enterFunction(node, t)
		return
	case w.ex.imports[t]:
		w.emitImport(node)
		return
	case w.ex.calls[t]:
		w.emitCall(node)
		// Arguments may themselves contain calls and definitions.
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i))
	}
}

// goTypeDeclaration handles Go's grouped form: one declaration node may
// carry several type_spec children, each its own symbol.
func (w *tsWalker) goTypeDeclaration(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.Type() != "type_spec" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := w.text(nameNode)
		w.emitSymbol(child, name, "type")
	}
}

func (w *tsWalker) enterClass(node *sitter.Node, nodeType string) {
	name := w.defName(node)
	if name == "" {
		w.walkChildren(node)
		return
	}

	kind := "class"
	if k, ok := w.ex.spec.classKinds[nodeType]; ok {
		kind = k
	}
	qualified := w.emitSymbol(node, name, kind)

	// Supertype clauses are only meaningful as direct children of the
	// class node itself (python reuses argument_list for plain calls).
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && w.ex.inherits[child.Type()] {
			w.emitInherits(child, qualified)
		}
	}

	w.stack = append(w.stack, qualified)
	w.walkChildren(node)
	w.stack = w.stack[:len(w.stack)-1]
}

func (w *tsWalker) enterFunction(node *sitter.Node, nodeType string) {
	name := w.defName(node)
	if name == "" {
		w.walkChildren(node)
		return
	}

	kind := "function"
	if w.container() != "" || strings.Contains(nodeType, "method") {
		kind = "method"
	}
	qualified := w.emitSymbol(node, name, kind)
	w.out.Symbols[len(w.out.Symbols)-1].Complexity = analyzeComplexity(node, w.source)

	w.stack = append(w.stack, qualified)
	w.walkChildren(node)
	w.stack = w.stack[:len(w.stack)-1]
}

func (w *tsWalker) walkChildren(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i))
	}
}

func (w *tsWalker) emitSymbol(node *sitter.Node, name, kind string) string {
	container := w.container()
	qualified := name
	if container != "" {
		qualified = container + "." + name
	}
	w.out.Symbols = append(w.out.Symbols, SymbolDraft{
		Name:          name,
		QualifiedName: qualified,
		Kind:          kind,
		Container:     container,
		Signature:     firstLine(w.source, node),
		Visibility:    visibility(w.ex.tag, name),
		LineStart:     int(node.StartPoint().Row) + 1,
		LineEnd:       int(node.EndPoint().Row) + 1,
	})
	return qualified
}

func (w *tsWalker) emitCall(node *sitter.Node) {
	target := w.calleeNode(node)
	if target == nil {
		return
	}
	qualified := strings.TrimSpace(w.text(target))
	name := lastSegment(qualified)
	if name == "" {
		return
	}
	arg := w.firstStringArg(node)
	w.out.Refs = append(w.out.Refs, Reference{
		Name:      name,
		Qualified: qualified,
		Kind:      store.EdgeCall,
		Line:      int(node.StartPoint().Row) + 1,
		Scope:     w.container(),
		Arg:       arg,
	})

	// HTTP route registrations double as durable definitions so the
	// REST bridge can match call sites against them incrementally.
	if isRouteRegistration(name, arg) {
		w.emitRouteSymbol(node, name, arg)
	}
}

// firstStringArg returns the first string-literal argument of a call,
// with quotes stripped. Empty when the call has no literal argument.
func (w *tsWalker) firstStringArg(node *sitter.Node) string {
	args := node.ChildByFieldName("arguments")
	if args == nil {
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child != nil && strings.Contains(child.Type(), "argument") {
				args = child
				break
			}
		}
	}
	if args == nil {
		return ""
	}
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(i)
		if child == nil {
			continue
		}
		if importStringTypes[child.Type()] {
			return trimModule(w.text(child))
		}
	}
	return ""
}

var httpVerbs = map[string]bool{
	"get": true, "post": true, "put": true, "delete": true,
	"patch": true, "head": true, "options": true,
}

var routeRegistrars = map[string]bool{
	"route": true, "handle": true, "handlefunc": true, "mount": true,
	"resource": true, "match": true, "all": true, "any": true,
}

func isRouteRegistration(callee, arg string) bool {
	if !strings.HasPrefix(arg, "/") {
		return false
	}
	lower := strings.ToLower(callee)
	return httpVerbs[lower] || routeRegistrars[lower]
}

func (w *tsWalker) emitRouteSymbol(node *sitter.Node, callee, path string) {
	method := strings.ToUpper(callee)
	if !httpVerbs[strings.ToLower(callee)] {
		method = "ANY"
	}
	name := method + " " + path
	w.out.Symbols = append(w.out.Symbols, SymbolDraft{
		Name:          name,
		QualifiedName: "route:" + name,
		Kind:          "route",
		Container:     w.container(),
		Signature:     firstLine(w.source, node),
		Visibility:    "public",
		LineStart:     int(node.StartPoint().Row) + 1,
		LineEnd:       int(node.EndPoint().Row) + 1,
	})
}

func (w *tsWalker) calleeNode(node *sitter.Node) *sitter.Node {
	fields := []string{w.ex.spec.callField, "function", "name", "type", "method"}
	for _, field := range fields {
		if field == "" {
			continue
		}
		if target := node.ChildByFieldName(field); target != nil {
			return target
		}
	}
	return node.Child(0)
}

func (w *tsWalker) emitImport(node *sitter.Node) {
	module := importedModule(w.source, node)
	if module == "" {
		return
	}
	w.out.Refs = append(w.out.Refs, Reference{
		Name:      lastSegment(module),
		Qualified: module,
		Kind:      store.EdgeImport,
		Line:      int(node.StartPoint().Row) + 1,
		Scope:     w.container(),
	})
}

func (w *tsWalker) emitInherits(clause *sitter.Node, scope string) {
	for _, target := range supertypeNodes(clause) {
		qualified := strings.TrimSpace(w.text(target))
		name := lastSegment(qualified)
		if name == "" {
			continue
		}
		w.out.Refs = append(w.out.Refs, Reference{
			Name:      name,
			Qualified: qualified,
			Kind:      store.EdgeInherit,
			Line:      int(clause.StartPoint().Row) + 1,
			Scope:     scope,
		})
	}
}

func (w *tsWalker) text(node *sitter.Node) string {
	return string(w.source[node.StartByte():node.EndByte()])
}

var nameNodeTypes = map[string]bool{
	"identifier":        true,
	"simple_identifier": true,
	"type_identifier":   true,
	"field_identifier":  true,
	"constant":          true,
	"word":              true,
}

func (w *tsWalker) defName(node *sitter.Node) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return w.text(nameNode)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && nameNodeTypes[child.Type()] {
			return w.text(child)
		}
	}
	return ""
}

var supertypeTokenTypes = map[string]bool{
	"identifier":             true,
	"type_identifier":        true,
	"constant":               true,
	"simple_identifier":      true,
	"scoped_type_identifier": true,
	"scoped_identifier":      true,
	"attribute":              true,
	"user_type":              true,
	"generic_type":           true,
}

// supertypeNodes collects the topmost identifier-like nodes in a
// supertype clause, skipping keyword arguments (python metaclass=...).
func supertypeNodes(clause *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	var visit func(*sitter.Node)
	visit = func(node *sitter.Node) {
		if node == nil || node.Type() == "keyword_argument" {
			return
		}
		if supertypeTokenTypes[node.Type()] {
			out = append(out, node)
			return
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			visit(node.Child(i))
		}
	}
	for i := 0; i < int(clause.ChildCount()); i++ {
		visit(clause.Child(i))
	}
	return out
}

var importStringTypes = map[string]bool{
	"interpreted_string_literal": true,
	"string_literal":             true,
	"string":                     true,
	"raw_string_literal":         true,
	"system_lib_string":          true,
	"string_fragment":            true,
}

var importPathTypes = map[string]bool{
	"dotted_name":       true,
	"scoped_identifier": true,
	"identifier":        true,
	"qualified_name":    true,
	"use_wildcard":      true,
	"scoped_use_list":   true,
	"use_as_clause":     true,
}

// importedModule extracts the module path from an import-like node:
// the first quoted string if one exists, otherwise the first dotted or
// scoped path.
func importedModule(source []byte, node *sitter.Node) string {
	if pathNode := node.ChildByFieldName("path"); pathNode != nil {
		return trimModule(string(source[pathNode.StartByte():pathNode.EndByte()]))
	}

	var quoted, dotted *sitter.Node
	var visit func(*sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil || (quoted != nil && dotted != nil) {
			return
		}
		if quoted == nil && importStringTypes[n.Type()] {
			quoted = n
			return
		}
		if dotted == nil && importPathTypes[n.Type()] {
			dotted = n
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		visit(node.Child(i))
	}

	if quoted != nil {
		return trimModule(string(source[quoted.StartByte():quoted.EndByte()]))
	}
	if dotted != nil {
		return trimModule(string(source[dotted.StartByte():dotted.EndByte()]))
	}
	return ""
}

func trimModule(text string) string {
	return strings.Trim(strings.TrimSpace(text), "\"'`<>;")
}

// lastSegment reduces a written reference to the name the resolver
// matches on: the trailing path segment with any call or generic
// syntax stripped.
func lastSegment(qualified string) string {
	s := qualified
	for _, cut := range []string{"(", "<", "["} {
		if idx := strings.Index(s, cut); idx >= 0 {
			s = s[:idx]
		}
	}
	s = strings.TrimSpace(s)
	for _, sep := range []string{"/", "::", "->", "."} {
		if idx := strings.LastIndex(s, sep); idx >= 0 {
			s = s[idx+len(sep):]
		}
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\n{}") {
		return ""
	}
	return s
}

func firstLine(source []byte, node *sitter.Node) string {
	text := source[node.StartByte():node.EndByte()]
	for i, b := range text {
		if b == '\n' || b == '{' {
			return strings.TrimSpace(string(text[:i]))
		}
	}
	if len(text) > 200 {
		return strings.TrimSpace(string(text[:200])) + "..."
	}
	return strings.TrimSpace(string(text))
}

func visibility(tag, name string) string {
	switch tag {
	case "go":
		for _, r := range name {
			if unicode.IsLower(r) {
				return "private"
			}
			break
		}
	case "python", "ruby":
		if strings.HasPrefix(name, "_") {
			return "private"
		}
	}
	return "public"
}

func firstErrorLine(root *sitter.Node) int {
	var line int
	var visit func(*sitter.Node) bool
	visit = func(node *sitter.Node) bool {
		if node == nil || !node.HasError() {
			return false
		}
		if node.IsError() {
			line = int(node.StartPoint().Row) + 1
			return true
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			if visit(node.Child(i)) {
				return true
			}
		}
		return false
	}
	if visit(root) {
		return line
	}
	return 1
}
