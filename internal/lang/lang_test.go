package lang

import (
	"testing"

	"strata/internal/logging"
	"strata/internal/store"
)

func extract(t *testing.T, path string, source string) *Extraction {
	t.Helper()
	reg := NewRegistry(logging.Discard())
	ex := reg.ForPath(path)
	out, err := ex.Extract(path, []byte(source))
	if err != nil {
		t.Fatalf("Extract(%s): %v", path, err)
	}
	return out
}

func findSymbol(out *Extraction, qualified string) *SymbolDraft {
	for i := range out.Symbols {
		if out.Symbols[i].QualifiedName == qualified {
			return &out.Symbols[i]
		}
	}
	return nil
}

func findRef(out *Extraction, name string, kind store.EdgeKind) *Reference {
	for i := range out.Refs {
		if out.Refs[i].Name == name && out.Refs[i].Kind == kind {
			return &out.Refs[i]
		}
	}
	return nil
}

func TestExtractGo(t *testing.T) {
	source := `package main

import "fmt"

type Greeter struct {
	prefix string
}

func (g *Greeter) Greet(name string) string {
	return g.prefix + name
}

func main() {
	g := Greeter{prefix: "hi "}
	fmt.Println(g.Greet("world"))
}
`
	out := extract(t, "main.go", source)

	if out.Fallback {
		t.Fatal("go should use the grammar, not the fallback")
	}
	if out.Language != "go" {
		t.Fatalf("language = %s, want go", out.Language)
	}

	greeter := findSymbol(out, "Greeter")
	if greeter == nil || greeter.Kind != "type" {
		t.Fatalf("Greeter type not extracted: %+v", out.Symbols)
	}
	greet := findSymbol(out, "Greet")
	if greet == nil || greet.Kind != "method" {
		t.Fatalf("Greet method not extracted: %+v", out.Symbols)
	}
	mainFn := findSymbol(out, "main")
	if mainFn == nil || mainFn.Kind != "function" {
		t.Fatalf("main function not extracted: %+v", out.Symbols)
	}
	if mainFn.Visibility != "private" {
		t.Errorf("main visibility = %s, want private", mainFn.Visibility)
	}

	if ref := findRef(out, "fmt", store.EdgeImport); ref == nil {
		t.Errorf("fmt import not extracted: %+v", out.Refs)
	}
	call := findRef(out, "Println", store.EdgeCall)
	if call == nil {
		t.Fatalf("Println call not extracted: %+v", out.Refs)
	}
	if call.Scope != "main" {
		t.Errorf("Println scope = %q, want main", call.Scope)
	}
}

func TestExtractPython(t *testing.T) {
	source := `import os
from collections import OrderedDict

class Base:
    pass

class Handler(Base):
    def process(self, item):
        return self._clean(item)

    def _clean(self, item):
        return os.path.basename(item)
`
	out := extract(t, "handler.py", source)

	handler := findSymbol(out, "Handler")
	if handler == nil || handler.Kind != "class" {
		t.Fatalf("Handler class not extracted: %+v", out.Symbols)
	}
	process := findSymbol(out, "Handler.process")
	if process == nil || process.Kind != "method" {
		t.Fatalf("Handler.process not extracted: %+v", out.Symbols)
	}
	clean := findSymbol(out, "Handler._clean")
	if clean == nil {
		t.Fatalf("Handler._clean not extracted: %+v", out.Symbols)
	}
	if clean.Visibility != "private" {
		t.Errorf("_clean visibility = %s, want private", clean.Visibility)
	}

	inherit := findRef(out, "Base", store.EdgeInherit)
	if inherit == nil {
		t.Fatalf("Base inheritance not extracted: %+v", out.Refs)
	}
	if inherit.Scope != "Handler" {
		t.Errorf("inherit scope = %q, want Handler", inherit.Scope)
	}
	if ref := findRef(out, "os", store.EdgeImport); ref == nil {
		t.Errorf("os import not extracted: %+v", out.Refs)
	}
	call := findRef(out, "_clean", store.EdgeCall)
	if call == nil {
		t.Fatalf("_clean call not extracted: %+v", out.Refs)
	}
	if call.Scope != "Handler.process" {
		t.Errorf("_clean call scope = %q, want Handler.process", call.Scope)
	}
}

func TestExtractTypeScriptInterface(t *testing.T) {
	source := `import { fetchJSON } from "./http";

export interface Store {
	get(key: string): string;
}

export class MemoryStore implements Store {
	get(key: string): string {
		return fetchJSON(key);
	}
}
`
	out := extract(t, "store.ts", source)

	iface := findSymbol(out, "Store")
	if iface == nil || iface.Kind != "interface" {
		t.Fatalf("Store interface not extracted: %+v", out.Symbols)
	}
	if findSymbol(out, "MemoryStore") == nil {
		t.Fatalf("MemoryStore class not extracted: %+v", out.Symbols)
	}
	if findSymbol(out, "MemoryStore.get") == nil {
		t.Fatalf("MemoryStore.get not extracted: %+v", out.Symbols)
	}
	if ref := findRef(out, "Store", store.EdgeInherit); ref == nil {
		t.Errorf("implements clause not extracted: %+v", out.Refs)
	}
	if ref := findRef(out, "http", store.EdgeImport); ref == nil {
		t.Errorf("import not extracted: %+v", out.Refs)
	}
}

func TestExtractPartialOnSyntaxError(t *testing.T) {
	source := `package main

func valid() int {
	return 1
}

func broken( {{{
`
	out := extract(t, "broken.go", source)

	if findSymbol(out, "valid") == nil {
		t.Errorf("symbols before the error point should survive: %+v", out.Symbols)
	}
	if len(out.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %d, want exactly 1", len(out.Diagnostics))
	}
	if out.Diagnostics[0].Code != "PARSE_ERROR" {
		t.Errorf("diagnostic code = %s, want PARSE_ERROR", out.Diagnostics[0].Code)
	}
}

func TestExtractDeterministic(t *testing.T) {
	source := `package main

func a() { b() }
func b() { a() }
`
	first := extract(t, "x.go", source)
	second := extract(t, "x.go", source)

	if len(first.Symbols) != len(second.Symbols) || len(first.Refs) != len(second.Refs) {
		t.Fatal("same bytes must produce the same extraction")
	}
	for i := range first.Symbols {
		if first.Symbols[i] != second.Symbols[i] {
			t.Errorf("symbol %d differs: %+v vs %+v", i, first.Symbols[i], second.Symbols[i])
		}
	}
	for i := range first.Refs {
		if first.Refs[i] != second.Refs[i] {
			t.Errorf("ref %d differs: %+v vs %+v", i, first.Refs[i], second.Refs[i])
		}
	}
}

func TestComplexityScoring(t *testing.T) {
	source := `package main

func simple() int {
	return 1
}

func branchy(a, b int) int {
	if a > 0 {
		if b > 0 {
			return a + b
		}
	}
	for i := 0; i < a; i++ {
		if i%2 == 0 && b > 1 {
			continue
		}
	}
	return b
}
`
	out := extract(t, "c.go", source)

	simple := findSymbol(out, "simple")
	branchy := findSymbol(out, "branchy")
	if simple == nil || branchy == nil {
		t.Fatalf("functions not extracted: %+v", out.Symbols)
	}

	if simple.Complexity.Cognitive != 0 {
		t.Errorf("simple cognitive = %d, want 0", simple.Complexity.Cognitive)
	}
	if simple.Complexity.Returns != 1 {
		t.Errorf("simple returns = %d, want 1", simple.Complexity.Returns)
	}
	if branchy.Complexity.Cognitive <= simple.Complexity.Cognitive {
		t.Errorf("branchy cognitive = %d, must exceed simple", branchy.Complexity.Cognitive)
	}
	if branchy.Complexity.Nesting != 2 {
		t.Errorf("branchy nesting = %d, want 2", branchy.Complexity.Nesting)
	}
	if branchy.Complexity.Params != 2 {
		t.Errorf("branchy params = %d, want 2", branchy.Complexity.Params)
	}
	if branchy.Complexity.BoolOps != 1 {
		t.Errorf("branchy bool ops = %d, want 1", branchy.Complexity.BoolOps)
	}

	// Same tree, same score.
	again := extract(t, "c.go", source)
	if findSymbol(again, "branchy").Complexity != branchy.Complexity {
		t.Error("complexity must be deterministic")
	}
}

func TestExtractRouteRegistration(t *testing.T) {
	source := `const express = require("express");
const app = express();

app.get("/users/:id", function handler(req, res) {
	res.send(load(req.params.id));
});
`
	out := extract(t, "server.js", source)

	var route *SymbolDraft
	for i := range out.Symbols {
		if out.Symbols[i].Kind == "route" {
			route = &out.Symbols[i]
		}
	}
	if route == nil {
		t.Fatalf("route symbol not extracted: %+v", out.Symbols)
	}
	if route.Name != "GET /users/:id" {
		t.Errorf("route name = %q, want GET /users/:id", route.Name)
	}

	call := findRef(out, "get", store.EdgeCall)
	if call == nil {
		t.Fatalf("get call not extracted: %+v", out.Refs)
	}
	if call.Arg != "/users/:id" {
		t.Errorf("call arg = %q, want /users/:id", call.Arg)
	}
}

func TestConfigExtractor(t *testing.T) {
	yamlSrc := `database:
  host: localhost
  port: 5432
debug: true
`
	out := extract(t, "settings.yaml", yamlSrc)
	for _, want := range []string{"database", "database.host", "database.port", "debug"} {
		if findSymbol(out, want) == nil {
			t.Errorf("yaml key %q not extracted: %+v", want, out.Symbols)
		}
	}

	envSrc := "API_KEY=secret\nexport DB_URL=postgres://x\n# comment\n"
	out = extract(t, ".env", envSrc)
	if findSymbol(out, "API_KEY") == nil || findSymbol(out, "DB_URL") == nil {
		t.Errorf("env keys not extracted: %+v", out.Symbols)
	}
}

func TestTemplateExtractor(t *testing.T) {
	src := `{% extends "base.html" %}
<div>{{ user }}</div>
{% include "partials/footer.html" %}
`
	out := extract(t, "templates/index.html", src)

	if findSymbol(out, "template:index") == nil {
		t.Fatalf("template symbol not extracted: %+v", out.Symbols)
	}
	if ref := findRef(out, "base", store.EdgeTemplate); ref == nil {
		t.Errorf("extends ref not extracted: %+v", out.Refs)
	}
	if ref := findRef(out, "footer", store.EdgeTemplate); ref == nil {
		t.Errorf("include ref not extracted: %+v", out.Refs)
	}
	if ref := findRef(out, "user", store.EdgeReference); ref == nil {
		t.Errorf("variable ref not extracted: %+v", out.Refs)
	}
}

func TestFallbackExtractor(t *testing.T) {
	source := `def compute(x)
  helper(x)
end

class Widget
`
	out := extract(t, "mystery.xyz", source)

	if !out.Fallback {
		t.Fatal("unknown extension should use the fallback extractor")
	}
	if findSymbol(out, "compute") == nil {
		t.Errorf("compute not extracted: %+v", out.Symbols)
	}
	if findSymbol(out, "Widget") == nil {
		t.Errorf("Widget not extracted: %+v", out.Symbols)
	}
	if ref := findRef(out, "helper", store.EdgeReference); ref == nil {
		t.Errorf("helper ref not extracted: %+v", out.Refs)
	}
}

func TestLanguageForPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"app.TS", "typescript"},
		{"view.tsx", "tsx"},
		{"mod.rs", "rust"},
		{"script.rb", "ruby"},
		{"deploy.yaml", "yaml"},
		{"notes.xyz", ""},
	}
	for _, tc := range cases {
		if got := LanguageForPath(tc.path); got != tc.want {
			t.Errorf("LanguageForPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
