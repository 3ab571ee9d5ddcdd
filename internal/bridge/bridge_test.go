package bridge

import (
	"testing"

	"strata/internal/lang"
	"strata/internal/store"
)

// fakeIndex is a minimal SymbolIndex for bridge tests
type fakeIndex struct {
	symbols []store.Symbol
}

func (f *fakeIndex) ByKind(kind string) []store.Symbol {
	var out []store.Symbol
	for _, s := range f.symbols {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeIndex) ByKindAndName(kind, name string) []store.Symbol {
	var out []store.Symbol
	for _, s := range f.symbols {
		if s.Kind == kind && s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

func TestRestBridgeMatchesRouteWithParam(t *testing.T) {
	index := &fakeIndex{symbols: []store.Symbol{
		{ID: "r1", FilePath: "server/routes.py", Kind: "route", Name: "GET /users/:id"},
		{ID: "r2", FilePath: "server/routes.py", Kind: "route", Name: "POST /users"},
	}}
	b := NewRestBridge()

	ref := &lang.Reference{Name: "get", Kind: store.EdgeCall, Arg: "/users/42"}
	if !b.Detect(ref) {
		t.Fatal("get /users/42 should be detected as an HTTP call")
	}
	c, ok := b.Resolve(ref, "web/app.js", index)
	if !ok {
		t.Fatal("route should resolve")
	}
	if c.Target.ID != "r1" {
		t.Errorf("resolved to %s, want r1", c.Target.ID)
	}
	if c.Kind != store.EdgeRoute {
		t.Errorf("edge kind = %s, want route", c.Kind)
	}

	// fetch defaults to GET
	ref = &lang.Reference{Name: "fetch", Kind: store.EdgeCall, Arg: "https://api.example.com/users/7"}
	c, ok = b.Resolve(ref, "web/app.js", index)
	if !ok || c.Target.ID != "r1" {
		t.Errorf("fetch with absolute URL should resolve to r1, got %+v ok=%v", c, ok)
	}

	// Method mismatch must not match.
	ref = &lang.Reference{Name: "delete", Kind: store.EdgeCall, Arg: "/users"}
	if _, ok := b.Resolve(ref, "web/app.js", index); ok {
		t.Error("DELETE /users has no registered route and must not resolve")
	}
}

func TestRestBridgeSkipsRegistrationSite(t *testing.T) {
	index := &fakeIndex{symbols: []store.Symbol{
		{ID: "r1", FilePath: "server/routes.py", Kind: "route", Name: "GET /health"},
	}}
	b := NewRestBridge()

	ref := &lang.Reference{Name: "get", Kind: store.EdgeCall, Arg: "/health"}
	if _, ok := b.Resolve(ref, "server/routes.py", index); ok {
		t.Error("a registration must not resolve to its own route symbol")
	}
}

func TestTemplateBridge(t *testing.T) {
	index := &fakeIndex{symbols: []store.Symbol{
		{ID: "t1", FilePath: "templates/index.html", Kind: "template", Name: "index"},
		{ID: "t2", FilePath: "templates/partials/footer.html", Kind: "template", Name: "footer"},
	}}
	b := NewTemplateBridge()

	ref := &lang.Reference{Name: "render_template", Kind: store.EdgeCall, Arg: "index.html"}
	if !b.Detect(ref) {
		t.Fatal("render_template call should be detected")
	}
	c, ok := b.Resolve(ref, "app/views.py", index)
	if !ok || c.Target.ID != "t1" {
		t.Errorf("index.html should resolve to t1, got %+v ok=%v", c, ok)
	}

	// Include refs from inside templates carry the template edge kind.
	ref = &lang.Reference{Name: "footer", Kind: store.EdgeTemplate, Arg: "partials/footer.html"}
	if !b.Detect(ref) {
		t.Fatal("template include should be detected")
	}
	c, ok = b.Resolve(ref, "templates/index.html", index)
	if !ok || c.Target.ID != "t2" {
		t.Errorf("include should resolve to t2, got %+v ok=%v", c, ok)
	}
}

func TestConfigBridge(t *testing.T) {
	index := &fakeIndex{symbols: []store.Symbol{
		{ID: "k1", FilePath: ".env", Kind: "config_key", Name: "API_KEY"},
		{ID: "k2", FilePath: "config/app.yaml", Kind: "config_key", Name: "database.host"},
	}}
	b := NewConfigBridge()

	ref := &lang.Reference{Name: "Getenv", Qualified: "os.Getenv", Kind: store.EdgeCall, Arg: "API_KEY"}
	if !b.Detect(ref) {
		t.Fatal("os.Getenv should be detected")
	}
	c, ok := b.Resolve(ref, "main.go", index)
	if !ok || c.Target.ID != "k1" {
		t.Errorf("API_KEY should resolve to k1, got %+v ok=%v", c, ok)
	}

	// UPPER_SNAKE read against a dotted YAML definition.
	ref = &lang.Reference{Name: "Getenv", Qualified: "os.Getenv", Kind: store.EdgeCall, Arg: "DATABASE_HOST"}
	c, ok = b.Resolve(ref, "main.go", index)
	if !ok || c.Target.ID != "k2" {
		t.Errorf("DATABASE_HOST should resolve to k2 via dotted form, got %+v ok=%v", c, ok)
	}

	// config.get with a dotted key
	ref = &lang.Reference{Name: "get", Qualified: "config.get", Kind: store.EdgeCall, Arg: "database.host"}
	if !b.Detect(ref) {
		t.Fatal("config.get should be detected")
	}
}

func TestRegistryOrderAndFlags(t *testing.T) {
	reg := NewRegistry(Config{Rest: true, Template: true, Config: true})
	if len(reg.Bridges()) != 3 {
		t.Fatalf("bridges = %d, want 3", len(reg.Bridges()))
	}
	names := []string{"rest", "template", "config"}
	for i, b := range reg.Bridges() {
		if b.Name() != names[i] {
			t.Errorf("bridge %d = %s, want %s", i, b.Name(), names[i])
		}
	}

	reg = NewRegistry(Config{Template: true})
	if len(reg.Bridges()) != 1 || reg.Bridges()[0].Name() != "template" {
		t.Error("disabled bridges must not be registered")
	}
}

func TestNormalizeRoutePath(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"/users/:id", "/users/*"},
		{"/users/{id}", "/users/*"},
		{"/users/<id>", "/users/*"},
		{"https://api.example.com/users?page=2", "/users"},
		{"/users/", "/users"},
		{"/", "/"},
	}
	for _, tc := range cases {
		if got := normalizeRoutePath(tc.in); got != tc.want {
			t.Errorf("normalizeRoutePath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
