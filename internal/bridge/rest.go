package bridge

import (
	"strings"

	"strata/internal/lang"
	"strata/internal/store"
)

// RestBridge links frontend HTTP call sites to backend route symbols.
// Route symbols are produced at extraction time from route
// registrations, so matching here is a symbol-table lookup.
type RestBridge struct{}

// NewRestBridge creates the REST bridge
func NewRestBridge() *RestBridge {
	return &RestBridge{}
}

func (b *RestBridge) Name() string             { return "rest" }
func (b *RestBridge) Origin() store.EdgeOrigin { return store.OriginBridgeRest }

var httpClientCallees = map[string]bool{
	"fetch": true, "get": true, "post": true, "put": true, "delete": true,
	"patch": true, "request": true, "open": true, "ajax": true,
}

// Detect matches call references whose callee looks like an HTTP
// client call carrying a URL path argument.
func (b *RestBridge) Detect(ref *lang.Reference) bool {
	if ref.Kind != store.EdgeCall || ref.Arg == "" {
		return false
	}
	if !strings.HasPrefix(ref.Arg, "/") && !strings.Contains(ref.Arg, "://") {
		return false
	}
	return httpClientCallees[strings.ToLower(ref.Name)]
}

func (b *RestBridge) Resolve(ref *lang.Reference, fromFile string, index SymbolIndex) (Candidate, bool) {
	method := strings.ToUpper(ref.Name)
	if !httpVerb(method) {
		method = "GET"
	}

	var exact, anyMethod *store.Symbol
	for _, sym := range index.ByKind("route") {
		// Skip the registration site itself: the defining file's own
		// edges already cover it lexically.
		if sym.FilePath == fromFile {
			continue
		}
		symMethod, symPath := splitRouteName(sym.Name)
		if !MatchesRoute(symPath, ref.Arg) {
			continue
		}
		switch symMethod {
		case method:
			s := sym
			exact = &s
		case "ANY":
			s := sym
			anyMethod = &s
		}
		if exact != nil {
			break
		}
	}

	if exact != nil {
		return Candidate{Target: *exact, Kind: store.EdgeRoute, Confidence: 0.9}, true
	}
	if anyMethod != nil {
		return Candidate{Target: *anyMethod, Kind: store.EdgeRoute, Confidence: 0.8}, true
	}
	return Candidate{}, false
}

func httpVerb(m string) bool {
	switch m {
	case "GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS":
		return true
	}
	return false
}

func splitRouteName(name string) (method, path string) {
	parts := strings.SplitN(name, " ", 2)
	if len(parts) != 2 {
		return "ANY", name
	}
	return parts[0], parts[1]
}

// normalizeRoutePath collapses the common path-parameter syntaxes
// (:id, {id}, <id>) to a single wildcard so call sites with concrete
// values still match, and strips scheme, host and query.
func normalizeRoutePath(raw string) string {
	path := raw
	if idx := strings.Index(path, "://"); idx >= 0 {
		path = path[idx+3:]
		if slash := strings.Index(path, "/"); slash >= 0 {
			path = path[slash:]
		} else {
			path = "/"
		}
	}
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, ":") ||
			(strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")) ||
			(strings.HasPrefix(seg, "<") && strings.HasSuffix(seg, ">")) {
			segments[i] = "*"
		}
	}
	return strings.Join(segments, "/")
}

// MatchesRoute reports whether a concrete request path matches a
// registered route pattern, treating wildcard segments as one-segment
// matches. Used when the call site carries a concrete value where the
// route declares a parameter.
func MatchesRoute(pattern, concrete string) bool {
	p := strings.Split(normalizeRoutePath(pattern), "/")
	c := strings.Split(normalizeRoutePath(concrete), "/")
	if len(p) != len(c) {
		return false
	}
	for i := range p {
		if p[i] != "*" && c[i] != "*" && p[i] != c[i] {
			return false
		}
	}
	return true
}
