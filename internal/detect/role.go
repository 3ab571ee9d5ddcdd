package detect

import (
	"path/filepath"
	"strings"

	"strata/internal/store"
)

var configNames = map[string]bool{
	".env":           true,
	"dockerfile":     true,
	"docker-compose": true,
	"makefile":       true,
}

// ClassifyRole derives a file's role from path conventions. The role is
// advisory: it feeds reporting and the config bridge's candidate set, it
// never gates extraction.
func ClassifyRole(path string) store.FileRole {
	lower := strings.ToLower(path)
	base := filepath.Base(lower)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	switch {
	case strings.HasSuffix(stem, "_test"),
		strings.HasSuffix(stem, ".test"),
		strings.HasSuffix(stem, ".spec"),
		strings.HasPrefix(stem, "test_"),
		containsSegment(lower, "tests"),
		containsSegment(lower, "test"),
		containsSegment(lower, "__tests__"),
		containsSegment(lower, "spec"):
		return store.RoleTest
	case ext == ".md" || ext == ".rst" || ext == ".txt" || containsSegment(lower, "docs"):
		return store.RoleDocs
	case base == "go.mod" || base == "go.sum" || base == "package.json" ||
		base == "cargo.toml" || base == "pom.xml" || base == "build.gradle" ||
		stem == "makefile" || stem == "dockerfile":
		return store.RoleBuild
	case ext == ".yaml" || ext == ".yml" || ext == ".toml" || ext == ".ini" ||
		ext == ".env" || configNames[stem] || strings.HasPrefix(base, ".env"):
		return store.RoleConfig
	case ext == ".json" && (strings.Contains(stem, "config") || strings.Contains(stem, "settings")):
		return store.RoleConfig
	default:
		return store.RoleSource
	}
}

func containsSegment(path, segment string) bool {
	for _, part := range strings.Split(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}
