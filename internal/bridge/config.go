package bridge

import (
	"strings"

	"strata/internal/lang"
	"strata/internal/store"
)

// ConfigBridge links environment and settings reads to config_key
// symbols extracted from .env, YAML and TOML files.
type ConfigBridge struct{}

// NewConfigBridge creates the config bridge
func NewConfigBridge() *ConfigBridge {
	return &ConfigBridge{}
}

func (b *ConfigBridge) Name() string             { return "config" }
func (b *ConfigBridge) Origin() store.EdgeOrigin { return store.OriginBridgeConfig }

var envReadCallees = map[string]bool{
	"getenv": true, "lookupenv": true,
}

func (b *ConfigBridge) Detect(ref *lang.Reference) bool {
	if ref.Kind != store.EdgeCall || ref.Arg == "" {
		return false
	}
	lower := strings.ToLower(ref.Name)
	if envReadCallees[lower] {
		return true
	}
	// environ.get("KEY"), env.get("KEY"), config.get("db.host")
	if lower == "get" || lower == "getstring" || lower == "getint" || lower == "getbool" {
		q := strings.ToLower(ref.Qualified)
		return strings.Contains(q, "environ") || strings.Contains(q, "env") ||
			strings.Contains(q, "config") || strings.Contains(q, "settings")
	}
	return false
}

func (b *ConfigBridge) Resolve(ref *lang.Reference, fromFile string, index SymbolIndex) (Candidate, bool) {
	key := strings.TrimSpace(ref.Arg)
	if key == "" {
		return Candidate{}, false
	}

	matches := index.ByKindAndName("config_key", key)
	if len(matches) == 0 {
		// Env-style reads often use UPPER_SNAKE where the YAML side
		// defines lower.dotted keys.
		matches = index.ByKindAndName("config_key", envToDotted(key))
	}
	if len(matches) == 0 {
		return Candidate{}, false
	}
	// Multiple definition files (e.g. .env plus .env.example) all
	// define the same key; the first by path order is the anchor.
	return Candidate{Target: matches[0], Kind: store.EdgeConfigKey, Confidence: 0.85}, true
}

func envToDotted(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", ".")
}
