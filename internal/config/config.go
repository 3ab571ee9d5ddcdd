// Package config loads strata configuration from .strata/config.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config represents the complete strata configuration
type Config struct {
	RepoRoot string `mapstructure:"repoRoot"`

	Index    IndexConfig    `mapstructure:"index"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Store    StoreConfig    `mapstructure:"store"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Bridges  BridgesConfig  `mapstructure:"bridges"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// IndexConfig controls file discovery and the indexing pipeline
type IndexConfig struct {
	Excludes       []string `mapstructure:"excludes"`       // Glob/dir patterns to skip
	Workers        int      `mapstructure:"workers"`        // Extraction worker count (0 = NumCPU)
	HashRetries    int      `mapstructure:"hashRetries"`    // Read retry budget before treating a file as deleted
	IncludeTests   bool     `mapstructure:"includeTests"`   // Whether test files are indexed
	MaxFileSizeKiB int      `mapstructure:"maxFileSizeKiB"` // Files larger than this use the fallback extractor
}

// ResolverConfig exposes the relation resolver's tunables.
// The ambiguity limit and fuzzy weights are deliberately configuration,
// not constants: they are heuristic, not contractual.
type ResolverConfig struct {
	AmbiguityLimit   int     `mapstructure:"ambiguityLimit"`   // Max candidates recorded on an unresolved reference
	FuzzyNameWeight  float64 `mapstructure:"fuzzyNameWeight"`  // Weight of unqualified-name similarity
	FuzzyScopeWeight float64 `mapstructure:"fuzzyScopeWeight"` // Weight of scope proximity
}

// StoreConfig controls the SQLite graph store
type StoreConfig struct {
	Path          string `mapstructure:"path"`          // DB path relative to repo root
	ChunkSize     int    `mapstructure:"chunkSize"`     // Max identifiers per bulk query
	CommitRetries int    `mapstructure:"commitRetries"` // Retry budget when a reader hits a commit window
}

// GraphConfig controls the algorithms engine
type GraphConfig struct {
	SampleThreshold int     `mapstructure:"sampleThreshold"` // Node count above which guarded algorithms sample
	SampleSize      int     `mapstructure:"sampleSize"`      // Nodes sampled when the guard triggers
	PageRankDamping float64 `mapstructure:"pagerankDamping"` // 0 = adaptive from cycle ratio
	PageRankIters   int     `mapstructure:"pagerankIters"`
	PageRankTol     float64 `mapstructure:"pagerankTol"`
	MaxPathLength   int     `mapstructure:"maxPathLength"` // Bound on shortest-path search depth
}

// BridgesConfig enables or disables individual cross-language bridges
type BridgesConfig struct {
	RestAPI  bool `mapstructure:"restApi"`
	Template bool `mapstructure:"template"`
	Config   bool `mapstructure:"config"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the default configuration for a repo root
func Default(repoRoot string) *Config {
	return &Config{
		RepoRoot: repoRoot,
		Index: IndexConfig{
			Excludes:       []string{".git", ".strata", "node_modules", "vendor", "dist", "build", "__pycache__"},
			Workers:        runtime.NumCPU(),
			HashRetries:    2,
			IncludeTests:   true,
			MaxFileSizeKiB: 1024,
		},
		Resolver: ResolverConfig{
			AmbiguityLimit:   25,
			FuzzyNameWeight:  0.7,
			FuzzyScopeWeight: 0.3,
		},
		Store: StoreConfig{
			Path:          filepath.Join(".strata", "strata.db"),
			ChunkSize:     500,
			CommitRetries: 5,
		},
		Graph: GraphConfig{
			SampleThreshold: 500,
			SampleSize:      200,
			PageRankDamping: 0, // adaptive
			PageRankIters:   100,
			PageRankTol:     1e-6,
			MaxPathLength:   25,
		},
		Bridges: BridgesConfig{
			RestAPI:  true,
			Template: true,
			Config:   true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "human",
		},
	}
}

// Load reads configuration from .strata/config.toml under repoRoot,
// falling back to defaults for anything unset. A missing config file
// is not an error.
func Load(repoRoot string) (*Config, error) {
	cfg := Default(repoRoot)

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(filepath.Join(repoRoot, ".strata"))
	v.SetEnvPrefix("STRATA")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		return cfg, nil
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.RepoRoot = repoRoot

	if cfg.Index.Workers <= 0 {
		cfg.Index.Workers = runtime.NumCPU()
	}
	if cfg.Store.ChunkSize <= 0 {
		cfg.Store.ChunkSize = 500
	}
	return cfg, nil
}

// DBPath returns the absolute database path
func (c *Config) DBPath() string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(c.RepoRoot, c.Store.Path)
}

// EnsureStateDir creates the .strata directory if needed
func (c *Config) EnsureStateDir() error {
	return os.MkdirAll(filepath.Dir(c.DBPath()), 0o755)
}
