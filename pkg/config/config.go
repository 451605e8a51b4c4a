package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for simscan.
type Config struct {
	// Similarity thresholds
	Thresholds ThresholdConfig `koanf:"thresholds"`

	// Semantic judgment settings
	Semantic SemanticConfig `koanf:"semantic"`

	// External model settings
	Judge JudgeConfig `koanf:"judge"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude"`

	// Output settings
	Output OutputConfig `koanf:"output"`

	// Maximum file size to analyze in bytes (0 = no limit)
	MaxFileSize int64 `koanf:"max_file_size"`
}

// ThresholdConfig defines similarity score thresholds.
type ThresholdConfig struct {
	Structural     float64 `koanf:"structural"`      // Minimum Jaccard overlap to emit a structural match
	SemanticAccept float64 `koanf:"semantic_accept"` // Minimum judged similarity to accept a semantic match
	Refactoring    float64 `koanf:"refactoring"`     // Score at which a match becomes a refactoring opportunity
	HighPriority   float64 `koanf:"high_priority"`   // Cluster priority cutoffs
	MediumPriority float64 `koanf:"medium_priority"`
}

// SemanticConfig controls the externally judged similarity pass.
type SemanticConfig struct {
	Enabled   bool `koanf:"enabled"`
	BatchSize int  `koanf:"batch_size"` // Max pairwise judgments in flight at once
	MaxPairs  int  `koanf:"max_pairs"`  // Cap on judged pairs per run (0 = unlimited)
}

// JudgeConfig configures the external model collaborator.
type JudgeConfig struct {
	Model         string `koanf:"model"`
	MaxTokens     int    `koanf:"max_tokens"`
	MaxConcurrent int    `koanf:"max_concurrent"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns"`
	Dirs      []string `koanf:"dirs"`
	Gitignore bool     `koanf:"gitignore"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Thresholds: ThresholdConfig{
			Structural:     0.7,
			SemanticAccept: 0.6,
			Refactoring:    0.8,
			HighPriority:   0.9,
			MediumPriority: 0.7,
		},
		Semantic: SemanticConfig{
			Enabled:   true,
			BatchSize: 10,
			MaxPairs:  0,
		},
		Judge: JudgeConfig{
			Model:         "claude-sonnet-4-5",
			MaxTokens:     1024,
			MaxConcurrent: 10,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*_test.go",
				"*.test.ts",
				"*.spec.ts",
				"*.min.js",
			},
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				"dist",
				"build",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format:  "text",
			Color:   true,
			Verbose: false,
		},
		MaxFileSize: 0,
	}
}

// Load loads configuration from a file, layering it over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries standard config locations, falling back to defaults.
func LoadOrDefault() *Config {
	names := []string{
		"simscan.toml",
		"simscan.yaml",
		"simscan.yml",
		"simscan.json",
		".simscan.toml",
		".simscan.yaml",
		".simscan.yml",
		".simscan.json",
	}

	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			if cfg, err := Load(name); err == nil {
				return cfg
			}
		}
	}

	return DefaultConfig()
}
