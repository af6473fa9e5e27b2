package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig represents a .repolens.yaml file in a repository.
type ProjectConfig struct {
	Version string `yaml:"version"`

	// File patterns, matched against repo-relative paths.
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`

	// Output locations, relative to the repo root.
	ManifestPath string `yaml:"manifest_path,omitempty"`
	StatePath    string `yaml:"state_path,omitempty"`

	// ImpactDepth bounds reverse-dependency propagation during
	// incremental sync: 1 = direct importers, 0 = disabled.
	ImpactDepth int `yaml:"impact_depth,omitempty"`

	AI ProjectAIConfig `yaml:"ai,omitempty"`
}

// ProjectAIConfig holds per-repository AI summarization preferences.
type ProjectAIConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Provider        string `yaml:"provider,omitempty"`
	SymbolSummaries bool   `yaml:"symbol_summaries"`
}

// DefaultProjectConfig returns sensible defaults.
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Version: "1.0",
		Exclude: []string{
			"**/node_modules/**",
			"**/vendor/**",
			"**/dist/**",
			"**/*.min.js",
			"**/*_test.go",
			"**/*.test.ts",
			"**/*.test.js",
			"**/test_*.py",
		},
		ManifestPath: ".repolens/manifest.json",
		StatePath:    ".repolens/sync-state.json",
		ImpactDepth:  1,
		AI: ProjectAIConfig{
			Enabled:         true,
			SymbolSummaries: true,
		},
	}
}

// LoadProjectConfig loads a .repolens.yaml from the given directory,
// falling back to defaults when the file is absent.
func LoadProjectConfig(repoPath string) (*ProjectConfig, error) {
	configPath := filepath.Join(repoPath, ".repolens.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = filepath.Join(repoPath, ".repolens.yml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return DefaultProjectConfig(), nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := DefaultProjectConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge applies non-zero overrides from another config (e.g. CLI flags).
func (c *ProjectConfig) Merge(other *ProjectConfig) {
	if other == nil {
		return
	}

	if len(other.Include) > 0 {
		c.Include = other.Include
	}
	if len(other.Exclude) > 0 {
		c.Exclude = other.Exclude
	}
	if other.ManifestPath != "" {
		c.ManifestPath = other.ManifestPath
	}
	if other.StatePath != "" {
		c.StatePath = other.StatePath
	}
	if other.ImpactDepth != 0 {
		c.ImpactDepth = other.ImpactDepth
	}
	if other.AI.Provider != "" {
		c.AI.Provider = other.AI.Provider
	}
}
