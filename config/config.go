// Package config provides configuration loading and management for the
// documentation pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/halcyon-dev/angraph/chunk"
)

// Config is the complete pipeline configuration.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Scan    ScanConfig    `yaml:"scan"`
	Chunks  ChunksConfig  `yaml:"chunks"`
	Output  OutputConfig  `yaml:"output"`
	NATS    NATSConfig    `yaml:"nats"`
	Watch   WatchConfig   `yaml:"watch"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ProjectConfig locates the project to analyze.
type ProjectConfig struct {
	// Path is the project root (default: current directory).
	Path string `yaml:"path"`
	// Workers bounds per-file parse parallelism (0 = all cores).
	Workers int `yaml:"workers"`
}

// ScanConfig controls source file discovery.
type ScanConfig struct {
	// Include globs, matched against root-relative paths.
	Include []string `yaml:"include"`
	// Exclude globs, applied after includes.
	Exclude []string `yaml:"exclude"`
	// Specs keeps *.spec.ts files in the parse set.
	Specs bool `yaml:"specs"`
}

// ChunksConfig controls documentation chunk generation.
type ChunksConfig struct {
	// Detail is the rendering level: overview, features, detailed, complete.
	Detail string `yaml:"detail"`
	// MaxTokens is the per-chunk token budget.
	MaxTokens int `yaml:"maxTokens"`
}

// OutputConfig controls artifact persistence.
type OutputConfig struct {
	// Dir is the artifact directory.
	Dir string `yaml:"dir"`
}

// NATSConfig configures graph streaming. Empty URL disables it.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is how long to coalesce changes before rebuilding.
	Debounce time.Duration `yaml:"debounce"`
}

// MetricsConfig configures the metrics endpoint in watch mode.
type MetricsConfig struct {
	// Addr is the listen address; empty disables the endpoint.
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{Path: ""},
		Chunks: ChunksConfig{
			Detail:    string(chunk.DetailDetailed),
			MaxTokens: chunk.DefaultMaxTokens,
		},
		Output: OutputConfig{Dir: "angraph-out"},
		Watch:  WatchConfig{Debounce: 300 * time.Millisecond},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !chunk.DetailLevel(c.Chunks.Detail).Valid() {
		return fmt.Errorf("chunks.detail %q is not one of overview, features, detailed, complete", c.Chunks.Detail)
	}
	if c.Chunks.MaxTokens <= 0 {
		return fmt.Errorf("chunks.maxTokens must be positive")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return config, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Merge overlays another config; non-zero values in other win.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Project.Path != "" {
		c.Project.Path = other.Project.Path
	}
	if other.Project.Workers != 0 {
		c.Project.Workers = other.Project.Workers
	}

	if len(other.Scan.Include) > 0 {
		c.Scan.Include = other.Scan.Include
	}
	if len(other.Scan.Exclude) > 0 {
		c.Scan.Exclude = other.Scan.Exclude
	}
	if other.Scan.Specs {
		c.Scan.Specs = true
	}

	if other.Chunks.Detail != "" {
		c.Chunks.Detail = other.Chunks.Detail
	}
	if other.Chunks.MaxTokens != 0 {
		c.Chunks.MaxTokens = other.Chunks.MaxTokens
	}

	if other.Output.Dir != "" {
		c.Output.Dir = other.Output.Dir
	}
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
}
