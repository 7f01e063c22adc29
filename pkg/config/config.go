package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for genii.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis" yaml:"analysis"`

	// Thresholds for reporting
	Thresholds ThresholdConfig `koanf:"thresholds" toml:"thresholds" yaml:"thresholds"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" yaml:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache" yaml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" yaml:"output"`
}

// AnalysisConfig controls the complexity engine and module discovery.
type AnalysisConfig struct {
	// Exceptions counts every except handler as a decision point.
	Exceptions bool `koanf:"exceptions" toml:"exceptions" yaml:"exceptions"`
	// ReturnPolicy is "all" or "nested".
	ReturnPolicy string `koanf:"return_policy" toml:"return_policy" yaml:"return_policy"`
	// SkipDunder skips modules such as __init__.py.
	SkipDunder bool `koanf:"skip_dunder" toml:"skip_dunder" yaml:"skip_dunder"`
	Recursive  bool `koanf:"recursive" toml:"recursive" yaml:"recursive"`
	// Workers bounds parallel parsing (0 = 2x NumCPU).
	Workers int `koanf:"workers" toml:"workers" yaml:"workers"`
}

// ThresholdConfig defines metric thresholds.
type ThresholdConfig struct {
	Complexity int `koanf:"complexity" toml:"complexity" yaml:"complexity"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns" yaml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs" yaml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore" yaml:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled" yaml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir" yaml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl" yaml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" yaml:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color" yaml:"color"`
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Exceptions:   false,
			ReturnPolicy: "all",
			SkipDunder:   true,
			Recursive:    false,
		},
		Thresholds: ThresholdConfig{
			Complexity: 7,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{},
			Dirs: []string{
				".git",
				".genii",
				"__pycache__",
				".venv",
				"venv",
				".tox",
				"build",
				"dist",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ".genii/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

var (
	validFormats  = []string{"text", "json", "markdown", "toon"}
	validPolicies = []string{"all", "nested"}
)

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if !containsFold(validPolicies, c.Analysis.ReturnPolicy) {
		return &ConfigError{Field: "analysis.return_policy", Reason: fmt.Sprintf("%q is not one of %s", c.Analysis.ReturnPolicy, strings.Join(validPolicies, ", "))}
	}
	if c.Analysis.Workers < 0 {
		return &ConfigError{Field: "analysis.workers", Reason: "must not be negative"}
	}
	if c.Thresholds.Complexity < 0 {
		return &ConfigError{Field: "thresholds.complexity", Reason: "must not be negative"}
	}
	if !containsFold(validFormats, c.Output.Format) {
		return &ConfigError{Field: "output.format", Reason: fmt.Sprintf("%q is not one of %s", c.Output.Format, strings.Join(validFormats, ", "))}
	}
	if c.Cache.Enabled {
		if c.Cache.Dir == "" {
			return &ConfigError{Field: "cache.dir", Reason: "required when the cache is enabled"}
		}
		if c.Cache.TTL <= 0 {
			return &ConfigError{Field: "cache.ttl", Reason: "must be positive"}
		}
	}
	return nil
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return cfg, nil
}

// configNames are searched in order inside each search directory.
var configNames = []string{
	"genii.toml",
	"genii.yaml",
	"genii.yml",
	"genii.json",
	".genii.toml",
	".genii.yaml",
	".genii.yml",
	".genii.json",
}

// searchDirs are relative to the working directory.
var searchDirs = []string{".", ".genii"}

// FindConfigFile returns the first config file found in the standard
// locations, or "" when there is none.
func FindConfigFile() string {
	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	if path := FindConfigFile(); path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	return DefaultConfig()
}

// LoadResult is a loaded configuration and where it came from.
type LoadResult struct {
	Config *Config
	// Source is the file the config was read from, or "" for defaults.
	Source string
}

type loadOptions struct {
	path string
}

// LoadOption customises LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads from an explicit file instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// LoadConfig loads and validates configuration. Without WithPath the
// standard locations are searched; if none exists the defaults are used.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	path := o.path
	if path == "" {
		path = FindConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	result := &LoadResult{Config: DefaultConfig(), Source: path}
	if path != "" {
		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		result.Config = cfg
	}

	if err := result.Config.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ShouldExclude checks if a path should be excluded from analysis by the
// configured directory names and base-name patterns.
func (c *Config) ShouldExclude(path string) bool {
	clean := filepath.ToSlash(filepath.Clean(path))
	parts := strings.Split(clean, "/")

	// Check directory exclusions against every parent component.
	for _, dir := range c.Exclude.Dirs {
		for _, part := range parts[:len(parts)-1] {
			if part == dir {
				return true
			}
		}
	}

	// Check pattern exclusions
	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
