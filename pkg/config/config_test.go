package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.Analysis.Exceptions {
		t.Error("Analysis.Exceptions should be false by default")
	}
	if cfg.Analysis.ReturnPolicy != "all" {
		t.Errorf("Analysis.ReturnPolicy = %q, want all", cfg.Analysis.ReturnPolicy)
	}
	if !cfg.Analysis.SkipDunder {
		t.Error("Analysis.SkipDunder should be true by default")
	}
	if cfg.Analysis.Recursive {
		t.Error("Analysis.Recursive should be false by default")
	}

	if cfg.Thresholds.Complexity != 7 {
		t.Errorf("Thresholds.Complexity = %d, want 7", cfg.Thresholds.Complexity)
	}

	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if len(cfg.Exclude.Dirs) == 0 {
		t.Error("Exclude.Dirs should have default values")
	}

	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be false by default")
	}
	if cfg.Cache.TTL != 24 {
		t.Errorf("Cache.TTL = %d, want 24", cfg.Cache.TTL)
	}

	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}
	if !cfg.Output.Color {
		t.Error("Output.Color should be true by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "genii.toml")

	content := `
[analysis]
exceptions = true
return_policy = "nested"
recursive = true

[thresholds]
complexity = 10

[exclude]
dirs = ["vendor", "custom_exclude"]
patterns = ["*_pb2.py"]

[cache]
enabled = true

[output]
format = "json"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.True(t, cfg.Analysis.Exceptions)
	assert.Equal(t, "nested", cfg.Analysis.ReturnPolicy)
	assert.True(t, cfg.Analysis.Recursive)
	assert.True(t, cfg.Analysis.SkipDunder, "unset keys keep their defaults")
	assert.Equal(t, 10, cfg.Thresholds.Complexity)
	assert.Equal(t, []string{"vendor", "custom_exclude"}, cfg.Exclude.Dirs)
	assert.Equal(t, []string{"*_pb2.py"}, cfg.Exclude.Patterns)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, ".genii/cache", cfg.Cache.Dir)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "genii.yaml")

	content := `
analysis:
  skip_dunder: false
thresholds:
  complexity: 12
output:
  format: markdown
  color: false
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.False(t, cfg.Analysis.SkipDunder)
	assert.Equal(t, 12, cfg.Thresholds.Complexity)
	assert.Equal(t, "markdown", cfg.Output.Format)
	assert.False(t, cfg.Output.Color)
}

func TestLoadJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "genii.json")

	content := `{
  "analysis": {"workers": 4},
  "thresholds": {"complexity": 3},
  "output": {"format": "toon"}
}`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, 3, cfg.Thresholds.Complexity)
	assert.Equal(t, "toon", cfg.Output.Format)
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/genii.toml")
	assert.Error(t, err)
}

func TestLoadInvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "genii.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("this is [not valid toml"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad return policy", func(c *Config) { c.Analysis.ReturnPolicy = "depth" }, "analysis.return_policy"},
		{"negative workers", func(c *Config) { c.Analysis.Workers = -1 }, "analysis.workers"},
		{"negative threshold", func(c *Config) { c.Thresholds.Complexity = -1 }, "thresholds.complexity"},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"cache without dir", func(c *Config) { c.Cache.Enabled = true; c.Cache.Dir = "" }, "cache.dir"},
		{"cache without ttl", func(c *Config) { c.Cache.Enabled = true; c.Cache.TTL = 0 }, "cache.ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, IsConfigError(err))

			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestValidate_CaseInsensitive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analysis.ReturnPolicy = "Nested"
	cfg.Output.Format = "JSON"
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_WithPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[thresholds]\ncomplexity = 9\n"), 0644))

	result, err := LoadConfig(WithPath(configPath))
	require.NoError(t, err)
	assert.Equal(t, configPath, result.Source)
	assert.Equal(t, 9, result.Config.Thresholds.Complexity)
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "genii.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[analysis]\nreturn_policy = \"sometimes\"\n"), 0644))

	_, err := LoadConfig(WithPath(configPath))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestLoadConfig_MissingPath(t *testing.T) {
	_, err := LoadConfig(WithPath(filepath.Join(t.TempDir(), "nope.toml")))
	assert.Error(t, err)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	result, err := LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, result.Source)
	assert.Equal(t, DefaultConfig(), result.Config)
}

func TestLoadOrDefault(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := LoadOrDefault()
	require.NotNil(t, cfg)
	assert.Equal(t, 7, cfg.Thresholds.Complexity)
}

func TestLoadOrDefaultWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	require.NoError(t, os.MkdirAll(".genii", 0755))
	require.NoError(t, os.WriteFile(filepath.Join(".genii", "genii.yml"), []byte("thresholds:\n  complexity: 15\n"), 0644))

	assert.Equal(t, filepath.Join(".genii", "genii.yml"), FindConfigFile())
	cfg := LoadOrDefault()
	assert.Equal(t, 15, cfg.Thresholds.Complexity)
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Exclude.Patterns = []string{"*_pb2.py", "test_*.py"}

	tests := []struct {
		path     string
		excluded bool
	}{
		{"pkg/module.py", false},
		{"pkg/__pycache__/module.py", true},
		{".venv/lib/site.py", true},
		{"/abs/project/build/gen.py", true},
		{"pkg/messages_pb2.py", true},
		{"tests/test_parser.py", true},
		{"build.py", false},
		{"pkg/builder/x.py", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.excluded, cfg.ShouldExclude(tt.path))
		})
	}
}
