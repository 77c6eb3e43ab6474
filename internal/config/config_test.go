package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvConfigFile, EnvDataDir, EnvSourceURL, EnvBaseURL, EnvLogLevel, EnvLogFormat, EnvStrict} {
		t.Setenv(key, "")
	}
	// Keep a real ~/.docindex-mcp/config.yaml out of the tests
	t.Setenv("HOME", t.TempDir())
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.Sources)
	assert.Equal(t, 7*24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 10, cfg.DefaultResults)
	assert.Equal(t, 20, cfg.MaxResults)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_DefaultPath(t *testing.T) {
	clearEnv(t)

	path := DefaultPath()
	require.NotEmpty(t, path)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), DataDirName, ConfigFileName), path)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("max_results: 40\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.MaxResults)
}

func TestLoadWithOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := LoadWithOverrides("", Overrides{DataDir: "/srv/docindex", LogLevel: "debug", LogFormat: "console"})
	require.NoError(t, err)
	assert.Equal(t, "/srv/docindex", cfg.DataDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)

	_, err = LoadWithOverrides("", Overrides{LogFormat: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")

	_, err = LoadWithOverrides("", Overrides{LogLevel: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "docindex.yaml")
	content := `
data_dir: /var/lib/docindex
cache_ttl: 24h
max_results: 50
strict: true
sources:
  - name: trixibase
    url: https://trixi-framework.github.io/TrixiBase.jl/stable/search_index.js
logging:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/docindex", cfg.DataDir)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 50, cfg.MaxResults)
	assert.Equal(t, 10, cfg.DefaultResults, "unset keys keep defaults")
	assert.True(t, cfg.Strict)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "trixibase", cfg.Sources[0].Name)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources: [unclosed"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDataDir, "/tmp/docindex")
	t.Setenv(EnvSourceURL, "https://docs.example.org/dev/search_index.js")
	t.Setenv(EnvBaseURL, "https://docs.example.org/dev/")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvStrict, "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/docindex", cfg.DataDir)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.True(t, cfg.Strict)

	src, ok := cfg.Source(DefaultSourceName)
	require.True(t, ok)
	assert.Equal(t, "https://docs.example.org/dev/search_index.js", src.URL)
	assert.Equal(t, "https://docs.example.org/dev/", src.BaseURL)
}

func TestLoad_EnvSourceReplacesDefault(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "docindex.yaml")
	content := `
sources:
  - name: default
    url: https://old.example.org/search_index.js
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv(EnvSourceURL, "https://new.example.org/search_index.js")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "https://new.example.org/search_index.js", cfg.Sources[0].URL)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "valid source",
			mutate: func(c *Config) {
				c.Sources = []Source{{Name: "docs", URL: "https://example.org/search_index.js"}}
			},
		},
		{
			name: "bad name",
			mutate: func(c *Config) {
				c.Sources = []Source{{Name: "Docs!", URL: "https://example.org/search_index.js"}}
			},
			wantErr: "name",
		},
		{
			name: "duplicate name",
			mutate: func(c *Config) {
				c.Sources = []Source{
					{Name: "docs", URL: "https://example.org/a/search_index.js"},
					{Name: "docs", URL: "https://example.org/b/search_index.js"},
				}
			},
			wantErr: "duplicate name",
		},
		{
			name: "non-http url",
			mutate: func(c *Config) {
				c.Sources = []Source{{Name: "docs", URL: "file:///tmp/search_index.js"}}
			},
			wantErr: "http or https",
		},
		{
			name: "bad base url",
			mutate: func(c *Config) {
				c.Sources = []Source{{Name: "docs", URL: "https://example.org/search_index.js", BaseURL: "ftp://example.org/"}}
			},
			wantErr: "base_url",
		},
		{
			name:    "zero ttl",
			mutate:  func(c *Config) { c.CacheTTL = 0 },
			wantErr: "cache_ttl",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.FetchConcurrency = 0 },
			wantErr: "fetch_concurrency",
		},
		{
			name:    "default above max",
			mutate:  func(c *Config) { c.DefaultResults = 30 },
			wantErr: "default_results",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:   "upper-case log level",
			mutate: func(c *Config) { c.Logging.Level = "WARN" },
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolvedBaseURL(t *testing.T) {
	tests := []struct {
		src  Source
		want string
	}{
		{Source{URL: "https://x.github.io/Pkg.jl/stable/search_index.js"}, "https://x.github.io/Pkg.jl/stable/"},
		{Source{URL: "https://x.github.io/search_index.js?v=2"}, "https://x.github.io/"},
		{Source{URL: "https://x.github.io"}, "https://x.github.io/"},
		{Source{URL: "https://x.github.io/a/search_index.js", BaseURL: "https://docs.x.org/"}, "https://docs.x.org/"},
		{Source{URL: "not a url"}, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.src.ResolvedBaseURL(), tt.src.URL)
	}
}

func TestSaveAndLoad(t *testing.T) {
	clearEnv(t)

	cfg := DefaultConfig()
	cfg.Sources = []Source{{Name: "docs", URL: "https://example.org/search_index.js"}}
	cfg.Strict = true

	path := filepath.Join(t.TempDir(), "nested", "docindex.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestResolveDataDir_Configured(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	cfg := DefaultConfig()
	cfg.DataDir = dir

	got, err := cfg.ResolveDataDir()
	require.NoError(t, err)
	assert.Equal(t, dir, got)
	assert.DirExists(t, filepath.Join(dir, SourcesDir))
	assert.DirExists(t, filepath.Join(dir, SearchDir))
}

func TestResolveDataDir_Home(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := DefaultConfig().ResolveDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, DataDirName), got)
}
