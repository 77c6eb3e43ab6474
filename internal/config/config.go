// Package config loads the server and indexer configuration from an
// optional YAML file and DOCINDEX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvConfigFile = "DOCINDEX_CONFIG"
	EnvDataDir    = "DOCINDEX_DATA_DIR"
	EnvSourceURL  = "DOCINDEX_SOURCE_URL"
	EnvBaseURL    = "DOCINDEX_BASE_URL"
	EnvLogLevel   = "DOCINDEX_LOG_LEVEL"
	EnvLogFormat  = "DOCINDEX_LOG_FORMAT"
	EnvStrict     = "DOCINDEX_STRICT"
)

// DefaultSourceName is used for a source given only through DOCINDEX_SOURCE_URL.
const DefaultSourceName = "default"

var sourceNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Config is the complete configuration.
type Config struct {
	// DataDir holds downloaded sources and the search index. Empty means
	// resolve with ResolveDataDir.
	DataDir string `yaml:"data_dir"`

	Sources []Source `yaml:"sources"`

	// CacheTTL is how old downloaded sources may get before a refresh
	// is suggested.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// HTTPTimeout bounds each source download.
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// FetchConcurrency bounds parallel source downloads.
	FetchConcurrency int `yaml:"fetch_concurrency"`

	DefaultResults int `yaml:"default_results"`
	MaxResults     int `yaml:"max_results"`

	// Strict rejects docstring categories when validating sources.
	Strict bool `yaml:"strict"`

	// KeepMeta indexes @meta residue records.
	KeepMeta bool `yaml:"keep_meta"`

	Logging LoggingConfig `yaml:"logging"`
}

// Source is one documentation site.
type Source struct {
	Name string `yaml:"name"`

	// URL of the site's search_index.js.
	URL string `yaml:"url"`

	// BaseURL is the site root used to build links. Derived from URL when
	// empty.
	BaseURL string `yaml:"base_url"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// DefaultConfig returns the built-in defaults. No remote source is
// configured; the server runs on the index embedded in the binary.
func DefaultConfig() *Config {
	return &Config{
		CacheTTL:         7 * 24 * time.Hour,
		HTTPTimeout:      30 * time.Second,
		FetchConcurrency: 4,
		DefaultResults:   10,
		MaxResults:       20,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// ConfigFileName is the implicit config file inside the per-user data
// directory.
const ConfigFileName = "config.yaml"

// Overrides are command-line values applied over the file and the
// environment, before validation. Empty fields are ignored.
type Overrides struct {
	DataDir   string
	LogLevel  string
	LogFormat string
}

// DefaultPath returns ~/.docindex-mcp/config.yaml, or "" without a home
// directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DataDirName, ConfigFileName)
}

// Load reads the YAML file at path, applies environment overrides, and
// validates the result. An explicit path must exist. An empty path reads
// DefaultPath when that file exists and yields defaults otherwise.
func Load(path string) (*Config, error) {
	return LoadWithOverrides(path, Overrides{})
}

// LoadWithOverrides is Load with command-line overrides applied last.
func LoadWithOverrides(path string, o Overrides) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyOverrides(o)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by DOCINDEX_CONFIG, if any.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(EnvConfigFile))
}

func (c *Config) applyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Logging.Format = o.LogFormat
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvSourceURL); v != "" {
		src := Source{Name: DefaultSourceName, URL: v, BaseURL: os.Getenv(EnvBaseURL)}
		replaced := false
		for i := range c.Sources {
			if c.Sources[i].Name == DefaultSourceName {
				c.Sources[i] = src
				replaced = true
			}
		}
		if !replaced {
			c.Sources = append(c.Sources, src)
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv(EnvStrict); v != "" {
		if strict, err := strconv.ParseBool(v); err == nil {
			c.Strict = strict
		}
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	seen := make(map[string]bool)
	for i, src := range c.Sources {
		if !sourceNameRegex.MatchString(src.Name) {
			errs = append(errs, fmt.Errorf("sources[%d]: name %q must match %s", i, src.Name, sourceNameRegex))
		}
		if seen[src.Name] {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate name %q", i, src.Name))
		}
		seen[src.Name] = true

		if err := checkHTTPURL(src.URL); err != nil {
			errs = append(errs, fmt.Errorf("sources[%d]: url: %w", i, err))
		}
		if src.BaseURL != "" {
			if err := checkHTTPURL(src.BaseURL); err != nil {
				errs = append(errs, fmt.Errorf("sources[%d]: base_url: %w", i, err))
			}
		}
	}

	if c.CacheTTL <= 0 {
		errs = append(errs, errors.New("cache_ttl must be positive"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("http_timeout must be positive"))
	}
	if c.FetchConcurrency < 1 {
		errs = append(errs, errors.New("fetch_concurrency must be at least 1"))
	}
	if c.MaxResults < 1 {
		errs = append(errs, errors.New("max_results must be at least 1"))
	}
	if c.DefaultResults < 1 || c.DefaultResults > c.MaxResults {
		errs = append(errs, fmt.Errorf("default_results must be between 1 and max_results (%d)", c.MaxResults))
	}
	if c.Logging.Level != "" {
		if _, err := zapcore.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
			errs = append(errs, fmt.Errorf("logging.level %q must be debug, info, warn or error", c.Logging.Level))
		}
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q must be json or console", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must be an http or https URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

// Source returns the source with the given name.
func (c *Config) Source(name string) (Source, bool) {
	for _, src := range c.Sources {
		if src.Name == name {
			return src, true
		}
	}
	return Source{}, false
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ResolvedBaseURL returns BaseURL, or the directory of URL since the
// generator writes search_index.js at the site root.
func (s Source) ResolvedBaseURL() string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	u, err := url.Parse(s.URL)
	if err != nil || u.Host == "" {
		return ""
	}
	if i := strings.LastIndex(u.Path, "/"); i >= 0 {
		u.Path = u.Path[:i+1]
	} else {
		u.Path = "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
