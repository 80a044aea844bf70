// Package config loads and validates the site configuration file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the conventional configuration filename at the site root.
const DefaultFile = "unify.yaml"

// Config is the full site configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Build   BuildConfig   `yaml:"build"`
	Scan    ScanConfig    `yaml:"scan"`
	Watch   WatchConfig   `yaml:"watch"`
	Serve   ServeConfig   `yaml:"serve"`
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig describes the source tree.
type SiteConfig struct {
	Root         string   `yaml:"root"`
	TemplateDirs []string `yaml:"template_dirs,omitempty"`
	Exclude      []string `yaml:"exclude,omitempty"`
}

// BuildConfig controls the composition pass.
type BuildConfig struct {
	Output        string `yaml:"output"`
	Clean         bool   `yaml:"clean"`
	PrettyURLs    bool   `yaml:"pretty_urls"`
	Cache         string `yaml:"cache,omitempty"` // path to cache db, "" disables
	MaxDepth      int    `yaml:"max_depth,omitempty"`
	MaxIterations int    `yaml:"max_iterations,omitempty"`
	GitMetadata   bool   `yaml:"git_metadata"`
}

// ScanConfig controls the security scanner.
type ScanConfig struct {
	Enabled bool `yaml:"enabled"`
	// FailOnError aborts builds when the scanner reports error-severity
	// findings.
	FailOnError bool `yaml:"fail_on_error"`
}

// WatchConfig controls the filesystem watcher.
type WatchConfig struct {
	DebounceMillis int `yaml:"debounce_ms,omitempty"`
	// FullRebuildMinutes schedules a periodic full rebuild as a safety
	// net for missed events. Zero disables it.
	FullRebuildMinutes int `yaml:"full_rebuild_minutes,omitempty"`
}

// ServeConfig controls the preview server.
type ServeConfig struct {
	Addr    string `yaml:"addr,omitempty"`
	Metrics bool   `yaml:"metrics"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug|info|warn|error
	Format string `yaml:"format,omitempty"` // text|json
}

// Load reads a configuration file, expands ${VAR} references from the
// environment (after loading .env when present), applies defaults, and
// validates. A missing path yields the defaults alone when path is "".
func Load(path string) (*Config, error) {
	// .env values never override the real environment.
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Site.Root == "" {
		c.Site.Root = "."
	}
	if len(c.Site.TemplateDirs) == 0 {
		c.Site.TemplateDirs = []string{"layouts", "components"}
	}
	if c.Build.Output == "" {
		c.Build.Output = "dist"
	}
	if c.Build.MaxDepth == 0 {
		c.Build.MaxDepth = 10
	}
	if c.Build.MaxIterations == 0 {
		c.Build.MaxIterations = 100
	}
	if c.Watch.DebounceMillis == 0 {
		c.Watch.DebounceMillis = 200
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.Build.MaxDepth < 1 {
		return fmt.Errorf("build.max_depth must be at least 1, got %d", c.Build.MaxDepth)
	}
	if c.Build.MaxIterations < 1 {
		return fmt.Errorf("build.max_iterations must be at least 1, got %d", c.Build.MaxIterations)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	if c.Build.Output == c.Site.Root {
		return fmt.Errorf("build.output must differ from site.root")
	}
	return nil
}
