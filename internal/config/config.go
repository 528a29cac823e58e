// Package config loads and validates the dompile.yaml project
// configuration and resolves its directory roots to absolute paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	dmerrors "github.com/dompile/cli/internal/errors"
)

// DefaultFileName is the configuration file looked up in the project
// root when no explicit path is given.
const DefaultFileName = "dompile.yaml"

// Config represents the project configuration
type Config struct {
	Source        string `yaml:"source"`
	Output        string `yaml:"output"`
	LayoutsDir    string `yaml:"layouts_dir"`
	ComponentsDir string `yaml:"components_dir"`
	DefaultLayout string `yaml:"default_layout"`
	PrettyURLs    bool   `yaml:"pretty_urls"`
	Workers       int    `yaml:"workers"`
	CacheFile     string `yaml:"cache_file"`

	Site   SiteConfig   `yaml:"site"`
	Server ServerConfig `yaml:"server"`
}

// SiteConfig carries site-wide metadata used by layouts and the
// sitemap emitter.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
}

// ServerConfig configures the development server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Roots holds the absolute form of every configured directory. The
// resolver and build driver only ever see absolute paths.
type Roots struct {
	Source     string
	Output     string
	Layouts    string
	Components string
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads a YAML configuration file, applies defaults and
// environment overrides, and validates the result. A missing file is
// not an error: the defaults are returned so a bare source tree can be
// built without any configuration at all.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied config path
	switch {
	case os.IsNotExist(err):
		// fall through to defaults
	case err != nil:
		return nil, dmerrors.NewConfigError(fmt.Sprintf("read config %s", path), err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, dmerrors.NewConfigError(fmt.Sprintf("parse config %s", path), err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Source == "" {
		c.Source = "src"
	}
	if c.Output == "" {
		c.Output = "dist"
	}
	if c.LayoutsDir == "" {
		c.LayoutsDir = ".layouts"
	}
	if c.ComponentsDir == "" {
		c.ComponentsDir = ".components"
	}
	if c.DefaultLayout == "" {
		c.DefaultLayout = "default.html"
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.CacheFile == "" {
		c.CacheFile = filepath.Join(".dompile", "cache.db")
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
}

// applyEnvOverrides lets a .env / environment set deploy-specific
// values without editing the checked-in configuration.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOMPILE_BASE_URL"); v != "" {
		c.Site.BaseURL = v
	}
	if v := os.Getenv("DOMPILE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("DOMPILE_OUTPUT"); v != "" {
		c.Output = v
	}
}

// Validate checks structural constraints that do not require touching
// the file system.
func (c *Config) Validate() error {
	if c.Source == c.Output {
		return dmerrors.NewConfigError("source and output directories must differ", nil)
	}
	if c.Workers < 1 || c.Workers > 64 {
		return dmerrors.NewConfigError(fmt.Sprintf("workers must be between 1 and 64, got %d", c.Workers), nil)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return dmerrors.NewConfigError(fmt.Sprintf("invalid port %d", c.Server.Port), nil)
	}
	return nil
}

// ResolveRoots resolves the configured directories against baseDir
// (normally the directory holding the config file) into absolute
// paths. The layouts and components directories are relative to the
// source root.
func (c *Config) ResolveRoots(baseDir string) (*Roots, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, dmerrors.NewConfigError("resolve project directory", err)
	}

	join := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(abs, p)
	}
	source := join(c.Source)

	joinSource := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(source, p)
	}

	return &Roots{
		Source:     source,
		Output:     join(c.Output),
		Layouts:    joinSource(c.LayoutsDir),
		Components: joinSource(c.ComponentsDir),
	}, nil
}
