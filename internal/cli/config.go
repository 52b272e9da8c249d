package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/astra/pkg/palette"
	"github.com/matzehuels/astra/pkg/pipeline"
)

// defaultAddr is the listen address of "astra serve" when none is configured.
const defaultAddr = "localhost:8080"

// Config is the TOML configuration file.
//
//	[defaults]
//	palette = "Pastel"
//	strict = false
//	highlight = "auto"
//
//	[server]
//	addr = ":8080"
//	redis = "redis://localhost:6379/0"
//
//	[palettes.Forest]
//	background = "#1B2B1B"
//	individual = "#E0F0E0"
//	root = "#FF6F3C"
//	ancestor = "#9BC53D"
//	highlight = "#5BC0EB"
type Config struct {
	Defaults DefaultsConfig             `toml:"defaults"`
	Server   ServerConfig               `toml:"server"`
	Palettes map[string]palette.Palette `toml:"palettes"`

	// registry holds the built-in palettes plus the ones declared above.
	registry *palette.Registry
	path     string
}

// DefaultsConfig holds option defaults shared by graph, pick and serve.
type DefaultsConfig struct {
	Palette       string `toml:"palette"`
	Highlight     string `toml:"highlight"`
	Strict        bool   `toml:"strict"`
	SkipAncestors bool   `toml:"skip_ancestors"`
	SkipLayout    bool   `toml:"skip_layout"`
}

// ServerConfig configures "astra serve".
type ServerConfig struct {
	Addr  string `toml:"addr"`
	Redis string `toml:"redis"`
}

func defaultConfig() *Config {
	return &Config{registry: palette.NewRegistry()}
}

// Registry returns the palettes available to commands.
func (c *Config) Registry() *palette.Registry {
	if c.registry == nil {
		c.registry = palette.NewRegistry()
	}
	return c.registry
}

// Path returns the file the config was read from, or "" for defaults.
func (c *Config) Path() string {
	return c.path
}

// Addr returns the configured listen address.
func (c *Config) Addr() string {
	if c.Server.Addr != "" {
		return c.Server.Addr
	}
	return defaultAddr
}

// apply copies the configured defaults into opts. Explicit values already in
// opts are kept.
func (c *Config) apply(opts *pipeline.Options) {
	opts.Palettes = c.Registry()
	if opts.Palette == "" {
		opts.Palette = c.Defaults.Palette
	}
	if opts.Highlight == "" {
		opts.Highlight = c.Defaults.Highlight
	}
	opts.Strict = opts.Strict || c.Defaults.Strict
	opts.SkipAncestors = opts.SkipAncestors || c.Defaults.SkipAncestors
	opts.SkipLayout = opts.SkipLayout || c.Defaults.SkipLayout
}

// defaultConfigPath returns $XDG_CONFIG_HOME/astra/config.toml.
func defaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// loadConfig reads the config file at path. An empty path reads the default
// location, where a missing file is not an error.
func loadConfig(path string, logger *log.Logger) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := defaultConfigPath()
		if err != nil {
			return defaultConfig(), nil
		}
		path = p
	}

	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.path = path

	if undecoded := md.Undecoded(); len(undecoded) > 0 && logger != nil {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		logger.Warn("unknown config keys ignored", "file", path, "keys", strings.Join(keys, ", "))
	}

	if err := cfg.registerPalettes(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if cfg.Defaults.Palette != "" {
		if _, err := cfg.registry.Lookup(cfg.Defaults.Palette); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// registerPalettes validates the [palettes.*] tables and adds them to the
// registry in name order.
func (c *Config) registerPalettes() error {
	names := make([]string, 0, len(c.Palettes))
	for name := range c.Palettes {
		names = append(names, name)
	}
	slices.Sort(names)

	reg := c.Registry()
	for _, name := range names {
		p := c.Palettes[name]
		p.Name = name
		if err := p.Validate(); err != nil {
			return err
		}
		if err := reg.Add(p); err != nil {
			return err
		}
	}
	return nil
}
