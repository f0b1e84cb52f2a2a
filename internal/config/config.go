// Package config provides configuration loading and structs for the tsunagu server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog sources.
const (
	SourceEmbedded = "embedded"
	SourceYAML     = "yaml"
	SourceSQLite   = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Catalog CatalogConfig `yaml:"catalog"`
	Storage StorageConfig `yaml:"storage"`
	Locales LocalesConfig `yaml:"locales"`
	Search  SearchConfig  `yaml:"search"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CatalogConfig selects where scripture records come from.
// Source is one of embedded, yaml (DataDir) or sqlite (Storage.DatabasePath).
type CatalogConfig struct {
	Source  string `yaml:"source"`
	DataDir string `yaml:"data_dir"`
}

// StorageConfig holds the SQLite snapshot path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LocalesConfig holds translation file settings.
type LocalesConfig struct {
	Dir           string   `yaml:"dir"`
	FragmentsDir  string   `yaml:"fragments_dir"`
	Languages     []string `yaml:"languages"`
	DefaultLocale string   `yaml:"default_locale"`
	// DebounceMillis is how long a fragment file must be quiet before it is merged.
	DebounceMillis int `yaml:"debounce_ms"`
}

// SearchConfig holds topic search settings.
type SearchConfig struct {
	DefaultLimit int     `yaml:"default_limit"`
	MaxLimit     int     `yaml:"max_limit"`
	TitleBoost   float64 `yaml:"title_boost"`
	Fuzziness    int     `yaml:"fuzziness"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	cfg.expandPaths(filepath.Dir(path))
	return &cfg, nil
}

// Default returns the default configuration with "./" paths resolved against dir.
// It is used when no config file exists.
func Default(dir string) *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.expandPaths(dir)
	return cfg
}

func (c *Config) expandPaths(dir string) {
	c.Catalog.DataDir = expandPath(c.Catalog.DataDir, dir)
	c.Storage.DatabasePath = expandPath(c.Storage.DatabasePath, dir)
	c.Locales.Dir = expandPath(c.Locales.Dir, dir)
	c.Locales.FragmentsDir = expandPath(c.Locales.FragmentsDir, dir)
}

// Validate reports settings that defaults cannot repair.
func Validate(cfg *Config) error {
	switch cfg.Catalog.Source {
	case SourceEmbedded:
	case SourceYAML:
		if cfg.Catalog.DataDir == "" {
			return fmt.Errorf("catalog source %q requires catalog.data_dir", SourceYAML)
		}
	case SourceSQLite:
	default:
		return fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
	if cfg.Search.DefaultLimit > cfg.Search.MaxLimit {
		return fmt.Errorf("search.default_limit (%d) exceeds search.max_limit (%d)", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// "~/" and other relative paths are relative to the home directory. Empty stays empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	path = strings.TrimPrefix(path, "~/")
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
