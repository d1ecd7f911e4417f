// Package config provides configuration loading and structs for transmem.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/transmem/internal/kvstore"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug" toml:"debug"`
	Storage   StorageConfig   `yaml:"storage" toml:"storage"`
	Lookup    LookupConfig    `yaml:"lookup" toml:"lookup"`
	Tokenizer TokenizerConfig `yaml:"tokenizer" toml:"tokenizer"`
	Import    ImportConfig    `yaml:"import" toml:"import"`
}

// StorageConfig holds the translation memory location and engine.
type StorageConfig struct {
	RootPath string `yaml:"root_path" toml:"root_path"`
	Backend  string `yaml:"backend" toml:"backend"`
	// LegacyPath is an old root that migrate moves into RootPath.
	LegacyPath string `yaml:"legacy_path,omitempty" toml:"legacy_path,omitempty"`
}

// LookupConfig holds the fuzzy search tolerances.
type LookupConfig struct {
	MaxOmits *int `yaml:"max_omits" toml:"max_omits"`
	MaxDelta *int `yaml:"max_delta" toml:"max_delta"`
}

// TokenizerConfig holds the stop-word set.
type TokenizerConfig struct {
	StopWords []string `yaml:"stop_words" toml:"stop_words"`
}

// ImportConfig holds TMX import directory watch settings.
type ImportConfig struct {
	Directories    []string `yaml:"directories" toml:"directories"`
	Extensions     []string `yaml:"extensions" toml:"extensions"`
	Recursive      *bool    `yaml:"recursive" toml:"recursive"`
	SourceLanguage string   `yaml:"source_language" toml:"source_language"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *ImportConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.RootPath = expandPath(cfg.Storage.RootPath, configDir)
	if cfg.Storage.LegacyPath != "" {
		cfg.Storage.LegacyPath = expandPath(cfg.Storage.LegacyPath, configDir)
	}
	for i := range cfg.Import.Directories {
		cfg.Import.Directories[i] = expandPath(cfg.Import.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	if c.Lookup.MaxOmits != nil && *c.Lookup.MaxOmits < 0 {
		return fmt.Errorf("lookup.max_omits must not be negative")
	}
	if c.Lookup.MaxDelta != nil && *c.Lookup.MaxDelta < 0 {
		return fmt.Errorf("lookup.max_delta must not be negative")
	}
	if _, err := kvstore.ParseBackend(c.Storage.Backend); err != nil {
		return fmt.Errorf("invalid storage.backend: %w", err)
	}
	return nil
}

// Save writes the config to path, as TOML for .toml paths and YAML otherwise.
func Save(path string, cfg *Config) error {
	var data []byte
	if isTOML(path) {
		var b strings.Builder
		if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		data = []byte(b.String())
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// "~/" and other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
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
