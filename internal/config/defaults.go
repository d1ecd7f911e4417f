package config

import (
	"github.com/hyperjump/transmem/internal/search"
	"github.com/hyperjump/transmem/internal/tokenizer"
	"github.com/hyperjump/transmem/internal/transmem"
)

// DefaultPath is where the CLI looks for a config file when none is given.
const DefaultPath = "~/.config/transmem/config.yaml"

// Default returns a config with every default applied and no file behind it.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Storage.RootPath == "" {
		if root, err := transmem.DefaultRoot(); err == nil {
			cfg.Storage.RootPath = root
		} else {
			cfg.Storage.RootPath = "./TM"
		}
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "bolt"
	}
	if cfg.Lookup.MaxOmits == nil {
		v := search.DefaultMaxOmits
		cfg.Lookup.MaxOmits = &v
	}
	if cfg.Lookup.MaxDelta == nil {
		v := search.DefaultMaxDelta
		cfg.Lookup.MaxDelta = &v
	}
	// An explicitly empty list disables stop words.
	if cfg.Tokenizer.StopWords == nil {
		cfg.Tokenizer.StopWords = append([]string(nil), tokenizer.DefaultStopWords...)
	}
	if cfg.Import.Extensions == nil {
		cfg.Import.Extensions = []string{".tmx"}
	}
	if cfg.Import.SourceLanguage == "" {
		cfg.Import.SourceLanguage = "en"
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Import.Directories) > 0 && cfg.Import.Recursive == nil {
		t := true
		cfg.Import.Recursive = &t
	}
}

// Params returns the configured fuzzy tolerances.
func (c *Config) Params() search.Params {
	p := search.DefaultParams()
	if c.Lookup.MaxOmits != nil {
		p.MaxOmits = *c.Lookup.MaxOmits
	}
	if c.Lookup.MaxDelta != nil {
		p.MaxDelta = *c.Lookup.MaxDelta
	}
	return p
}
