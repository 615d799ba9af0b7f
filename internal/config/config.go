package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the directories and limits of a lint run. Every field can
// be set from a YAML file and overridden by the matching CLI flag.
type Config struct {
	ApplianceDir    string `yaml:"appliance_dir"`
	PackerDir       string `yaml:"packer_dir"`
	SymbolsDir      string `yaml:"symbols_dir"`
	SchemaDir       string `yaml:"schema_dir"`
	ImagesDir       string `yaml:"images_dir"`
	RegoPolicy      string `yaml:"rego_policy"`
	MaxSymbolHeight int    `yaml:"max_symbol_height"`
	LogLevel        string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		ApplianceDir:    "appliances",
		PackerDir:       "packer",
		SymbolsDir:      "symbols",
		SchemaDir:       "schemas",
		MaxSymbolHeight: 70,
		LogLevel:        "warn",
	}
}

// Load reads path on top of the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	// An empty file decodes to io.EOF and keeps every default.
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.MaxSymbolHeight <= 0 {
		return fmt.Errorf("max_symbol_height must be positive, got %d", c.MaxSymbolHeight)
	}
	return nil
}
