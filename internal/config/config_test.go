package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "applint.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ApplianceDir != "appliances" || cfg.PackerDir != "packer" || cfg.SymbolsDir != "symbols" {
		t.Fatalf("unexpected directory defaults: %+v", cfg)
	}
	if cfg.SchemaDir != "schemas" {
		t.Errorf("SchemaDir = %q", cfg.SchemaDir)
	}
	if cfg.MaxSymbolHeight != 70 {
		t.Errorf("MaxSymbolHeight = %d, want 70", cfg.MaxSymbolHeight)
	}
	if cfg.ImagesDir != "" || cfg.RegoPolicy != "" {
		t.Errorf("optional checks should be disabled by default: %+v", cfg)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `appliance_dir: registry/appliances
symbols_dir: registry/symbols
max_symbol_height: 64
rego_policy: policy/appliance.rego
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ApplianceDir != "registry/appliances" {
		t.Errorf("ApplianceDir = %q", cfg.ApplianceDir)
	}
	if cfg.SymbolsDir != "registry/symbols" {
		t.Errorf("SymbolsDir = %q", cfg.SymbolsDir)
	}
	if cfg.PackerDir != "packer" {
		t.Errorf("PackerDir should keep default, got %q", cfg.PackerDir)
	}
	if cfg.MaxSymbolHeight != 64 {
		t.Errorf("MaxSymbolHeight = %d", cfg.MaxSymbolHeight)
	}
	if cfg.RegoPolicy != "policy/appliance.rego" {
		t.Errorf("RegoPolicy = %q", cfg.RegoPolicy)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Fatalf("empty config should equal defaults, got %+v", cfg)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "appliance_directory: x\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_InvalidHeight(t *testing.T) {
	_, err := Load(writeConfig(t, "max_symbol_height: 0\n"))
	if err == nil {
		t.Fatal("expected error for zero height")
	}
	if !strings.Contains(err.Error(), "max_symbol_height") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "read config") {
		t.Fatalf("unexpected error: %v", err)
	}
}
