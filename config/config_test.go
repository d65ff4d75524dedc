package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := DefaultConfig()
	if cfg.API != want.API || cfg.Cart != want.Cart || cfg.Agent != want.Agent {
		t.Errorf("got %+v, want defaults %+v", cfg, want)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, `
api:
  base_url: http://shop.internal:3000
  timeout: 5s
cart:
  push_window: 250ms
session:
  token: abc
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://shop.internal:3000" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.API.Timeout)
	}
	if cfg.Cart.PushWindow != 250*time.Millisecond {
		t.Errorf("PushWindow = %v", cfg.Cart.PushWindow)
	}
	if cfg.Session.Token != "abc" {
		t.Errorf("Token = %q", cfg.Session.Token)
	}
	// Unset sections keep their defaults.
	if cfg.Catalog.BaseURL != "https://fakestoreapi.com" {
		t.Errorf("Catalog.BaseURL = %q", cfg.Catalog.BaseURL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "api:\n  base_url: http://from-file:3000\n")
	t.Setenv("STOREFRONT_API_BASE_URL", "http://from-env:3000")
	t.Setenv("STOREFRONT_CART_PUSH_WINDOW", "2s")
	t.Setenv("STOREFRONT_SESSION_TOKEN", "env-token")
	t.Setenv("STOREFRONT_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "http://from-env:3000" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Cart.PushWindow != 2*time.Second {
		t.Errorf("PushWindow = %v", cfg.Cart.PushWindow)
	}
	if cfg.Session.Token != "env-token" {
		t.Errorf("Token = %q", cfg.Session.Token)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "api: [unclosed")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Errorf("Load error = %v", err)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("STOREFRONT_API_TIMEOUT", "soon")
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for unparseable duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no api url", func(c *Config) { c.API.BaseURL = "" }},
		{"no catalog url", func(c *Config) { c.Catalog.BaseURL = "" }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"negative window", func(c *Config) { c.Cart.PushWindow = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Session.Token = "saved-token"
	cfg.Cart.PushWindow = 3 * time.Second

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Session.Token != "saved-token" || loaded.Cart.PushWindow != 3*time.Second {
		t.Errorf("round trip lost settings: %+v", loaded)
	}
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv("TEST_STOREFRONT_CFG", "/tmp/x.yaml")
	if got := PathFromEnv("TEST_STOREFRONT_CFG", "default.yaml"); got != "/tmp/x.yaml" {
		t.Errorf("got %q", got)
	}
	if got := PathFromEnv("TEST_STOREFRONT_CFG_UNSET", "default.yaml"); got != "default.yaml" {
		t.Errorf("got %q", got)
	}
}
