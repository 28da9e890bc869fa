package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServerConfigMissingFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.toml")
	cfg, err := LoadServerConfig(path, false)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != DefaultListenAddr || cfg.Workers != 1 || !cfg.WithPrefixSums() {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if _, err := LoadServerConfig(path, true); err == nil {
		t.Fatalf("expected error for required missing config")
	}
}

func TestLoadServerConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
name = "sum-a"
listen_addr = "127.0.0.1:21000"
prefix_sums = false
workers = 4
admin_addr = "127.0.0.1:7020"
cors_origins = ["http://localhost:3000"]
`)
	cfg, err := LoadServerConfig(path, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "sum-a" {
		t.Fatalf("unexpected name: %q", cfg.Name)
	}
	if cfg.ListenAddr != "127.0.0.1:21000" {
		t.Fatalf("unexpected listen addr: %q", cfg.ListenAddr)
	}
	if cfg.WithPrefixSums() {
		t.Fatalf("expected prefix sums disabled")
	}
	if cfg.Workers != 4 {
		t.Fatalf("unexpected workers: %d", cfg.Workers)
	}
	if cfg.AdminAddr != "127.0.0.1:7020" {
		t.Fatalf("unexpected admin addr: %q", cfg.AdminAddr)
	}
	if len(cfg.CorsOrigins) != 1 {
		t.Fatalf("unexpected cors origins: %v", cfg.CorsOrigins)
	}
}

func TestLoadServerConfigKeepsUnsetDefaults(t *testing.T) {
	path := writeConfig(t, `workers = 2`)
	cfg, err := LoadServerConfig(path, true)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != DefaultServerName || cfg.ListenAddr != DefaultListenAddr || !cfg.WithPrefixSums() {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadServerConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad workers": `workers = -1`,
		"bad listen":  `listen_addr = "nope"`,
		"bad admin":   `admin_addr = "127.0.0.1"`,
		"bad toml":    `workers = [`,
	}
	for name, body := range cases {
		if _, err := LoadServerConfig(writeConfig(t, body), true); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
