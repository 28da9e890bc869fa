package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeClientConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadClientConfigDefaultsAndOverrides(t *testing.T) {
	cfg, err := loadClientConfig(writeClientConfig(t, `
port = 21000
prefix_sums = true
reply_timeout = "1500ms"
`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != 21000 {
		t.Fatalf("unexpected port: %d", cfg.Port)
	}
	if !cfg.Exchange.PrefixSums {
		t.Fatalf("expected prefix sums enabled")
	}
	if cfg.Exchange.ReplyTimeout != 1500*time.Millisecond {
		t.Fatalf("unexpected reply timeout: %v", cfg.Exchange.ReplyTimeout)
	}
}

func TestLoadClientConfigReplyTimeoutMillisWins(t *testing.T) {
	cfg, err := loadClientConfig(writeClientConfig(t, `
reply_timeout = "3s"
reply_timeout_ms = 400
`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Exchange.ReplyTimeout != 400*time.Millisecond {
		t.Fatalf("expected reply_timeout_ms to override, got %v", cfg.Exchange.ReplyTimeout)
	}
}

func TestLoadClientConfigUndefinedKeysKeepDefaults(t *testing.T) {
	cfg, err := loadClientConfig(writeClientConfig(t, `reply_timeout_ms = 250`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != 20000 {
		t.Fatalf("expected default port, got %d", cfg.Port)
	}
	if cfg.Exchange.PrefixSums {
		t.Fatalf("expected prefix sums disabled by default")
	}
	if cfg.Exchange.ReplyTimeout != 250*time.Millisecond {
		t.Fatalf("unexpected reply timeout: %v", cfg.Exchange.ReplyTimeout)
	}
}

func TestLoadClientConfigRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"port range":       `port = 70000`,
		"bad duration":     `reply_timeout = "soon"`,
		"negative timeout": `reply_timeout = "-1s"`,
		"bad toml":         `port = `,
	}
	for name, body := range cases {
		if _, err := loadClientConfig(writeClientConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := loadClientConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
