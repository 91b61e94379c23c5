package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tftpd.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServerConfigDefaults(t *testing.T) {
	path := writeConfig(t, `root = "/srv/tftp"`)

	cfg, err := loadServerConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Listen != "0.0.0.0" {
		t.Fatalf("unexpected listen: %q", cfg.Listen)
	}
	if cfg.Port != 69 {
		t.Fatalf("unexpected port: %d", cfg.Port)
	}
	if cfg.Root != "/srv/tftp" {
		t.Fatalf("unexpected root: %q", cfg.Root)
	}
	if cfg.ReadOnly || cfg.WriteOnly {
		t.Fatalf("expected both directions enabled: %+v", cfg)
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Timeout)
	}
}

func TestLoadServerConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
listen = "127.0.0.1"
port = 6969
root = "  /data/boot  "
read_only = true
timeout = "3s"
`)

	cfg, err := loadServerConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Listen != "127.0.0.1" {
		t.Fatalf("unexpected listen: %q", cfg.Listen)
	}
	if cfg.Port != 6969 {
		t.Fatalf("unexpected port: %d", cfg.Port)
	}
	if cfg.Root != "/data/boot" {
		t.Fatalf("unexpected root: %q", cfg.Root)
	}
	if !cfg.ReadOnly {
		t.Fatalf("expected read only")
	}
	if cfg.WriteOnly {
		t.Fatalf("expected write direction disabled only")
	}
	if cfg.Timeout != 3*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Timeout)
	}
}

func TestLoadServerConfigBadTimeout(t *testing.T) {
	path := writeConfig(t, `timeout = "soon"`)
	if _, err := loadServerConfig(path); err == nil {
		t.Fatal("expected error for unparsable timeout")
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	if _, err := loadServerConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
