package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AEGIS_DIR", dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Dir != dir {
		t.Errorf("Dir = %q, want %q", cfg.Dir, dir)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("Backend = %q, want file", cfg.Storage.Backend)
	}
	if want := filepath.Join(dir, "key.key"); cfg.Storage.KeyFile != want {
		t.Errorf("KeyFile = %q, want %q", cfg.Storage.KeyFile, want)
	}
	if want := filepath.Join(dir, "vault.json"); cfg.Storage.VaultFile != want {
		t.Errorf("VaultFile = %q, want %q", cfg.Storage.VaultFile, want)
	}
	if want := filepath.Join(dir, "aegis_secret.txt"); cfg.Storage.TOTPFile != want {
		t.Errorf("TOTPFile = %q, want %q", cfg.Storage.TOTPFile, want)
	}
	if cfg.TOTP.Issuer != "AegisVault" || cfg.TOTP.Skew != 1 {
		t.Errorf("TOTP = %+v", cfg.TOTP)
	}
	if cfg.ServerAddr() != "127.0.0.1:7878" {
		t.Errorf("ServerAddr = %q", cfg.ServerAddr())
	}
	if cfg.Session.TTL != 15*time.Minute {
		t.Errorf("Session.TTL = %v", cfg.Session.TTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AEGIS_DIR", dir)
	t.Setenv("AEGIS_STORAGE_BACKEND", "bolt")
	t.Setenv("AEGIS_SERVER_PORT", "9090")
	t.Setenv("AEGIS_TOTP_ISSUER", "Home")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != "bolt" {
		t.Errorf("Backend = %q, want bolt", cfg.Storage.Backend)
	}
	if want := filepath.Join(dir, "vault.db"); cfg.Storage.VaultFile != want {
		t.Errorf("VaultFile = %q, want %q", cfg.Storage.VaultFile, want)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.TOTP.Issuer != "Home" {
		t.Errorf("Issuer = %q, want Home", cfg.TOTP.Issuer)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AEGIS_DIR", dir)

	path := filepath.Join(dir, "config.yaml")
	content := "key_file: /tmp/elsewhere.key\nsession:\n  ttl: 5m\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.KeyFile != "/tmp/elsewhere.key" {
		t.Errorf("KeyFile = %q", cfg.Storage.KeyFile)
	}
	if cfg.Session.TTL != 5*time.Minute {
		t.Errorf("Session.TTL = %v", cfg.Session.TTL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	t.Setenv("AEGIS_DIR", t.TempDir())
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestFromViper_Overrides(t *testing.T) {
	dir := t.TempDir()
	v := viper.New()
	v.Set("dir", dir)
	v.Set("storage.backend", "BOLT")

	cfg, err := FromViper(v, "")
	if err != nil {
		t.Fatalf("FromViper: %v", err)
	}
	if cfg.Storage.Backend != "bolt" {
		t.Errorf("Backend = %q, want bolt", cfg.Storage.Backend)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "sqlite" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, true},
		{"zero rate", func(c *Config) { c.RateLimit.Requests = 0 }, true},
		{"empty dir", func(c *Config) { c.Dir = "" }, true},
		{"zero cleanup interval", func(c *Config) { c.Security.CleanupInterval = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Dir:       "/tmp/aegis",
				Storage:   StorageConfig{Backend: "file"},
				Server:    ServerConfig{Port: 7878},
				Session:   SessionConfig{TTL: time.Minute},
				Security:  SecurityConfig{CleanupInterval: time.Minute},
				RateLimit: RateLimitConfig{Requests: 10, Window: time.Second},
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/x"); got != filepath.Join(home, "x") {
		t.Errorf("expandHome(~/x) = %q", got)
	}
	if got := expandHome("/abs"); got != "/abs" {
		t.Errorf("expandHome(/abs) = %q", got)
	}
}
