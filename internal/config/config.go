// Package config provides application configuration management.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. AEGIS_STORAGE_BACKEND.
const EnvPrefix = "AEGIS"

const (
	defaultDirName   = ".aegisvault"
	defaultKeyFile   = "key.key"
	defaultVaultFile = "vault.json"
	defaultBoltFile  = "vault.db"
	defaultTOTPFile  = "aegis_secret.txt"
)

// Config holds all application configuration.
type Config struct {
	Dir       string
	Storage   StorageConfig
	TOTP      TOTPConfig
	Log       LogConfig
	Server    ServerConfig
	Session   SessionConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
}

// StorageConfig locates the key, the vault and the second-factor secret.
type StorageConfig struct {
	Backend   string
	KeyFile   string
	VaultFile string
	TOTPFile  string
}

// TOTPConfig labels the provisioning URI and sets the verification window.
type TOTPConfig struct {
	Issuer  string
	Account string
	Skew    uint
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	MaxBodySize    int64
}

// SessionConfig controls bearer tokens minted by the HTTP API.
type SessionConfig struct {
	TTL time.Duration
}

// SecurityConfig holds login lockout and housekeeping settings.
type SecurityConfig struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	CleanupInterval  time.Duration
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Load reads configuration from defaults, an optional YAML file and the
// environment. cfgFile may be empty.
func Load(cfgFile string) (*Config, error) {
	return FromViper(viper.New(), cfgFile)
}

// FromViper is Load for a caller-owned viper instance, typically one with
// command-line flags already bound.
func FromViper(v *viper.Viper, cfgFile string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath(expandHome(v.GetString("dir")))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	dir := expandHome(v.GetString("dir"))
	backend := strings.ToLower(v.GetString("storage.backend"))

	cfg := &Config{Dir: dir}

	vaultFile := v.GetString("vault_file")
	if vaultFile == "" {
		vaultFile = defaultVaultFile
		if backend == "bolt" {
			vaultFile = defaultBoltFile
		}
	}
	cfg.Storage = StorageConfig{
		Backend:   backend,
		KeyFile:   resolve(dir, v.GetString("key_file")),
		VaultFile: resolve(dir, vaultFile),
		TOTPFile:  resolve(dir, v.GetString("totp_file")),
	}

	skew := v.GetInt("totp.skew")
	if skew < 0 {
		return nil, fmt.Errorf("totp.skew must not be negative")
	}
	cfg.TOTP = TOTPConfig{
		Issuer:  v.GetString("totp.issuer"),
		Account: v.GetString("totp.account"),
		Skew:    uint(skew),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	cfg.Server = ServerConfig{
		Host:           v.GetString("server.host"),
		Port:           v.GetInt("server.port"),
		ReadTimeout:    v.GetDuration("server.read_timeout"),
		WriteTimeout:   v.GetDuration("server.write_timeout"),
		IdleTimeout:    v.GetDuration("server.idle_timeout"),
		RequestTimeout: v.GetDuration("server.request_timeout"),
		MaxBodySize:    v.GetInt64("server.max_body_size"),
	}

	cfg.Session = SessionConfig{TTL: v.GetDuration("session.ttl")}

	cfg.Security = SecurityConfig{
		MaxLoginAttempts: v.GetInt("security.max_login_attempts"),
		LockoutDuration:  v.GetDuration("security.lockout_duration"),
		CleanupInterval:  v.GetDuration("security.cleanup_interval"),
	}

	cfg.RateLimit = RateLimitConfig{
		Requests: v.GetInt("rate_limit.requests"),
		Window:   v.GetDuration("rate_limit.window"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("dir", filepath.Join("~", defaultDirName))
	v.SetDefault("key_file", defaultKeyFile)
	v.SetDefault("vault_file", "")
	v.SetDefault("totp_file", defaultTOTPFile)
	v.SetDefault("storage.backend", "file")

	v.SetDefault("totp.issuer", "AegisVault")
	v.SetDefault("totp.account", "AegisVault")
	v.SetDefault("totp.skew", 1)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// The API serves decrypted secrets, so it binds to loopback only.
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 7878)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.max_body_size", 64*1024)

	v.SetDefault("session.ttl", 15*time.Minute)

	v.SetDefault("security.max_login_attempts", 5)
	v.SetDefault("security.lockout_duration", 15*time.Minute)
	v.SetDefault("security.cleanup_interval", 1*time.Minute)

	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", 60*time.Second)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	switch c.Storage.Backend {
	case "file", "bolt":
	default:
		return fmt.Errorf("storage.backend must be \"file\" or \"bolt\", got %q", c.Storage.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if c.Security.CleanupInterval <= 0 {
		return fmt.Errorf("security.cleanup_interval must be positive")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.requests and rate_limit.window must be positive")
	}
	return nil
}

// ServerAddr returns the full server address.
func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// resolve joins relative paths onto dir.
func resolve(dir, p string) string {
	p = expandHome(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
