// Package config loads server settings from defaults, an optional YAML
// file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration.
type Config struct {
	Addr        string     `yaml:"addr"`
	WebDir      string     `yaml:"web_dir"`
	DatabaseURL string     `yaml:"database_url"`
	LogLevel    string     `yaml:"log_level"`
	Strict      bool       `yaml:"strict"`
	Auth        AuthConfig `yaml:"auth"`
}

// AuthConfig configures the owner login. Both modes off means no login.
type AuthConfig struct {
	PasswordHash string     `yaml:"password_hash"`
	OIDC         OIDCConfig `yaml:"oidc"`
}

// OIDCConfig configures SSO login.
type OIDCConfig struct {
	Issuer       string `yaml:"issuer"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	AllowedEmail string `yaml:"allowed_email"`
}

// Enabled reports whether SSO is configured.
func (o OIDCConfig) Enabled() bool {
	return o.Issuer != ""
}

// AuthEnabled reports whether plant routes require a session.
func (c *Config) AuthEnabled() bool {
	return c.Auth.PasswordHash != "" || c.Auth.OIDC.Enabled()
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Addr:     ":8080",
		WebDir:   "web",
		LogLevel: "info",
	}
}

// Load reads the YAML file at path (skipped when empty), applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "ADDR")
	setString(&c.WebDir, "WEB_DIR")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Auth.PasswordHash, "AUTH_PASSWORD_HASH")
	setString(&c.Auth.OIDC.Issuer, "OIDC_ISSUER")
	setString(&c.Auth.OIDC.ClientID, "OIDC_CLIENT_ID")
	setString(&c.Auth.OIDC.ClientSecret, "OIDC_CLIENT_SECRET")
	setString(&c.Auth.OIDC.RedirectURL, "OIDC_REDIRECT_URL")
	setString(&c.Auth.OIDC.AllowedEmail, "OIDC_ALLOWED_EMAIL")

	if v := os.Getenv("STRICT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid STRICT: %w", err)
		}
		c.Strict = b
	}
	return nil
}

// Validate rejects unknown log levels and partial SSO settings.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	o := c.Auth.OIDC
	if o.Enabled() && (o.ClientID == "" || o.RedirectURL == "") {
		return errors.New("oidc: client_id and redirect_url are required when issuer is set")
	}
	if !o.Enabled() && (o.ClientID != "" || o.ClientSecret != "") {
		return errors.New("oidc: issuer is required when client credentials are set")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
