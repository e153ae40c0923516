// Package config loads the non-secret settings that locate the API key.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/benaskins/weatherwizard/internal/keychain"
	"gopkg.in/yaml.v3"
)

// ErrSecretInConfig is returned when a config file holds key material.
// The key belongs in the OS secret service only.
var ErrSecretInConfig = errors.New("config file must not contain an API key")

// secretFields are top-level keys that indicate a key was pasted into the file.
var secretFields = []string{"api_key", "apikey", "api_token", "api_token_encoded", "token", "secret"}

// Config holds settings loaded from ~/.config/weatherwizard/config.yaml.
type Config struct {
	Keyring  Keyring `yaml:"keyring"`
	StateDir string  `yaml:"state_dir"`
	Audit    *bool   `yaml:"audit"`
	LogLevel string  `yaml:"log_level"`
}

// Keyring overrides the logical name of the secret.
type Keyring struct {
	Service string `yaml:"service"`
	Account string `yaml:"account"`
}

// Dir returns the default config directory: <UserConfigDir>/weatherwizard.
func Dir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "weatherwizard")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads a YAML config file from path. If the file does not exist,
// it returns an empty Config and no error. An empty or all-comment file
// also returns an empty Config with no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, field := range secretFields {
		if _, ok := raw[field]; ok {
			return nil, fmt.Errorf("%w: remove %q from %s and run 'configure-api-key set'", ErrSecretInConfig, field, path)
		}
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Name returns the keychain name, falling back to the defaults.
func (c *Config) Name() keychain.Name {
	n := keychain.DefaultName()
	if c.Keyring.Service != "" {
		n.Service = c.Keyring.Service
	}
	if c.Keyring.Account != "" {
		n.Account = c.Keyring.Account
	}
	return n
}

// ResolvedStateDir returns where the audit log and key metadata live,
// expanding a leading "~/".
func (c *Config) ResolvedStateDir() string {
	dir := c.StateDir
	if dir == "" {
		return Dir()
	}
	if rest, ok := strings.CutPrefix(dir, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return dir
}

// AuditEnabled reports whether key access should be audited. Defaults to true.
func (c *Config) AuditEnabled() bool {
	return c.Audit == nil || *c.Audit
}

// Level parses LogLevel, defaulting to warn.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if c.LogLevel == "" || lvl.UnmarshalText([]byte(c.LogLevel)) != nil {
		return slog.LevelWarn
	}
	return lvl
}
