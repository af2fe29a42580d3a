// Package config loads and validates the client configuration from a TOML
// file, with environment overrides for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// DefaultConfigFile is the default name of the config file.
const DefaultConfigFile = "config.toml"

const (
	envBackendURL  = "SHINDAN_BACKEND_URL"
	envAccessToken = "SHINDAN_ACCESS_TOKEN"

	deviceIDFile = "device_id"
)

// BackendConfig holds backend connection details.
type BackendConfig struct {
	URL string `toml:"url" validate:"required,url"`
}

// AuthConfig holds the caller's credentials. AccessToken is optional; an
// empty token means the caller runs anonymously and session linking is
// skipped.
type AuthConfig struct {
	AccessToken string `toml:"access_token"`
}

// StorageConfig controls where session snapshots are persisted. InMemory
// disables the durable medium entirely, which degrades persistence to
// process lifetime.
type StorageConfig struct {
	Dir      string `toml:"dir"`
	InMemory bool   `toml:"in_memory"`
}

// LLMConfig holds the generation polling policy. Values are Go duration
// strings.
type LLMConfig struct {
	PollInterval string `toml:"poll_interval" validate:"omitempty"`
	MaxWait      string `toml:"max_wait" validate:"omitempty"`
}

// GetPollInterval returns the poll interval, or zero when unset so callers
// fall back to their default.
func (l *LLMConfig) GetPollInterval() time.Duration {
	d, _ := time.ParseDuration(l.PollInterval)
	return d
}

// GetMaxWait returns the maximum total wait, or zero when unset.
func (l *LLMConfig) GetMaxWait() time.Duration {
	d, _ := time.ParseDuration(l.MaxWait)
	return d
}

// Config holds all configuration for the client. It implements the
// httpclient Configurator so it can be handed to the HTTP client directly.
type Config struct {
	Backend BackendConfig `toml:"backend"`
	Auth    AuthConfig    `toml:"auth"`
	Storage StorageConfig `toml:"storage"`
	LLM     LLMConfig     `toml:"llm"`

	deviceID string
}

var cfg *Config

// GetConfig returns the loaded configuration.
func GetConfig() *Config {
	return cfg
}

// GetDefaultConfigPath returns the default path for the config file under
// the OS-specific user config directory.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "shindan", DefaultConfigFile), nil
}

// LoadConfig loads the configuration from the given file, applies
// environment overrides and defaults, validates it, and sets it as the
// process configuration. A missing .env file is not an error.
func LoadConfig(filename string) error {
	_ = godotenv.Load()

	if filename == "" {
		var err error
		filename, err = GetDefaultConfigPath()
		if err != nil {
			return err
		}
	}

	c := &Config{}
	content, err := os.ReadFile(filename)
	if err == nil {
		if _, derr := toml.Decode(string(content), c); derr != nil {
			return fmt.Errorf("error parsing config file: %w", derr)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error reading config file: %w", err)
	}

	if v := os.Getenv(envBackendURL); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv(envAccessToken); v != "" {
		c.Auth.AccessToken = v
	}
	if err := applyDefaults(c); err != nil {
		return err
	}

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.ensureDeviceID(); err != nil {
		return err
	}

	cfg = c
	return nil
}

func applyDefaults(c *Config) error {
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
	if c.Storage.Dir == "" && !c.Storage.InMemory {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("failed to get user config directory: %w", err)
		}
		c.Storage.Dir = filepath.Join(configDir, "shindan", "sessions")
	}
	if c.LLM.PollInterval != "" {
		if _, err := time.ParseDuration(c.LLM.PollInterval); err != nil {
			return fmt.Errorf("invalid llm.poll_interval: %w", err)
		}
	}
	if c.LLM.MaxWait != "" {
		if _, err := time.ParseDuration(c.LLM.MaxWait); err != nil {
			return fmt.Errorf("invalid llm.max_wait: %w", err)
		}
	}
	return nil
}

// ensureDeviceID loads or creates the stable per-install device identifier.
// In-memory setups get a fresh id per process.
func (c *Config) ensureDeviceID() error {
	if c.Storage.InMemory || c.Storage.Dir == "" {
		c.deviceID = uuid.New().String()
		return nil
	}
	if err := os.MkdirAll(c.Storage.Dir, 0700); err != nil {
		return fmt.Errorf("error creating storage directory: %w", err)
	}
	path := filepath.Join(c.Storage.Dir, deviceIDFile)
	if data, err := os.ReadFile(path); err == nil {
		id := strings.TrimSpace(string(data))
		if _, perr := uuid.Parse(id); perr == nil {
			c.deviceID = id
			return nil
		}
	}
	id := uuid.New().String()
	if err := os.WriteFile(path, []byte(id+"\n"), 0600); err != nil {
		return fmt.Errorf("error persisting device id: %w", err)
	}
	c.deviceID = id
	return nil
}

// GetServerURL implements httpclient.Configurator.
func (c *Config) GetServerURL() string {
	return c.Backend.URL
}

// GetToken implements httpclient.Configurator.
func (c *Config) GetToken() string {
	return c.Auth.AccessToken
}

// GetTokenExpiry implements httpclient.Configurator. The expiry is read
// from the token's own exp claim without verifying the signature; a token
// without one is treated as non-expiring.
func (c *Config) GetTokenExpiry() time.Time {
	if c.Auth.AccessToken == "" {
		return time.Time{}
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(c.Auth.AccessToken, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Now().Add(24 * time.Hour)
	}
	return exp.Time
}

// GetDeviceID implements httpclient.Configurator.
func (c *Config) GetDeviceID() string {
	return c.deviceID
}
