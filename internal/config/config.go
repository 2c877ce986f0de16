// Package config loads the settings the skill server needs to reach an
// AnswerRocket instance. Values come from the YAML file, then environment
// overrides, and the token falls back to the OS credential store.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"arcopilot/internal/logging"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const APP_NAME = "arcopilot" // application name used for config directory

const (
	EnvConfigPath = "ARCOPILOT_CONFIG_PATH"
	EnvURL        = "AR_URL"
	EnvToken      = "AR_TOKEN"
	EnvCopilotID  = "COPILOT_ID"

	DefaultGraphQLPath = "/api/sdk/graphql"
	DefaultTimeout     = 30 * time.Second
)

// ErrMissing is wrapped by Validate for every absent required value.
var ErrMissing = errors.New("missing required setting")

// TokenSource supplies the token when AR_TOKEN is unset.
type TokenSource interface {
	Get() (string, error)
}

// Config holds the server settings. Token is never written to disk.
type Config struct {
	URL         string        `yaml:"url"`
	CopilotID   string        `yaml:"copilot_id"`
	GraphQLPath string        `yaml:"graphql_path,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`

	Token string `yaml:"-"`
}

// ConfigPath returns the config file location, honoring ARCOPILOT_CONFIG_PATH.
func ConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, APP_NAME, "config.yaml")
}

// DefaultConfig returns a Config with the protocol defaults filled in.
func DefaultConfig() Config {
	return Config{
		GraphQLPath: DefaultGraphQLPath,
		Timeout:     DefaultTimeout,
	}
}

// Load reads path (or ConfigPath when empty), applies environment overrides
// and resolves the token. A missing file is not an error; the environment
// alone can configure the server.
func Load(path string, tokens TokenSource) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := LoadFrom(path)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	} else {
		logging.Debug("No config file, using environment only", "path", path)
	}

	cfg.applyEnv()
	cfg.resolveToken(tokens)
	return &cfg, nil
}

// LoadFrom decodes the file at path without consulting the environment.
func LoadFrom(path string) (*Config, error) {
	logging.Debug("Reading config file", "path", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.fillDefaults()
	return &cfg, nil
}

func (c *Config) fillDefaults() {
	c.URL = strings.TrimSpace(c.URL)
	c.CopilotID = strings.TrimSpace(c.CopilotID)
	if c.GraphQLPath == "" {
		c.GraphQLPath = DefaultGraphQLPath
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvURL)); v != "" {
		c.URL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCopilotID)); v != "" {
		c.CopilotID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvToken)); v != "" {
		c.Token = v
	}
}

func (c *Config) resolveToken(tokens TokenSource) {
	if c.Token != "" || tokens == nil {
		return
	}
	token, err := tokens.Get()
	if err != nil {
		logging.Debug("No token in credential store", "error", err)
		return
	}
	c.Token = token
}

// Validate reports the first missing required value by its environment name.
func (c *Config) Validate() error {
	switch {
	case c.URL == "":
		return fmt.Errorf("%w: %s environment variable is required", ErrMissing, EnvURL)
	case c.Token == "":
		return fmt.Errorf("%w: %s environment variable is required", ErrMissing, EnvToken)
	case c.CopilotID == "":
		return fmt.Errorf("%w: %s environment variable is required", ErrMissing, EnvCopilotID)
	}
	return nil
}

// Set updates one file-backed setting by its YAML key.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "url":
		c.URL = value
	case "copilot_id":
		c.CopilotID = value
	case "graphql_path":
		c.GraphQLPath = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid timeout %q: expected a positive duration like 30s", value)
		}
		c.Timeout = d
	default:
		return fmt.Errorf("unknown setting %q (valid: url, copilot_id, graphql_path, timeout)", key)
	}
	return nil
}

// Save writes the config to ConfigPath.
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes the config to path with owner-only permissions.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	logging.Info("Configuration saved", "path", path)
	return nil
}
