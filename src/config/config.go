// Package config provides configuration management for clee.
//
// Settings come from a YAML file under the XDG config directory, overridden by
// CLEE_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/google/renameio/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"clee/src/provider"
)

const (
	EnvPrefix = "CLEE"

	KeyJenkinsUsername = "jenkins_username"
	KeyJenkinsPassword = "jenkins_password"
	KeyJenkinsBaseURL  = "jenkins_base_url"
	KeySystemTestsBase = "jenkins_system_tests_base"
	KeyPostgresDSN     = "postgres_dsn"
	KeyConcurrency     = "concurrency"
	KeyLogLevel        = "log_level"

	DefaultConcurrency = 4
	DefaultLogLevel    = "warn"
)

// Config holds the application configuration.
type Config struct {
	JenkinsUsername string `yaml:"jenkins_username,omitempty"`
	JenkinsPassword string `yaml:"jenkins_password,omitempty"`
	JenkinsBaseURL  string `yaml:"jenkins_base_url,omitempty"`
	// SystemTestsBase is the default job for commands run without one.
	SystemTestsBase string `yaml:"jenkins_system_tests_base,omitempty"`
	// PostgresDSN enables analysis history when set.
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`
	Concurrency int    `yaml:"concurrency,omitempty"`
	LogLevel    string `yaml:"log_level,omitempty"`
}

// DefaultPath returns $XDG_CONFIG_HOME/clee/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "clee", "config.yaml")
}

// NewViper reads path (a missing file is fine) and layers CLEE_* environment
// variables on top. Callers may bind flags before calling FromViper.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyConcurrency, DefaultConcurrency)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return v, nil
}

// FromViper builds a Config from the resolved settings.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		JenkinsUsername: v.GetString(KeyJenkinsUsername),
		JenkinsPassword: v.GetString(KeyJenkinsPassword),
		JenkinsBaseURL:  v.GetString(KeyJenkinsBaseURL),
		SystemTestsBase: v.GetString(KeySystemTestsBase),
		PostgresDSN:     v.GetString(KeyPostgresDSN),
		Concurrency:     v.GetInt(KeyConcurrency),
		LogLevel:        v.GetString(KeyLogLevel),
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	return cfg
}

// Load reads the config file at path with environment overrides applied.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return FromViper(v), nil
}

// LoadFromEnv loads the Jenkins connection from environment variables only.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		JenkinsUsername: os.Getenv("CLEE_JENKINS_USERNAME"),
		JenkinsPassword: os.Getenv("CLEE_JENKINS_PASSWORD"),
		JenkinsBaseURL:  os.Getenv("CLEE_JENKINS_BASE_URL"),
		SystemTestsBase: os.Getenv("CLEE_JENKINS_SYSTEM_TESTS_BASE"),
		PostgresDSN:     os.Getenv("CLEE_POSTGRES_DSN"),
		Concurrency:     DefaultConcurrency,
		LogLevel:        DefaultLogLevel,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the Jenkins connection settings are present.
func (c *Config) Validate() error {
	var missing []string
	if c.JenkinsUsername == "" {
		missing = append(missing, KeyJenkinsUsername)
	}
	if c.JenkinsPassword == "" {
		missing = append(missing, KeyJenkinsPassword)
	}
	if c.JenkinsBaseURL == "" {
		missing = append(missing, KeyJenkinsBaseURL)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", provider.ErrNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}

// Save writes cfg to path. Unless reset is set, fields left empty in cfg keep
// their value from the existing file.
func Save(path string, cfg Config, reset bool) error {
	merged := cfg
	if !reset {
		existing, err := readFile(path)
		if err != nil {
			return err
		}
		merged = merge(existing, cfg)
	}

	data, err := yaml.Marshal(&merged)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	// The file holds the API token.
	if err := renameio.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

func readFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func merge(base, over Config) Config {
	pick := func(b, o string) string {
		if o != "" {
			return o
		}
		return b
	}
	out := Config{
		JenkinsUsername: pick(base.JenkinsUsername, over.JenkinsUsername),
		JenkinsPassword: pick(base.JenkinsPassword, over.JenkinsPassword),
		JenkinsBaseURL:  pick(base.JenkinsBaseURL, over.JenkinsBaseURL),
		SystemTestsBase: pick(base.SystemTestsBase, over.SystemTestsBase),
		PostgresDSN:     pick(base.PostgresDSN, over.PostgresDSN),
		LogLevel:        pick(base.LogLevel, over.LogLevel),
		Concurrency:     base.Concurrency,
	}
	if over.Concurrency > 0 {
		out.Concurrency = over.Concurrency
	}
	return out
}
