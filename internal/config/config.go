// Package config holds all antirisk configuration.
// Config lives in <data dir>/config.yaml; the data dir defaults to a
// project-local .antirisk directory when present, else ~/.antirisk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all antirisk configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Advisor (Gemini) configuration
	Advisor AdvisorConfig `yaml:"advisor"`

	// Local persistence
	Storage StorageConfig `yaml:"storage"`

	// UI
	Theme string `yaml:"theme"` // "light" or "dark"

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// AdvisorConfig configures the generative advisory backend.
type AdvisorConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// StorageConfig configures the SQLite store and the knowledge inbox.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	// InboxDir is watched for dropped .md/.txt files which are ingested
	// into the knowledge register.
	InboxDir string `yaml:"inbox_dir"`
}

// LoggingConfig configures the zap file logger.
type LoggingConfig struct {
	Debug bool   `yaml:"debug"`
	Dir   string `yaml:"dir"`
}

// Default returns the default configuration rooted at dir.
func Default(dir string) Config {
	return Config{
		Name:    "antirisk",
		Version: "1.0.0",
		Advisor: AdvisorConfig{
			Model:   "gemini-3-flash-preview",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Timeout: "2m",
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join(dir, "antirisk.db"),
			InboxDir:     filepath.Join(dir, "inbox"),
		},
		Theme: "dark",
		Logging: LoggingConfig{
			Dir: filepath.Join(dir, "logs"),
		},
	}
}

// DataDir returns the directory where config and state are stored.
// Prefers a project-local .antirisk directory if present, else ~/.antirisk.
func DataDir() (string, error) {
	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ".antirisk")
		if stat, err := os.Stat(local); err == nil && stat.IsDir() {
			return local, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".antirisk"), nil
}

// Load reads config.yaml from the data dir, applying defaults for any
// missing values and environment overrides last. A missing file yields the
// defaults without error.
func Load() (Config, error) {
	dir, err := DataDir()
	if err != nil {
		return Default("."), err
	}
	return LoadFrom(dir)
}

// LoadFrom reads config.yaml from an explicit directory.
func LoadFrom(dir string) (Config, error) {
	cfg := Default(dir)

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the configuration to <dir>/config.yaml.
func Save(dir string, cfg Config) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644)
}

// applyEnvOverrides lets the environment win over the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Advisor.APIKey = v
	}
	if v := os.Getenv("ANTIRISK_MODEL"); v != "" {
		cfg.Advisor.Model = v
	}
	if v := os.Getenv("ANTIRISK_DB"); v != "" {
		cfg.Storage.DatabasePath = v
	}
	if os.Getenv("ANTIRISK_DEBUG") == "1" {
		cfg.Logging.Debug = true
	}
}

// AdvisorTimeout parses the configured advisor timeout, falling back to
// two minutes on a bad or empty value.
func (c Config) AdvisorTimeout() time.Duration {
	d, err := time.ParseDuration(c.Advisor.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}
