// Package config loads and saves the loraview user configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the configuration lives unless --config says otherwise.
const DefaultPath = "~/.config/loraview/config.yaml"

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// Config is the user configuration.
type Config struct {
	LogLevel        string   `yaml:"log_level"`
	Extensions      []string `yaml:"extensions"`
	RulesFile       string   `yaml:"rules_file,omitempty"`
	WatchDebounceMs int      `yaml:"watch_debounce_ms"`
	LastPath        string   `yaml:"last_path,omitempty"` // last file or directory opened
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:        "warn",
		Extensions:      []string{".safetensors"},
		WatchDebounceMs: 500,
	}
}

// Load reads the configuration at path, filling unset fields from Default. A missing
// file returns Default together with ErrConfigNotFound.
func Load(path string) (Config, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Default(), fmt.Errorf("failed to expand %s: %w", path, err)
	}

	//nolint:gosec // G304: Config path comes from the user
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), ErrConfigNotFound
		}
		return Default(), err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse %s: %w", expanded, err)
	}
	if err := mergo.Merge(&cfg, Default()); err != nil {
		return Default(), fmt.Errorf("failed to apply defaults: %w", err)
	}

	if cfg.RulesFile != "" {
		if cfg.RulesFile, err = homedir.Expand(cfg.RulesFile); err != nil {
			return Default(), fmt.Errorf("failed to expand rules_file: %w", err)
		}
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("failed to expand %s: %w", path, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(expanded, data, 0o600)
}
