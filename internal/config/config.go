package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/stacks/config.yaml"

// Config holds all stacks configuration.
type Config struct {
	Collections CollectionsConfig `yaml:"collections"`
	History     HistoryConfig     `yaml:"history"`
	Storage     StorageConfig     `yaml:"storage"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type CollectionsConfig struct {
	StorageKey      string `yaml:"storage_key"`
	DefaultName     string `yaml:"default_name"`
	MaxItems        int    `yaml:"max_items"`
	MaxResultChars  int    `yaml:"max_result_chars"`
	MaxSourcesChars int    `yaml:"max_sources_chars"`
	ConfirmSeconds  int    `yaml:"confirm_seconds"`
	QuotaBytes      int64  `yaml:"quota_bytes"`
}

type HistoryConfig struct {
	MaxEntries int  `yaml:"max_entries"`
	AutoTrim   bool `yaml:"auto_trim"`
}

type StorageConfig struct {
	Path              string `yaml:"path"`
	SQLiteFile        string `yaml:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values the stores cannot work with.
func (c *Config) Validate() error {
	if c.Collections.MaxItems < 1 {
		return fmt.Errorf("collections.max_items must be at least 1, got %d", c.Collections.MaxItems)
	}
	if c.Collections.MaxResultChars < 1 {
		return fmt.Errorf("collections.max_result_chars must be at least 1, got %d", c.Collections.MaxResultChars)
	}
	if c.Collections.MaxSourcesChars < 1 {
		return fmt.Errorf("collections.max_sources_chars must be at least 1, got %d", c.Collections.MaxSourcesChars)
	}
	if c.Collections.QuotaBytes < 0 {
		return fmt.Errorf("collections.quota_bytes must not be negative, got %d", c.Collections.QuotaBytes)
	}
	if c.History.MaxEntries < 0 {
		return fmt.Errorf("history.max_entries must not be negative, got %d", c.History.MaxEntries)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// DBPath returns the expanded sqlite database path.
func (c *Config) DBPath() (string, error) {
	dir, err := expandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := expandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	path, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
