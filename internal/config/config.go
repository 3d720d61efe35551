// Package config provides configuration loading for permscope.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PERMSCOPE_"

// Dir returns the permscope config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/permscope if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "permscope"), nil
}

// Config holds the settings shared by every command. Command-line flags
// override it.
type Config struct {
	DBPath          string `yaml:"db"`
	InventoryPath   string `yaml:"inventory"`
	DefinitionsPath string `yaml:"definitions"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
	PrimaryUser     int    `yaml:"primary_user"`
	Schedule        string `yaml:"schedule"`
	MetricsAddr     string `yaml:"metrics_addr"`
	Retention       int    `yaml:"retention"`
}

// Default returns the configuration used when nothing is set, with paths
// under dir.
func Default(dir string) *Config {
	return &Config{
		DBPath:        filepath.Join(dir, "permscope.db"),
		InventoryPath: filepath.Join(dir, "inventory.yaml"),
		LogLevel:      "info",
		LogFormat:     "text",
		PrimaryUser:   0,
		Schedule:      "@every 15m",
		MetricsAddr:   ":9090",
		Retention:     20,
	}
}

// Load reads configuration in order: defaults, the YAML file at path
// (config.yaml in Dir when empty), a .env file next to it, then
// PERMSCOPE_* environment variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	if path == "" {
		path = filepath.Join(dir, "config.yaml")
	}

	cfg := Default(dir)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Variables already set in the environment win over the .env file.
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
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
	c.DBPath = getEnv("DB", c.DBPath)
	c.InventoryPath = getEnv("INVENTORY", c.InventoryPath)
	c.DefinitionsPath = getEnv("DEFINITIONS", c.DefinitionsPath)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.Schedule = getEnv("SCHEDULE", c.Schedule)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)

	var err error
	if c.PrimaryUser, err = getEnvInt("PRIMARY_USER", c.PrimaryUser); err != nil {
		return err
	}
	if c.Retention, err = getEnvInt("RETENTION", c.Retention); err != nil {
		return err
	}
	return nil
}

// Validate checks the configuration for values no command can use.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.LogFormat)
	}

	if c.PrimaryUser < 0 {
		return fmt.Errorf("primary user must be non-negative, got %d", c.PrimaryUser)
	}
	if c.Retention < 0 {
		return fmt.Errorf("retention must be non-negative, got %d", c.Retention)
	}

	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("invalid %s%s: %q is not an integer", EnvPrefix, key, value)
	}
	return n, nil
}
