// Package config loads server configuration from a YAML file and
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults used when neither file, environment nor flags provide a value.
const (
	DefaultAddr    = "127.0.0.1:4000"
	DefaultDataDir = "./data"
	DefaultEngine  = "log"
	DefaultPool    = "shared"
	DefaultLevel   = "info"
)

// Config holds all server settings.
type Config struct {
	Addr    string `yaml:"addr"`
	DataDir string `yaml:"data_dir"`
	Engine  string `yaml:"engine"`

	Pool     string `yaml:"pool"`
	PoolSize int    `yaml:"pool_size"`

	MaxUncompactedBytes int64 `yaml:"max_uncompacted_bytes"`
	MaxSegmentBytes     int64 `yaml:"max_segment_bytes"`

	LogLevel string `yaml:"log_level"`
}

// Load builds a Config from defaults, then the YAML file at path if one
// is given, then environment variable overrides. Callers that apply
// further overrides (flags) should call Validate afterwards.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Addr:     DefaultAddr,
		DataDir:  DefaultDataDir,
		Engine:   DefaultEngine,
		Pool:     DefaultPool,
		LogLevel: DefaultLevel,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can act on.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	switch c.Engine {
	case "log", "bolt":
	default:
		return fmt.Errorf("engine must be \"log\" or \"bolt\", got %q", c.Engine)
	}
	switch c.Pool {
	case "naive", "shared", "stealing":
	default:
		return fmt.Errorf("pool must be \"naive\", \"shared\" or \"stealing\", got %q", c.Pool)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("pool_size must not be negative")
	}
	if c.MaxUncompactedBytes < 0 || c.MaxSegmentBytes < 0 {
		return fmt.Errorf("byte limits must not be negative")
	}
	return nil
}

// applyEnvOverrides allows environment variables to override file and
// default values.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("ADRAK_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("ADRAK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("ADRAK_ENGINE"); v != "" {
		cfg.Engine = v
	}
	if v := os.Getenv("ADRAK_POOL"); v != "" {
		cfg.Pool = v
	}
	if v := os.Getenv("ADRAK_POOL_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ADRAK_POOL_SIZE value: %w", err)
		}
		cfg.PoolSize = size
	}
	if v := os.Getenv("ADRAK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}
