package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config represents the complete pipeline configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Queue    QueueConfig    `yaml:"queue"`
	Reader   ReaderConfig   `yaml:"reader"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// Load reads configuration from the given YAML file (optional — a
// missing file leaves every value at its default), applies
// environment variable overrides, fills in defaults and validates.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config file '%s': %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
	}

	// Environment wins over the file: the deployment surface is the
	// same set of variables the rest of the tooling uses.
	cfg.Database.ApplyEnv()
	cfg.Queue.ApplyEnv()
	cfg.Reader.ApplyEnv()

	cfg.Database.SetDefaults()
	cfg.Queue.SetDefaults()
	cfg.Reader.SetDefaults()
	cfg.Worker.SetDefaults()

	if err := cfg.Database.Validate(); err != nil {
		return nil, fmt.Errorf("database configuration error: %w", err)
	}
	if err := cfg.Queue.Validate(); err != nil {
		return nil, fmt.Errorf("queue configuration error: %w", err)
	}

	return &cfg, nil
}
