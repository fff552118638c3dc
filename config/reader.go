package config

import "os"

// ReaderConfig defines the file-watching producer's behavior.
type ReaderConfig struct {
	Directory     string `yaml:"directory"`      // Watched directory
	FileSuffix    string `yaml:"file_suffix"`    // Only files with this suffix are streamed
	SweepInterval string `yaml:"sweep_interval"` // Idle time between directory sweeps
	BatchSize     int    `yaml:"batch_size"`     // Lines per enqueue round-trip
}

// ApplyEnv overrides the watched directory from LOG_DIR.
func (c *ReaderConfig) ApplyEnv() {
	if v := os.Getenv("LOG_DIR"); v != "" {
		c.Directory = v
	}
}

// SetDefaults sets reasonable default values for the reader configuration
func (c *ReaderConfig) SetDefaults() {
	if c.Directory == "" {
		c.Directory = "./data/logs"
	}
	if c.FileSuffix == "" {
		c.FileSuffix = ".log"
	}
	if c.SweepInterval == "" {
		c.SweepInterval = "1s"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
}
