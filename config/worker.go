package config

// WorkerConfig defines configuration for the consuming workers.
type WorkerConfig struct {
	Concurrency      int    `yaml:"concurrency"`       // Number of concurrent workers
	PollTimeout      string `yaml:"poll_timeout"`      // Blocking dequeue timeout per poll
	BatchSize        int    `yaml:"batch_size"`        // Rows per store write
	BatchTimeout     string `yaml:"batch_timeout"`     // Maximum wait before a partial batch is flushed
	ProgressInterval int    `yaml:"progress_interval"` // Emit a progress line every N stored rows
}

// SetDefaults sets reasonable default values for the worker configuration
func (c *WorkerConfig) SetDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.PollTimeout == "" {
		c.PollTimeout = "1s"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.BatchTimeout == "" {
		c.BatchTimeout = "1s"
	}
	if c.ProgressInterval <= 0 {
		c.ProgressInterval = 1000
	}
}
