package config

import (
	"fmt"
	"net/url"
	"os"
)

// DatabaseConfig defines the PostgreSQL connection configuration
// shared by every role that touches the store.
type DatabaseConfig struct {
	DSN            string `yaml:"dsn" json:"dsn"`                          // PostgreSQL connection string
	MaxConnections int    `yaml:"max_connections" json:"max_connections"`  // Maximum number of pool connections
	MinConnections int    `yaml:"min_connections" json:"min_connections"`  // Minimum number of pool connections
	ConnectRetries int    `yaml:"connect_retries" json:"connect_retries"`  // Startup connection attempts before giving up
	ConnectBackoff string `yaml:"connect_backoff" json:"connect_backoff"`  // Fixed delay between connection attempts
}

// ApplyEnv assembles the DSN from the individual PG_* environment
// variables. The pieces are treated as opaque connection parameters;
// an explicit PG-derived value always replaces whatever the config
// file carried.
func (c *DatabaseConfig) ApplyEnv() {
	host := envOr("PG_HOST", "localhost")
	port := envOr("PG_PORT", "5432")
	db := envOr("PG_DB", "pipeline")
	user := envOr("PG_USER", "pipeline")
	password := envOr("PG_PASSWORD", "pipeline")

	if c.DSN == "" || anyEnvSet("PG_HOST", "PG_PORT", "PG_DB", "PG_USER", "PG_PASSWORD") {
		c.DSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
			url.QueryEscape(user), url.QueryEscape(password), host, port, db)
	}
}

// SetDefaults sets sensible default values for the database configuration
func (c *DatabaseConfig) SetDefaults() {
	if c.MaxConnections <= 0 {
		c.MaxConnections = 10
	}
	if c.MinConnections <= 0 {
		c.MinConnections = 2
	}
	if c.ConnectRetries <= 0 {
		c.ConnectRetries = 5
	}
	if c.ConnectBackoff == "" {
		c.ConnectBackoff = "2s"
	}
}

// Validate validates the database configuration
func (c *DatabaseConfig) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min_connections (%d) cannot be greater than max_connections (%d)",
			c.MinConnections, c.MaxConnections)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func anyEnvSet(keys ...string) bool {
	for _, k := range keys {
		if os.Getenv(k) != "" {
			return true
		}
	}
	return false
}
