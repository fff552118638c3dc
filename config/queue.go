package config

import (
	"fmt"
	"os"
	"strings"
)

// Queue backend selectors.
const (
	QueueBackendRedis = "redis"
	QueueBackendKafka = "kafka"
	QueueBackendMock  = "mock"
)

// RedisQueueConfig defines the connection settings for the Redis list
// broker (the default transport).
type RedisQueueConfig struct {
	Addr string `yaml:"addr"` // host:port
}

// KafkaQueueConfig defines the connection settings for the optional
// Kafka transport.
type KafkaQueueConfig struct {
	Brokers           []string `yaml:"brokers"`            // e.g., ["kafka1:9092", "kafka2:9092"]
	GroupID           string   `yaml:"group_id"`           // Consumer group ID (defaulted per process when empty)
	SessionTimeout    string   `yaml:"session_timeout"`    // Kafka session timeout
	HeartbeatInterval string   `yaml:"heartbeat_interval"` // Kafka heartbeat interval
	RequiredAcks      string   `yaml:"required_acks"`      // none/one/all
}

// QueueConfig defines which broker carries the pipeline's messages
// and how to reach it. Name is both the Redis list key and the Kafka
// topic.
type QueueConfig struct {
	Backend string           `yaml:"backend"` // redis/kafka/mock
	Name    string           `yaml:"name"`
	Redis   RedisQueueConfig `yaml:"redis"`
	Kafka   KafkaQueueConfig `yaml:"kafka"`
}

// ApplyEnv overrides the Redis address from REDIS_HOST/REDIS_PORT and
// the backend from QUEUE_BACKEND.
func (c *QueueConfig) ApplyEnv() {
	if v := os.Getenv("QUEUE_BACKEND"); v != "" {
		c.Backend = strings.ToLower(v)
	}
	if anyEnvSet("REDIS_HOST", "REDIS_PORT") || c.Redis.Addr == "" {
		c.Redis.Addr = envOr("REDIS_HOST", "localhost") + ":" + envOr("REDIS_PORT", "6379")
	}
}

// SetDefaults sets reasonable default values for the queue configuration
func (c *QueueConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = QueueBackendRedis
	}
	if c.Name == "" {
		c.Name = "log_queue"
	}
	if c.Kafka.SessionTimeout == "" {
		c.Kafka.SessionTimeout = "30s"
	}
	if c.Kafka.HeartbeatInterval == "" {
		c.Kafka.HeartbeatInterval = "3s"
	}
}

// Validate validates the queue configuration
func (c *QueueConfig) Validate() error {
	switch c.Backend {
	case QueueBackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("queue.redis.addr is required for the redis backend")
		}
	case QueueBackendKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("queue.kafka.brokers is required for the kafka backend")
		}
	case QueueBackendMock:
	default:
		return fmt.Errorf("unknown queue backend '%s' (expected redis, kafka or mock)", c.Backend)
	}
	if c.Name == "" {
		return fmt.Errorf("queue name is required")
	}
	return nil
}
