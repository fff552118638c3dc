package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"logpipe/config"
	"logpipe/internal/models"
)

// RedisQueue implements the Queue interface on top of a Redis list.
// Enqueue is LPUSH, Dequeue is BRPOP, so the list behaves as a FIFO.
type RedisQueue struct {
	client *redis.Client
	name   string
	logger *log.Logger
}

// NewRedisQueue connects to Redis and verifies the connection. A
// broker that is unreachable at startup is a fatal condition for the
// caller; there is no retry here.
func NewRedisQueue(cfg config.QueueConfig, logger *log.Logger) (*RedisQueue, error) {
	if cfg.Redis.Addr == "" {
		return nil, errors.New("incomplete redis configuration: addr is required")
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
	}

	logger.Printf("Redis queue client connected to %s, list: %s", cfg.Redis.Addr, cfg.Name)

	return &RedisQueue{
		client: client,
		name:   cfg.Name,
		logger: logger,
	}, nil
}

// Enqueue implements the Queue interface.
func (q *RedisQueue) Enqueue(ctx context.Context, msg *models.QueueMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize queue message: %w", err)
	}
	if err := q.client.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("failed to push to redis list %s: %w", q.name, err)
	}
	return nil
}

// EnqueueBatch pushes all messages with a single LPUSH. Redis appends
// multi-value LPUSH arguments one by one, so BRPOP on the other end
// still pops them in the original order.
func (q *RedisQueue) EnqueueBatch(ctx context.Context, msgs []*models.QueueMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	payloads := make([]interface{}, len(msgs))
	for i, msg := range msgs {
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to serialize queue message (source_file: %s): %w", msg.SourceFile, err)
		}
		payloads[i] = payload
	}

	if err := q.client.LPush(ctx, q.name, payloads...).Err(); err != nil {
		return fmt.Errorf("failed to batch push %d messages to redis list %s: %w", len(msgs), q.name, err)
	}
	return nil
}

// Dequeue implements the Queue interface. A BRPOP timeout is a normal
// empty-queue poll, not an error.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.QueueMessage, error) {
	result, err := q.client.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // queue empty
		}
		return nil, fmt.Errorf("failed to pop from redis list %s: %w", q.name, err)
	}

	// BRPOP returns [key, value]; the message is already removed from
	// the list at this point.
	var msg models.QueueMessage
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		q.logger.Printf("Redis queue: discarding undecodable payload: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.Line == "" {
		q.logger.Printf("Redis queue: discarding payload without a line field")
		return nil, ErrMalformedMessage
	}

	return &msg, nil
}

// Depth implements the Queue interface via LLEN.
func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	depth, err := q.client.LLen(ctx, q.name).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read length of redis list %s: %w", q.name, err)
	}
	return depth, nil
}

// Close implements the Queue interface.
func (q *RedisQueue) Close() error {
	q.logger.Println("Closing Redis queue client...")
	return q.client.Close()
}

var _ Queue = (*RedisQueue)(nil)
