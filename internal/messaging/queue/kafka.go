package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"logpipe/config"
	"logpipe/internal/models"
)

// KafkaQueue implements the Queue interface on a Kafka topic. It
// exists for deployments where the broker is a Kafka cluster instead
// of a Redis list; the dequeue contract stays destructive by
// committing each offset the moment the message is fetched.
type KafkaQueue struct {
	writer *kafka.Writer
	reader *kafka.Reader
	logger *log.Logger
}

// NewKafkaQueue creates a writer and a reader for the configured
// topic. All processor instances share one consumer group so every
// message is delivered to exactly one of them.
func NewKafkaQueue(cfg config.QueueConfig, logger *log.Logger) (*KafkaQueue, error) {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Name == "" {
		return nil, errors.New("incomplete kafka configuration: brokers and queue name are required")
	}

	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "logpipe-processor"
	}

	sessionTimeout, err := time.ParseDuration(cfg.Kafka.SessionTimeout)
	if err != nil {
		logger.Printf("Warning: Invalid session_timeout '%s', using default 30s", cfg.Kafka.SessionTimeout)
		sessionTimeout = 30 * time.Second
	}

	heartbeatInterval, err := time.ParseDuration(cfg.Kafka.HeartbeatInterval)
	if err != nil {
		logger.Printf("Warning: Invalid heartbeat_interval '%s', using default 3s", cfg.Kafka.HeartbeatInterval)
		heartbeatInterval = 3 * time.Second
	}

	var requiredAcks kafka.RequiredAcks
	switch cfg.Kafka.RequiredAcks {
	case "none":
		requiredAcks = kafka.RequireNone
	case "all":
		requiredAcks = kafka.RequireAll
	default:
		requiredAcks = kafka.RequireOne
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Name,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: requiredAcks,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Printf("Kafka Writer Error: "+msg, args...)
		}),
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Kafka.Brokers,
		GroupID:           groupID,
		Topic:             cfg.Name,
		MinBytes:          1,
		MaxBytes:          10e6, // 10MB
		MaxWait:           500 * time.Millisecond,
		SessionTimeout:    sessionTimeout,
		HeartbeatInterval: heartbeatInterval,
		StartOffset:       kafka.FirstOffset,
	})

	logger.Printf("Kafka queue client connected to Brokers: %v, Topic: %s, GroupID: %s", cfg.Kafka.Brokers, cfg.Name, groupID)

	return &KafkaQueue{
		writer: writer,
		reader: reader,
		logger: logger,
	}, nil
}

// Enqueue implements the Queue interface.
func (q *KafkaQueue) Enqueue(ctx context.Context, msg *models.QueueMessage) error {
	return q.EnqueueBatch(ctx, []*models.QueueMessage{msg})
}

// EnqueueBatch implements the Queue interface. All messages of a
// batch share the source file as partition key, which preserves line
// order within one file.
func (q *KafkaQueue) EnqueueBatch(ctx context.Context, msgs []*models.QueueMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	kafkaMsgs := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		payload, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to serialize queue message (source_file: %s): %w", msg.SourceFile, err)
		}
		kafkaMsgs[i] = kafka.Message{
			Key:   []byte(msg.SourceFile),
			Value: payload,
		}
	}

	if err := q.writer.WriteMessages(ctx, kafkaMsgs...); err != nil {
		return fmt.Errorf("failed to write %d messages to kafka: %w", len(msgs), err)
	}
	return nil
}

// Dequeue implements the Queue interface. The offset is committed
// immediately after the fetch, before the caller sees the message, to
// match the destructive-dequeue contract.
func (q *KafkaQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.QueueMessage, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	kafkaMsg, err := q.reader.FetchMessage(fetchCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil // queue empty within the poll window
		}
		if errors.Is(err, context.Canceled) {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to fetch from kafka: %w", err)
	}

	if err := q.reader.CommitMessages(ctx, kafkaMsg); err != nil {
		q.logger.Printf("Kafka queue: failed to commit offset %d: %v", kafkaMsg.Offset, err)
	}

	var msg models.QueueMessage
	if err := json.Unmarshal(kafkaMsg.Value, &msg); err != nil {
		q.logger.Printf("Kafka queue: discarding undecodable payload (Offset: %d): %v", kafkaMsg.Offset, err)
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.Line == "" {
		q.logger.Printf("Kafka queue: discarding payload without a line field (Offset: %d)", kafkaMsg.Offset)
		return nil, ErrMalformedMessage
	}

	return &msg, nil
}

// Depth implements the Queue interface. Consumer lag is not exposed
// here; the stats role reports depth as unavailable on Kafka.
func (q *KafkaQueue) Depth(ctx context.Context) (int64, error) {
	return 0, ErrDepthUnsupported
}

// Close implements the Queue interface.
func (q *KafkaQueue) Close() error {
	q.logger.Println("Closing Kafka queue client (and flushing writer buffer)...")
	writerErr := q.writer.Close()
	readerErr := q.reader.Close()
	if writerErr != nil {
		return writerErr
	}
	return readerErr
}

var _ Queue = (*KafkaQueue)(nil)
