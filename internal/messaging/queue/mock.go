package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"logpipe/internal/models"
)

// MockQueue is an in-process FIFO used in tests and for local runs
// without a broker. Payloads are stored encoded so the decode path is
// exercised the same way as with a real backend.
type MockQueue struct {
	logger   *log.Logger
	payloads chan []byte
}

// NewMockQueue creates a MockQueue with the given capacity.
func NewMockQueue(capacity int, logger *log.Logger) *MockQueue {
	if capacity <= 0 {
		capacity = 1024
	}
	return &MockQueue{
		logger:   logger,
		payloads: make(chan []byte, capacity),
	}
}

// Enqueue implements the Queue interface.
func (m *MockQueue) Enqueue(ctx context.Context, msg *models.QueueMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize queue message: %w", err)
	}
	return m.push(ctx, payload)
}

// EnqueueBatch implements the Queue interface.
func (m *MockQueue) EnqueueBatch(ctx context.Context, msgs []*models.QueueMessage) error {
	for _, msg := range msgs {
		if err := m.Enqueue(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// EnqueueRaw injects an arbitrary payload, letting tests simulate
// undecodable messages arriving from the broker.
func (m *MockQueue) EnqueueRaw(ctx context.Context, payload []byte) error {
	return m.push(ctx, payload)
}

func (m *MockQueue) push(ctx context.Context, payload []byte) error {
	select {
	case m.payloads <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue implements the Queue interface.
func (m *MockQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.QueueMessage, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, nil // queue empty
	case payload := <-m.payloads:
		var msg models.QueueMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		if msg.Line == "" {
			return nil, ErrMalformedMessage
		}
		return &msg, nil
	}
}

// Depth implements the Queue interface.
func (m *MockQueue) Depth(ctx context.Context) (int64, error) {
	return int64(len(m.payloads)), nil
}

// Close implements the Queue interface.
func (m *MockQueue) Close() error {
	return nil
}

var _ Queue = (*MockQueue)(nil)
