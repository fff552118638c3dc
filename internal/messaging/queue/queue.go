package queue

import (
	"context"
	"errors"
	"time"

	"logpipe/internal/models"
)

// ErrMalformedMessage reports a payload that could not be decoded into
// a QueueMessage. The message is already gone from the broker when
// this is returned; callers drop it and continue.
var ErrMalformedMessage = errors.New("malformed queue message")

// ErrDepthUnsupported is returned by backends that cannot report how
// many messages are waiting.
var ErrDepthUnsupported = errors.New("queue depth not supported by this backend")

// Queue defines the interface between the pipeline and the broker.
// Dequeue is destructive: a returned message is irrevocably removed
// from the broker regardless of what the caller does with it.
type Queue interface {
	// Enqueue pushes a single message onto the queue.
	Enqueue(ctx context.Context, msg *models.QueueMessage) error

	// EnqueueBatch pushes messages in order using one broker
	// round-trip where the backend allows it.
	EnqueueBatch(ctx context.Context, msgs []*models.QueueMessage) error

	// Dequeue blocks up to timeout for the next message. A nil
	// message with a nil error means the timeout elapsed with the
	// queue empty; callers must treat that as a normal poll outcome.
	Dequeue(ctx context.Context, timeout time.Duration) (*models.QueueMessage, error)

	// Depth reports the number of waiting messages, or
	// ErrDepthUnsupported.
	Depth(ctx context.Context) (int64, error)

	// Close gracefully shuts down the broker connection.
	Close() error
}
