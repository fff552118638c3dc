package queue

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logpipe/internal/models"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestMockQueueFIFORoundTrip(t *testing.T) {
	ctx := context.Background()
	q := NewMockQueue(8, testLogger())

	sent := []*models.QueueMessage{
		{Line: "first line", SourceFile: "a.log"},
		{Line: "second line", SourceFile: "a.log"},
		{Line: "third line", SourceFile: "b.log"},
	}
	require.NoError(t, q.EnqueueBatch(ctx, sent))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), depth)

	for _, want := range sent {
		got, err := q.Dequeue(ctx, 100*time.Millisecond)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want.Line, got.Line)
		assert.Equal(t, want.SourceFile, got.SourceFile)
	}
}

func TestMockQueueEmptyPollIsNotAnError(t *testing.T) {
	q := NewMockQueue(1, testLogger())

	msg, err := q.Dequeue(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestMockQueueMalformedPayload(t *testing.T) {
	ctx := context.Background()
	q := NewMockQueue(4, testLogger())

	require.NoError(t, q.EnqueueRaw(ctx, []byte("{not json")))
	_, err := q.Dequeue(ctx, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrMalformedMessage)

	// Decodable JSON without the required line field is also malformed.
	require.NoError(t, q.EnqueueRaw(ctx, []byte(`{"source_file":"a.log"}`)))
	_, err = q.Dequeue(ctx, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestMockQueueDequeueHonorsContext(t *testing.T) {
	q := NewMockQueue(1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Dequeue(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
