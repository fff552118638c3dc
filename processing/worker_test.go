package worker

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logpipe/config"
	"logpipe/internal/messaging/queue"
	"logpipe/internal/models"
	"logpipe/storage/store"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testConfig() config.WorkerConfig {
	return config.WorkerConfig{
		Concurrency:      1,
		PollTimeout:      "10ms",
		BatchSize:        2,
		BatchTimeout:     "20ms",
		ProgressInterval: 1000,
	}
}

// runWorker starts the worker and returns a stop function that
// cancels it and waits for Run to return.
func runWorker(t *testing.T, w *Worker) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	return func() {
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("worker did not stop after context cancellation")
		}
	}
}

func TestWorkerStoresParsedMessages(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMockQueue(16, testLogger())
	ms := store.NewMemoryStore()

	msgs := []*models.QueueMessage{
		{Line: "2024-01-15T10:23:45.123Z|action=accept|src=192.168.1.100|dst_port=443", SourceFile: "fw.log"},
		{Line: "2024-01-15T10:23:46.000Z client 192.168.1.100 query: evil-domain.com IN A + (10.0.0.1) NOERROR", SourceFile: "dns.log"},
		{Line: "2024-01-15T10:23:47.000Z auth-srv01 sshd[12345]: Accepted password for admin from 192.168.1.100 port 54321 ssh2", SourceFile: "auth.log"},
	}
	require.NoError(t, q.EnqueueBatch(ctx, msgs))

	w := New(testConfig(), testLogger(), ms, q)
	stop := runWorker(t, w)

	require.Eventually(t, func() bool { return w.Stored() == 3 },
		3*time.Second, 10*time.Millisecond)
	stop()

	rows := ms.Rows()
	require.Len(t, rows, 3)

	byType := map[string]*store.StoredRow{}
	for _, row := range rows {
		byType[row.LogType] = row
	}

	fw := byType["firewall"]
	require.NotNil(t, fw)
	assert.Equal(t, msgs[0].Line, fw.RawLine)
	assert.Equal(t, "2024-01-15T10:23:45.123Z", fw.Timestamp)
	assert.Equal(t, "fw.log", fw.SourceFile)
	assert.Equal(t, "accept", fw.ParsedData["action"])
	assert.Equal(t, "firewall", fw.ParsedData["log_type"])

	dns := byType["dns"]
	require.NotNil(t, dns)
	assert.Equal(t, "evil-domain.com", dns.ParsedData["query_domain"])
	assert.Equal(t, "NOERROR", dns.ParsedData["response_code"])

	auth := byType["auth"]
	require.NotNil(t, auth)
	assert.Equal(t, "admin", auth.ParsedData["username"])
	assert.Equal(t, "Accepted", auth.ParsedData["status"])
}

func TestWorkerDropsUnparseableAndMalformed(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMockQueue(16, testLogger())
	ms := store.NewMemoryStore()

	require.NoError(t, q.Enqueue(ctx, &models.QueueMessage{Line: "complete gibberish with no structure", SourceFile: "x.log"}))
	require.NoError(t, q.EnqueueRaw(ctx, []byte("{broken json")))
	require.NoError(t, q.Enqueue(ctx, &models.QueueMessage{Line: "2024-01-15T10:23:45.123Z|action=drop|src=192.168.1.9", SourceFile: "fw.log"}))

	w := New(testConfig(), testLogger(), ms, q)
	stop := runWorker(t, w)

	require.Eventually(t, func() bool { return w.Stored() == 1 && w.Dropped() == 2 },
		3*time.Second, 10*time.Millisecond)
	stop()

	// Dropped messages leave no trace in the store.
	rows := ms.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "firewall", rows[0].LogType)
}

func TestWorkerFlushesPartialBatchOnTimeout(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMockQueue(16, testLogger())
	ms := store.NewMemoryStore()

	cfg := testConfig()
	cfg.BatchSize = 100 // larger than the message count
	require.NoError(t, q.Enqueue(ctx, &models.QueueMessage{Line: "ts|action=accept|src=10.0.0.1", SourceFile: "fw.log"}))

	w := New(cfg, testLogger(), ms, q)
	stop := runWorker(t, w)

	require.Eventually(t, func() bool { return w.Stored() == 1 },
		3*time.Second, 10*time.Millisecond)
	stop()
}

func TestWorkerPoolProcessesEveryMessageOnce(t *testing.T) {
	ctx := context.Background()
	q := queue.NewMockQueue(256, testLogger())
	ms := store.NewMemoryStore()

	const n = 100
	for i := 0; i < n; i++ {
		line := fmt.Sprintf("2024-01-15T10:23:45.123Z|action=accept|seq=%d|src=192.168.1.1", i)
		require.NoError(t, q.Enqueue(ctx, &models.QueueMessage{Line: line, SourceFile: "seq.log"}))
	}

	cfg := testConfig()
	cfg.Concurrency = 4
	w := New(cfg, testLogger(), ms, q)
	stop := runWorker(t, w)

	require.Eventually(t, func() bool { return w.Stored() == n },
		5*time.Second, 10*time.Millisecond)
	stop()

	// Exactly one row per message, each sequence number seen once.
	rows := ms.Rows()
	require.Len(t, rows, n)
	seen := make(map[string]bool, n)
	for _, row := range rows {
		seq := row.ParsedData["seq"]
		assert.False(t, seen[seq], "sequence %s stored twice", seq)
		seen[seq] = true
	}
}
