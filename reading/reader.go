package reader

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"logpipe/config"
	"logpipe/internal/messaging/queue"
	"logpipe/internal/models"
)

// Reader discovers log files in the watched directory and streams
// their lines onto the queue. Files are picked up by periodic
// directory sweeps; there is no filesystem-event mechanism, so a new
// file is seen at the latest one sweep interval after it appears.
type Reader struct {
	readerConfig  config.ReaderConfig
	sweepInterval time.Duration
	logger        *log.Logger
	queue         queue.Queue

	// processedFiles holds the names of fully streamed files for the
	// lifetime of this process. It is deliberately not persisted: a
	// restart re-streams everything on disk and produces duplicate
	// messages downstream.
	processedFiles map[string]bool
}

// New creates a new Reader instance.
func New(cfg config.ReaderConfig, logger *log.Logger, q queue.Queue) *Reader {
	sweepInterval, err := time.ParseDuration(cfg.SweepInterval)
	if err != nil {
		logger.Printf("Warning: Invalid sweep_interval '%s', using default 1s", cfg.SweepInterval)
		sweepInterval = 1 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}

	return &Reader{
		readerConfig:   cfg,
		sweepInterval:  sweepInterval,
		logger:         logger,
		queue:          q,
		processedFiles: make(map[string]bool),
	}
}

// Run sweeps the watched directory until the context is cancelled,
// idling for the sweep interval between passes.
func (r *Reader) Run(ctx context.Context) {
	r.logger.Printf("Watching %s for %s files...", r.readerConfig.Directory, r.readerConfig.FileSuffix)

	for {
		r.Sweep(ctx)

		select {
		case <-ctx.Done():
			r.logger.Println("Context cancelled, stopping reader.")
			return
		case <-time.After(r.sweepInterval):
		}
	}
}

// Sweep lists the watched directory once and streams every matching
// file that has not been fully streamed before. An I/O error on one
// file aborts only that file; since completion is marked after the
// whole file succeeds, it is retried on the next sweep.
func (r *Reader) Sweep(ctx context.Context) {
	entries, err := os.ReadDir(r.readerConfig.Directory)
	if err != nil {
		r.logger.Printf("Failed to list %s: %v", r.readerConfig.Directory, err)
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, r.readerConfig.FileSuffix) || r.processedFiles[name] {
			continue
		}

		r.logger.Printf("Processing: %s", name)
		lineCount, err := r.streamFile(ctx, name)
		if err != nil {
			r.logger.Printf("Aborted %s, will retry next sweep: %v", name, err)
			continue
		}

		r.processedFiles[name] = true
		r.logger.Printf("Done with %s: %d lines pushed to queue.", name, lineCount)
	}
}

// streamFile enqueues every non-blank line of one file in file order.
// Lines are shipped in batches of at most batch_size, one broker
// round-trip each; the per-line contract (one message per line, in
// order, attributed to this file) is unchanged by the batching.
func (r *Reader) streamFile(ctx context.Context, name string) (int, error) {
	f, err := os.Open(filepath.Join(r.readerConfig.Directory, name))
	if err != nil {
		return 0, fmt.Errorf("failed to open: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineCount := 0
	batch := make([]*models.QueueMessage, 0, r.readerConfig.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.queue.EnqueueBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to enqueue batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		batch = append(batch, &models.QueueMessage{Line: line, SourceFile: name})
		lineCount++

		if len(batch) >= r.readerConfig.BatchSize {
			if err := flush(); err != nil {
				return lineCount, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return lineCount, fmt.Errorf("failed while reading: %w", err)
	}

	return lineCount, flush()
}
