package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"logpipe/config"
	"logpipe/internal/messaging/queue"
	"logpipe/internal/parser"
	"logpipe/storage/store"
)

const consumerRetryDelay = 5 * time.Second

// Worker consumes queue messages, parses them and persists the
// results. Unparseable lines and undecodable payloads are dropped
// without a trace; there is no dead-letter path.
type Worker struct {
	workerConfig config.WorkerConfig
	pollTimeout  time.Duration // Parsed from workerConfig.PollTimeout
	batchTimeout time.Duration // Parsed from workerConfig.BatchTimeout

	logger *log.Logger
	store  store.Store
	queue  queue.Queue

	// Shared across the worker goroutines; progress attribution only.
	storedTotal  int64
	droppedTotal int64
}

// New creates a new Worker instance
func New(cfg config.WorkerConfig, logger *log.Logger, s store.Store, q queue.Queue) *Worker {
	pollTimeout, err := time.ParseDuration(cfg.PollTimeout)
	if err != nil {
		logger.Printf("Warning: Invalid poll_timeout '%s', using default 1s", cfg.PollTimeout)
		pollTimeout = 1 * time.Second
	}

	batchTimeout, err := time.ParseDuration(cfg.BatchTimeout)
	if err != nil {
		logger.Printf("Warning: Invalid batch_timeout '%s', using default 1s", cfg.BatchTimeout)
		batchTimeout = 1 * time.Second
	}

	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}

	return &Worker{
		workerConfig: cfg,
		pollTimeout:  pollTimeout,
		batchTimeout: batchTimeout,
		logger:       logger,
		store:        s,
		queue:        q,
	}
}

// Run ensures the schema exists and then consumes until the context
// is cancelled. Each worker goroutine independently satisfies the
// per-message dequeue-parse-write contract.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.store.EnsureSchema(ctx); err != nil {
		return err
	}

	w.logger.Printf("Starting worker pool with concurrency: %d, BatchSize: %d, BatchTimeout: %s",
		w.workerConfig.Concurrency, w.workerConfig.BatchSize, w.batchTimeout)

	var wg sync.WaitGroup
	for i := 0; i < w.workerConfig.Concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.logger.Printf("Worker %d started", workerID)
			w.processMessages(ctx, workerID)
			w.logger.Printf("Worker %d stopped", workerID)
		}(i + 1)
	}
	wg.Wait()
	w.logger.Println("Worker pool stopped.")
	return nil
}

// Stored reports the number of rows written so far.
func (w *Worker) Stored() int64 { return atomic.LoadInt64(&w.storedTotal) }

// Dropped reports the number of unparseable or undecodable messages
// discarded so far.
func (w *Worker) Dropped() int64 { return atomic.LoadInt64(&w.droppedTotal) }

// processMessages is the main loop for a worker goroutine. Rows are
// accumulated up to BatchSize or BatchTimeout before one batched
// store write; messages already dequeued but not yet written are the
// documented loss window on a crash.
func (w *Worker) processMessages(ctx context.Context, workerID int) {
	batchRows := make([]*store.StoredRow, 0, w.workerConfig.BatchSize)
	batchTimer := time.NewTimer(0) // Start with stopped timer
	if !batchTimer.Stop() {
		select {
		case <-batchTimer.C:
		default:
		}
	}

	flush := func(flushCtx context.Context) {
		if len(batchRows) == 0 {
			return
		}

		// Stop and drain timer
		if !batchTimer.Stop() {
			select {
			case <-batchTimer.C:
			default:
			}
		}

		w.writeBatch(flushCtx, workerID, batchRows)
		batchRows = make([]*store.StoredRow, 0, w.workerConfig.BatchSize)
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Printf("Worker %d: Context cancelled, flushing %d buffered rows.", workerID, len(batchRows))
			// The worker context is already cancelled; the buffered
			// rows were destructively dequeued, so they get one last
			// write on a detached context before shutdown.
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			flush(flushCtx)
			cancel()
			return

		case <-batchTimer.C:
			// Batch timeout reached
			flush(ctx)

		default:
			msg, err := w.queue.Dequeue(ctx, w.pollTimeout)
			if err != nil {
				if errors.Is(err, queue.ErrMalformedMessage) {
					atomic.AddInt64(&w.droppedTotal, 1)
					continue
				}
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				w.logger.Printf("Worker %d: Queue error: %v", workerID, err)
				select {
				case <-time.After(consumerRetryDelay):
				case <-ctx.Done():
				}
				continue
			}
			if msg == nil {
				continue // empty poll, keep looping
			}

			rec := parser.Parse(msg.Line)
			if rec == nil {
				atomic.AddInt64(&w.droppedTotal, 1)
				continue
			}

			// Start batch timer on first row
			if len(batchRows) == 0 {
				batchTimer.Reset(w.batchTimeout)
			}

			batchRows = append(batchRows, buildRow(msg.Line, msg.SourceFile, rec))

			if len(batchRows) >= w.workerConfig.BatchSize {
				flush(ctx)
			}
		}
	}
}

// writeBatch persists one batch and emits the periodic progress line.
func (w *Worker) writeBatch(ctx context.Context, workerID int, rows []*store.StoredRow) {
	if err := w.store.InsertRows(ctx, rows); err != nil {
		// The messages were destructively dequeued; with no ack
		// channel back to the broker these rows are lost.
		w.logger.Printf("Worker %d: CRITICAL: batch insert of %d rows failed, rows lost: %v", workerID, len(rows), err)
		return
	}

	total := atomic.AddInt64(&w.storedTotal, int64(len(rows)))
	interval := int64(w.workerConfig.ProgressInterval)
	if interval > 0 && (total-int64(len(rows)))/interval != total/interval {
		w.logger.Printf("Indexed %d records so far... (%d dropped)", total, w.Dropped())
	}
}

// buildRow turns a parsed record into its stored representation. The
// parsed_data blob carries every extracted field plus the log type,
// so rows stay queryable by arbitrary parsed fields.
func buildRow(line, sourceFile string, rec *parser.ParsedRecord) *store.StoredRow {
	parsedData := make(map[string]string, len(rec.Fields)+1)
	for k, v := range rec.Fields {
		parsedData[k] = v
	}
	parsedData["log_type"] = rec.LogType

	return &store.StoredRow{
		LogType:    rec.LogType,
		RawLine:    line,
		Timestamp:  rec.Timestamp,
		SourceFile: sourceFile,
		ParsedData: parsedData,
	}
}
