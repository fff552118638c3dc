package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"logpipe/config"
	"logpipe/internal/genlogs"
	"logpipe/internal/messaging/queue"
	"logpipe/internal/monitor"
	worker "logpipe/processing"
	reader "logpipe/reading"
	"logpipe/storage/store"
)

const defaultConfigPath = "./config/pipeline.defaults.yml"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "reader":
		runReader()
	case "processor":
		runProcessor()
	case "init-db":
		runInitDB()
	case "generate":
		runGenerate(os.Args[2:])
	case "stats":
		runStats()
	default:
		fmt.Fprintf(os.Stderr, "Unknown role: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: pipeline <role>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Roles:")
	fmt.Fprintln(os.Stderr, "  reader      Read log files and push to queue")
	fmt.Fprintln(os.Stderr, "  processor   Consume from queue and index to database")
	fmt.Fprintln(os.Stderr, "  init-db     Initialize database schema")
	fmt.Fprintln(os.Stderr, "  generate    Generate synthetic log files")
	fmt.Fprintln(os.Stderr, "  stats       Report queue depth and stored row counts")
}

func loadConfig(logger *log.Logger) *config.Config {
	path := os.Getenv("PIPELINE_CONFIG")
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	return cfg
}

// newQueue builds the configured broker client. A broker that is
// unreachable at startup is fatal; only the store connection retries.
func newQueue(cfg *config.Config, logger *log.Logger) queue.Queue {
	var q queue.Queue
	var err error

	switch cfg.Queue.Backend {
	case config.QueueBackendKafka:
		q, err = queue.NewKafkaQueue(cfg.Queue, logger)
	case config.QueueBackendMock:
		q = queue.NewMockQueue(0, logger)
	default:
		q, err = queue.NewRedisQueue(cfg.Queue, logger)
	}
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize queue client: %v", err)
	}
	return q
}

func runReader() {
	logger := log.New(os.Stdout, "[READER] ", log.LstdFlags)
	logger.Printf("Starting reader (instance %s)...", uuid.NewString())

	cfg := loadConfig(logger)
	q := newQueue(cfg, logger)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		reader.New(cfg.Reader, logger, q).Run(ctx)
	}()

	waitForShutdown(logger)
	cancel()
	wg.Wait()
	logger.Println("Reader shut down gracefully.")
}

func runProcessor() {
	logger := log.New(os.Stdout, "[PROCESSOR] ", log.LstdFlags)
	logger.Printf("Starting processor (instance %s)...", uuid.NewString())

	cfg := loadConfig(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Println("Initializing database connection...")
	dbStore, err := store.NewPostgresStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize database store: %v", err)
	}
	defer dbStore.Close()

	q := newQueue(cfg, logger)
	defer q.Close()

	w := worker.New(cfg.Worker, logger, dbStore, q)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := w.Run(ctx); err != nil {
			logger.Fatalf("FATAL: Processor failed: %v", err)
		}
	}()

	waitForShutdown(logger)
	cancel()
	wg.Wait()
	logger.Printf("Processor shut down gracefully (%d rows stored, %d messages dropped).", w.Stored(), w.Dropped())
}

func runInitDB() {
	logger := log.New(os.Stdout, "[DB] ", log.LstdFlags)
	cfg := loadConfig(logger)

	ctx := context.Background()
	dbStore, err := store.NewPostgresStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize database store: %v", err)
	}
	defer dbStore.Close()

	if err := dbStore.EnsureSchema(ctx); err != nil {
		logger.Fatalf("FATAL: Failed to ensure schema: %v", err)
	}
	logger.Println("Initialized 'logs' table.")
}

func runGenerate(args []string) {
	logger := log.New(os.Stdout, "[GENERATE] ", log.LstdFlags)
	cfg := loadConfig(logger)

	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	files := fs.Int("files", 5, "number of log files to generate")
	lines := fs.Int("lines", 10000, "lines per file")
	seed := fs.Int64("seed", 42, "random seed")
	fs.Parse(args)

	opts := genlogs.Options{
		Directory:    cfg.Reader.Directory,
		Files:        *files,
		LinesPerFile: *lines,
		Seed:         *seed,
	}
	if err := genlogs.Generate(opts, logger); err != nil {
		logger.Fatalf("FATAL: Log generation failed: %v", err)
	}
}

func runStats() {
	logger := log.New(os.Stdout, "[STATS] ", log.LstdFlags)
	cfg := loadConfig(logger)

	ctx := context.Background()
	dbStore, err := store.NewPostgresStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize database store: %v", err)
	}
	defer dbStore.Close()

	q := newQueue(cfg, logger)
	defer q.Close()

	snap, err := monitor.Collect(ctx, q, dbStore)
	if err != nil {
		logger.Fatalf("FATAL: Failed to collect pipeline stats: %v", err)
	}
	monitor.Report(snap, logger)
}

func waitForShutdown(logger *log.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received shutdown signal: %s, initiating graceful shutdown...", sig)
}
