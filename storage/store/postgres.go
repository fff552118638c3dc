package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"logpipe/config"
)

const createLogsTable = `
CREATE TABLE IF NOT EXISTS logs (
    id SERIAL PRIMARY KEY,
    log_type VARCHAR(50),
    raw_line TEXT,
    timestamp VARCHAR(50),
    source_file VARCHAR(255),
    parsed_data JSONB,
    indexed_at TIMESTAMP DEFAULT NOW()
)`

const insertLogRow = `
INSERT INTO logs (log_type, raw_line, timestamp, source_file, parsed_data)
VALUES ($1, $2, $3, $4, $5)`

// PostgresStore implements the Store interface on a pgx connection
// pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

// NewPostgresStore connects to PostgreSQL with bounded retry and a
// fixed backoff between attempts. This is the only place in the
// pipeline where a connection failure is retried instead of being
// immediately fatal.
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig, logger *log.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConnections)
	poolCfg.MinConns = int32(cfg.MinConnections)

	backoff, err := time.ParseDuration(cfg.ConnectBackoff)
	if err != nil {
		logger.Printf("Warning: Invalid connect_backoff '%s', using default 2s", cfg.ConnectBackoff)
		backoff = 2 * time.Second
	}

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= cfg.ConnectRetries; attempt++ {
		pool, err = pgxpool.ConnectConfig(ctx, poolCfg)
		if err == nil {
			break
		}
		if attempt < cfg.ConnectRetries {
			logger.Printf("Database connection failed, retrying in %v... (attempt %d/%d): %v",
				backoff, attempt, cfg.ConnectRetries, err)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", cfg.ConnectRetries, err)
	}

	logger.Println("Database connection pool established")

	return &PostgresStore{
		pool:   pool,
		logger: logger,
	}, nil
}

// EnsureSchema implements the Store interface. CREATE TABLE IF NOT
// EXISTS makes repeated and concurrent calls converge on the same
// schema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createLogsTable); err != nil {
		return fmt.Errorf("failed to ensure logs table: %w", err)
	}
	s.logger.Println("Ensured 'logs' table exists")
	return nil
}

// InsertRow implements the Store interface.
func (s *PostgresStore) InsertRow(ctx context.Context, row *StoredRow) error {
	parsed, err := json.Marshal(row.ParsedData)
	if err != nil {
		return fmt.Errorf("failed to serialize parsed data: %w", err)
	}
	if _, err := s.pool.Exec(ctx, insertLogRow,
		row.LogType, row.RawLine, row.Timestamp, row.SourceFile, string(parsed)); err != nil {
		return fmt.Errorf("failed to insert log row: %w", err)
	}
	return nil
}

// InsertRows implements the Store interface with a single batched
// round-trip.
func (s *PostgresStore) InsertRows(ctx context.Context, rows []*StoredRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		parsed, err := json.Marshal(row.ParsedData)
		if err != nil {
			return fmt.Errorf("failed to serialize parsed data (source_file: %s): %w", row.SourceFile, err)
		}
		batch.Queue(insertLogRow, row.LogType, row.RawLine, row.Timestamp, row.SourceFile, string(parsed))
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert log row batch: %w", err)
		}
	}
	return nil
}

// CountRows implements the Store interface.
func (s *PostgresStore) CountRows(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM logs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count log rows: %w", err)
	}
	return count, nil
}

// CountByType implements the Store interface.
func (s *PostgresStore) CountByType(ctx context.Context) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, "SELECT log_type, COUNT(*) FROM logs GROUP BY log_type")
	if err != nil {
		return nil, fmt.Errorf("failed to count log rows by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var logType string
		var count int64
		if err := rows.Scan(&logType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan log type count: %w", err)
		}
		counts[logType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log type counts: %w", err)
	}
	return counts, nil
}

// Close implements the Store interface.
func (s *PostgresStore) Close() {
	s.logger.Println("Closing database connection pool...")
	s.pool.Close()
}

var _ Store = (*PostgresStore)(nil)
