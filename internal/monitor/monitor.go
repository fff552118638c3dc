// Package monitor reports a point-in-time snapshot of the pipeline:
// how many messages are waiting on the broker and how many rows the
// store holds, broken down by log type.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"logpipe/internal/messaging/queue"
	"logpipe/storage/store"
)

// Snapshot is one observation of the pipeline's externally visible
// state.
type Snapshot struct {
	QueueDepth      int64
	QueueDepthKnown bool
	TotalRows       int64
	RowsByType      map[string]int64
}

// Collect gathers a Snapshot from the queue and the store.
func Collect(ctx context.Context, q queue.Queue, s store.Store) (*Snapshot, error) {
	snap := &Snapshot{}

	depth, err := q.Depth(ctx)
	switch {
	case err == nil:
		snap.QueueDepth = depth
		snap.QueueDepthKnown = true
	case errors.Is(err, queue.ErrDepthUnsupported):
		// Leave the depth unknown; the report says so.
	default:
		return nil, fmt.Errorf("failed to read queue depth: %w", err)
	}

	snap.TotalRows, err = s.CountRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count stored rows: %w", err)
	}

	snap.RowsByType, err = s.CountByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count stored rows by type: %w", err)
	}

	return snap, nil
}

// Report prints a Snapshot through the given logger.
func Report(snap *Snapshot, logger *log.Logger) {
	if snap.QueueDepthKnown {
		logger.Printf("Queue depth: %d", snap.QueueDepth)
	} else {
		logger.Println("Queue depth: unavailable for this backend")
	}
	logger.Printf("Stored rows: %d", snap.TotalRows)

	types := make([]string, 0, len(snap.RowsByType))
	for t := range snap.RowsByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		logger.Printf("  %-10s %d", t, snap.RowsByType[t])
	}
}
