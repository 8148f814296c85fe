package services

import (
	"context"
	"fmt"

	"github.com/fr0stylo/mergelog/internal/app/ports"
)

type processedChecker interface {
	IsProcessed(ctx context.Context, id string) (bool, error)
}

// SelectUnprocessed returns the records whose identity is not yet in the
// processed set, preserving order. Marking happens separately, after the
// batch has been appended to history, so a crash between the two steps
// never loses a fetched batch.
func SelectUnprocessed(ctx context.Context, checker processedChecker, records []ports.Record) ([]ports.Record, error) {
	out := make([]ports.Record, 0, len(records))
	for _, record := range records {
		seen, err := checker.IsProcessed(ctx, record.Key())
		if err != nil {
			return nil, fmt.Errorf("check processed %s: %w", record.Key(), err)
		}
		if !seen {
			out = append(out, record)
		}
	}
	return out, nil
}
