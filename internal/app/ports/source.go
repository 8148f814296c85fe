package ports

import (
	"context"
)

// RecordSource fetches the raw batch of recently updated change records
// from the external source. A non-success response or malformed payload is
// returned as an error and aborts the current ingestion cycle.
type RecordSource interface {
	FetchRecords(ctx context.Context) ([]Record, error)
}
