package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/fr0stylo/mergelog/internal/app/ports"
)

// ErrSourceUnavailable indicates the record source returned a non-success
// status or a malformed payload. Fatal for the current cycle only.
var ErrSourceUnavailable = errors.New("record source unavailable")

// IngestResult reports the outcome of one ingestion cycle.
type IngestResult struct {
	Added   int    `json:"count"`
	Message string `json:"message"`
}

// IngestService runs the fetch, filter, dedup, append, mark cycle as one
// request-driven unit of work. It never retries internally; a failed cycle
// surfaces to the caller, who may run the whole cycle again.
type IngestService struct {
	source ports.RecordSource
	store  ports.HistoryStore
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	lastID int64
}

// NewIngestService constructs the ingestion pipeline.
func NewIngestService(source ports.RecordSource, store ports.HistoryStore, window time.Duration) *IngestService {
	if window <= 0 {
		window = DefaultMergeWindow
	}
	return &IngestService{
		source: source,
		store:  store,
		window: window,
		now:    time.Now,
	}
}

// nextEntryID derives an entry id from the cycle timestamp in unix
// milliseconds, bumped past the previous id so two cycles landing in the
// same millisecond still get distinct keys.
func (s *IngestService) nextEntryID(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	millis := now.UnixMilli()
	if millis <= s.lastID {
		millis = s.lastID + 1
	}
	s.lastID = millis
	return strconv.FormatInt(millis, 10)
}

// Ingest fetches the current batch, keeps records merged within the window
// and not yet processed, appends them as a new history entry and marks them
// processed. Running it again against an unchanged source is a zero-count
// success.
//
// Append and mark are two durable steps on purpose: if marking fails after
// the append succeeded, the entry stays in history and the error surfaces.
// The next cycle may then re-append the same records rather than lose them.
func (s *IngestService) Ingest(ctx context.Context) (IngestResult, error) {
	records, err := s.source.FetchRecords(ctx)
	if err != nil {
		return IngestResult{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	slog.InfoContext(ctx, "Fetched records from source", "count", len(records))

	now := s.now()
	merged := MergedWithin(records, now, s.window)

	fresh, err := SelectUnprocessed(ctx, s.store, merged)
	if err != nil {
		return IngestResult{}, err
	}

	if len(fresh) == 0 {
		return IngestResult{Added: 0, Message: "no new pull requests to process"}, nil
	}

	entry := ports.HistoryEntry{
		ID:        s.nextEntryID(now),
		Timestamp: now,
		Records:   fresh,
		Count:     len(fresh),
	}
	if _, err := s.store.AppendEntry(ctx, entry); err != nil {
		return IngestResult{}, fmt.Errorf("append history entry: %w", err)
	}

	ids := make([]string, 0, len(fresh))
	for _, record := range fresh {
		ids = append(ids, record.Key())
	}
	if err := s.store.MarkProcessed(ctx, ids); err != nil {
		return IngestResult{}, fmt.Errorf("mark records processed: %w", err)
	}

	slog.InfoContext(ctx, "Ingested new records", "entry_id", entry.ID, "count", entry.Count)
	return IngestResult{
		Added:   len(fresh),
		Message: fmt.Sprintf("successfully ingested %d new pull requests", len(fresh)),
	}, nil
}
