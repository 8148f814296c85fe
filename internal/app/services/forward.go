package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fr0stylo/mergelog/internal/app/ports"
)

// ErrEmptyBatch indicates a forward was attempted on a history entry with
// no records.
var ErrEmptyBatch = errors.New("history entry has no records")

// ForwardService chunks a history entry's records and sends them to the
// downstream sink, persisting the returned identifier on the entry.
type ForwardService struct {
	store    ports.HistoryStore
	sink     ports.RecordSink
	capacity int
	now      func() time.Time
}

// NewForwardService constructs the forwarding adapter.
func NewForwardService(store ports.HistoryStore, sink ports.RecordSink, capacity int) *ForwardService {
	if capacity <= 0 {
		capacity = DefaultChunkCapacity
	}
	return &ForwardService{
		store:    store,
		sink:     sink,
		capacity: capacity,
		now:      time.Now,
	}
}

// Forward sends the entry identified by entryID to the sink and returns the
// sink-assigned identifier. Forwarding an entry that already carries a ref
// returns the stored ref without contacting the sink. A sink rejection
// leaves the entry without a ref, forwardable again on the next attempt.
func (s *ForwardService) Forward(ctx context.Context, entryID string) (string, error) {
	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return "", err
	}
	if entry.ExternalRef != "" {
		return entry.ExternalRef, nil
	}
	if len(entry.Records) == 0 {
		return "", ErrEmptyBatch
	}

	chunks := ChunkRecords(entry.Records, s.capacity)
	preview := ""
	if len(chunks) > 0 {
		preview = chunks[0]
	}

	ref, err := s.sink.CreateNote(ctx, ports.NoteDraft{
		Chunks:      chunks,
		RecordCount: len(entry.Records),
		Preview:     preview,
		Timestamp:   s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("create note: %w", err)
	}

	if err := s.store.SetExternalRef(ctx, entryID, ref); err != nil {
		return "", fmt.Errorf("store external ref %s: %w", ref, err)
	}
	return ref, nil
}
