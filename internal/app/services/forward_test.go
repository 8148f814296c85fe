package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fr0stylo/mergelog/internal/app/ports"
)

func historyEntryWith(id string, records ...ports.Record) ports.HistoryEntry {
	return ports.HistoryEntry{
		ID:        id,
		Timestamp: time.Now(),
		Records:   records,
		Count:     len(records),
	}
}

func TestForwardSendsChunksAndStoresRef(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := newFakeStore()
	store.entries = []ports.HistoryEntry{historyEntryWith("e1", mergedRecord(1, 1, now), mergedRecord(2, 2, now))}
	sink := &fakeSink{ref: "rec_123"}

	svc := NewForwardService(store, sink, DefaultChunkCapacity)
	ref, err := svc.Forward(context.Background(), "e1")
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if ref != "rec_123" {
		t.Fatalf("unexpected ref: %q", ref)
	}
	if store.entries[0].ExternalRef != "rec_123" {
		t.Fatalf("external ref not persisted: %+v", store.entries[0])
	}

	if len(sink.drafts) != 1 {
		t.Fatalf("expected one sink call, got %d", len(sink.drafts))
	}
	draft := sink.drafts[0]
	if draft.RecordCount != 2 {
		t.Fatalf("unexpected record count: %d", draft.RecordCount)
	}
	if len(draft.Chunks) == 0 || draft.Preview != draft.Chunks[0] {
		t.Fatalf("preview should be the first chunk: %+v", draft)
	}
	joined := strings.Join(draft.Chunks, "")
	if !strings.Contains(joined, "PR 1 ") || !strings.Contains(joined, "PR 2 ") {
		t.Fatalf("chunks missing record content: %q", joined)
	}
}

func TestForwardEmptyEntryFails(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.entries = []ports.HistoryEntry{historyEntryWith("empty")}
	sink := &fakeSink{ref: "rec_1"}

	svc := NewForwardService(store, sink, DefaultChunkCapacity)
	_, err := svc.Forward(context.Background(), "empty")
	if !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
	if sink.calls != 0 {
		t.Fatalf("sink must not be contacted for an empty entry")
	}
	if store.entries[0].ExternalRef != "" {
		t.Fatalf("history must be unchanged after rejected forward")
	}
}

func TestForwardUnknownEntry(t *testing.T) {
	t.Parallel()

	svc := NewForwardService(newFakeStore(), &fakeSink{}, DefaultChunkCapacity)
	_, err := svc.Forward(context.Background(), "missing")
	if !errors.Is(err, ports.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestForwardSinkRejectionLeavesEntryForwardable(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := newFakeStore()
	store.entries = []ports.HistoryEntry{historyEntryWith("e1", mergedRecord(1, 1, now))}
	sink := &fakeSink{err: &ports.SinkError{Status: 400, Body: "validation_error"}}

	svc := NewForwardService(store, sink, DefaultChunkCapacity)
	_, err := svc.Forward(context.Background(), "e1")

	var sinkErr *ports.SinkError
	if !errors.As(err, &sinkErr) || sinkErr.Status != 400 {
		t.Fatalf("expected SinkError with status 400, got %v", err)
	}
	if store.entries[0].ExternalRef != "" {
		t.Fatalf("rejected forward must not persist a ref")
	}

	sink.err = nil
	sink.ref = "rec_retry"
	ref, err := svc.Forward(context.Background(), "e1")
	if err != nil || ref != "rec_retry" {
		t.Fatalf("entry should be forwardable after rejection, got ref %q err %v", ref, err)
	}
}

func TestForwardRepeatReturnsStoredRefWithoutSecondSend(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := newFakeStore()
	store.entries = []ports.HistoryEntry{historyEntryWith("e1", mergedRecord(1, 1, now))}
	sink := &fakeSink{ref: "rec_once"}

	svc := NewForwardService(store, sink, DefaultChunkCapacity)
	if _, err := svc.Forward(context.Background(), "e1"); err != nil {
		t.Fatalf("first forward: %v", err)
	}

	ref, err := svc.Forward(context.Background(), "e1")
	if err != nil {
		t.Fatalf("second forward: %v", err)
	}
	if ref != "rec_once" {
		t.Fatalf("expected stored ref, got %q", ref)
	}
	if sink.calls != 1 {
		t.Fatalf("expected a single sink call, got %d", sink.calls)
	}
}
