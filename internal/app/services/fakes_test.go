package services

import (
	"context"
	"errors"
	"time"

	"github.com/fr0stylo/mergelog/internal/app/ports"
)

type fakeSource struct {
	records []ports.Record
	err     error
	calls   int
}

func (f *fakeSource) FetchRecords(ctx context.Context) ([]ports.Record, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeStore struct {
	entries   []ports.HistoryEntry
	processed map[string]bool
	limit     int

	appendErr error
	markErr   error
	setRefErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{processed: map[string]bool{}, limit: 50}
}

func (f *fakeStore) LoadHistory(ctx context.Context) ([]ports.HistoryEntry, error) {
	return f.entries, nil
}

func (f *fakeStore) GetEntry(ctx context.Context, id string) (ports.HistoryEntry, error) {
	for _, entry := range f.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return ports.HistoryEntry{}, ports.ErrEntryNotFound
}

func (f *fakeStore) AppendEntry(ctx context.Context, entry ports.HistoryEntry) ([]ports.HistoryEntry, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.entries = append([]ports.HistoryEntry{entry}, f.entries...)
	if len(f.entries) > f.limit {
		f.entries = f.entries[:f.limit]
	}
	return f.entries, nil
}

func (f *fakeStore) ClearHistory(ctx context.Context) error {
	f.entries = nil
	f.processed = map[string]bool{}
	return nil
}

func (f *fakeStore) IsProcessed(ctx context.Context, id string) (bool, error) {
	return f.processed[id], nil
}

func (f *fakeStore) MarkProcessed(ctx context.Context, ids []string) error {
	if f.markErr != nil {
		return f.markErr
	}
	for _, id := range ids {
		f.processed[id] = true
	}
	return nil
}

func (f *fakeStore) SetExternalRef(ctx context.Context, entryID, ref string) error {
	if f.setRefErr != nil {
		return f.setRefErr
	}
	for i := range f.entries {
		if f.entries[i].ID == entryID {
			if f.entries[i].ExternalRef == "" {
				f.entries[i].ExternalRef = ref
			}
			return nil
		}
	}
	return ports.ErrEntryNotFound
}

var _ ports.HistoryStore = (*fakeStore)(nil)

type fakeSink struct {
	ref    string
	err    error
	calls  int
	drafts []ports.NoteDraft
}

func (f *fakeSink) CreateNote(ctx context.Context, draft ports.NoteDraft) (string, error) {
	f.calls++
	f.drafts = append(f.drafts, draft)
	if f.err != nil {
		return "", f.err
	}
	return f.ref, nil
}

var errBoom = errors.New("boom")

func mergedRecord(id int64, number int, mergedAt time.Time) ports.Record {
	return ports.Record{
		ID:        id,
		Number:    number,
		Title:     "change",
		Author:    "octocat",
		CreatedAt: mergedAt.Add(-time.Hour),
		MergedAt:  &mergedAt,
		URL:       "https://example.com/pr",
	}
}
