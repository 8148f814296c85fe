package ports

import (
	"context"
	"errors"
)

// ErrEntryNotFound indicates the requested history entry does not exist.
var ErrEntryNotFound = errors.New("history entry not found")

// HistoryStore is the storage contract for the bounded history log and the
// processed-record set. It is intentionally backend-agnostic: the sqlite
// adapter implements it today, but any transactional store can.
//
// Implementations must serialize mutations so that concurrent appends,
// marks and clears never lose an update, and must clear the history log
// and the processed set together atomically.
type HistoryStore interface {
	// LoadHistory returns all entries newest first. Unreadable persisted
	// state is reported as an empty log, never as an error.
	LoadHistory(ctx context.Context) ([]HistoryEntry, error)
	// GetEntry returns a single entry or ErrEntryNotFound.
	GetEntry(ctx context.Context, id string) (HistoryEntry, error)
	// AppendEntry inserts the entry at the head, evicts entries beyond the
	// retention cap and returns the updated log.
	AppendEntry(ctx context.Context, entry HistoryEntry) ([]HistoryEntry, error)
	// ClearHistory removes every entry and every processed-record marker
	// as one atomic operation.
	ClearHistory(ctx context.Context) error

	IsProcessed(ctx context.Context, id string) (bool, error)
	// MarkProcessed records ids as processed. Marking an already-present
	// id is a no-op.
	MarkProcessed(ctx context.Context, ids []string) error

	// SetExternalRef attaches a sink-assigned identifier to an entry. An
	// entry that already carries a ref keeps it.
	SetExternalRef(ctx context.Context, entryID, ref string) error
}
