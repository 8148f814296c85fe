package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fr0stylo/mergelog/internal/app/ports"
	"github.com/fr0stylo/mergelog/internal/db"
)

// DefaultHistoryLimit caps how many history entries are retained.
const DefaultHistoryLimit = 50

// HistoryStore persists the history log and the processed-record set in
// SQLite. Append and clear run inside single transactions, which gives the
// single-writer guarantee the pipeline relies on.
type HistoryStore struct {
	db    *db.Database
	limit int
}

// NewHistoryStore constructs the store. A non-positive limit falls back to
// DefaultHistoryLimit.
func NewHistoryStore(database *db.Database, limit int) *HistoryStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &HistoryStore{db: database, limit: limit}
}

// LoadHistory returns all retained entries, newest first. Rows whose stored
// records cannot be decoded are skipped rather than failing the whole read.
func (s *HistoryStore) LoadHistory(ctx context.Context) ([]ports.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, record_count, records_json, external_ref
		FROM history_entries
		ORDER BY rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	entries := make([]ports.HistoryEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			if errors.Is(err, errCorruptEntry) {
				slog.WarnContext(ctx, "Skipping unreadable history entry", "error", err)
				continue
			}
			return nil, fmt.Errorf("load history: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return entries, nil
}

// GetEntry returns one entry or ports.ErrEntryNotFound.
func (s *HistoryStore) GetEntry(ctx context.Context, id string) (ports.HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, record_count, records_json, external_ref
		FROM history_entries
		WHERE id = ?`, id)

	entry, err := scanEntry(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ports.HistoryEntry{}, ports.ErrEntryNotFound
		}
		if errors.Is(err, errCorruptEntry) {
			slog.WarnContext(ctx, "History entry records unreadable, treating as empty", "entry_id", id)
			return ports.HistoryEntry{ID: id}, nil
		}
		return ports.HistoryEntry{}, fmt.Errorf("get history entry %s: %w", id, err)
	}
	return entry, nil
}

// AppendEntry inserts the entry at the head of the log, evicts entries
// beyond the retention cap in the same transaction and returns the updated
// log.
func (s *HistoryStore) AppendEntry(ctx context.Context, entry ports.HistoryEntry) ([]ports.HistoryEntry, error) {
	recordsJSON, err := json.Marshal(entry.Records)
	if err != nil {
		return nil, fmt.Errorf("encode history records: %w", err)
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO history_entries (id, created_at, record_count, records_json, external_ref)
			VALUES (?, ?, ?, ?, NULL)`,
			entry.ID, entry.Timestamp.UTC().Format(time.RFC3339Nano), entry.Count, string(recordsJSON))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			DELETE FROM history_entries
			WHERE rowid NOT IN (
				SELECT rowid FROM history_entries ORDER BY rowid DESC LIMIT ?
			)`, s.limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("append history entry %s: %w", entry.ID, err)
	}

	return s.LoadHistory(ctx)
}

// ClearHistory removes the whole log and the processed set in one
// transaction, so a reset never leaves one structure cleared and the other
// not.
func (s *HistoryStore) ClearHistory(ctx context.Context) error {
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM history_entries`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM processed_records`)
		return err
	})
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// IsProcessed reports whether the record id is in the processed set.
func (s *HistoryStore) IsProcessed(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM processed_records WHERE record_id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check processed record %s: %w", id, err)
	}
	return true, nil
}

// MarkProcessed inserts the ids into the processed set. Already-present ids
// are left untouched.
func (s *HistoryStore) MarkProcessed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO processed_records (record_id, processed_at)
				VALUES (?, ?)`, id, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("mark records processed: %w", err)
	}
	return nil
}

// SetExternalRef stores the sink-assigned identifier on the entry. An entry
// that already carries a ref keeps the existing one.
func (s *HistoryStore) SetExternalRef(ctx context.Context, entryID, ref string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE history_entries
		SET external_ref = ?
		WHERE id = ? AND (external_ref IS NULL OR external_ref = '')`, ref, entryID)
	if err != nil {
		return fmt.Errorf("set external ref on %s: %w", entryID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set external ref on %s: %w", entryID, err)
	}
	if affected > 0 {
		return nil
	}

	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM history_entries WHERE id = ?`, entryID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrEntryNotFound
	}
	if err != nil {
		return fmt.Errorf("set external ref on %s: %w", entryID, err)
	}
	return nil
}

var errCorruptEntry = errors.New("corrupt history entry")

func scanEntry(scan func(dest ...any) error) (ports.HistoryEntry, error) {
	var (
		entry       ports.HistoryEntry
		createdAt   string
		recordsJSON string
		externalRef sql.NullString
	)
	if err := scan(&entry.ID, &createdAt, &entry.Count, &recordsJSON, &externalRef); err != nil {
		return ports.HistoryEntry{}, err
	}

	timestamp, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return ports.HistoryEntry{}, fmt.Errorf("%w: bad timestamp %q", errCorruptEntry, createdAt)
	}
	entry.Timestamp = timestamp

	if err := json.Unmarshal([]byte(recordsJSON), &entry.Records); err != nil {
		return ports.HistoryEntry{}, fmt.Errorf("%w: %v", errCorruptEntry, err)
	}
	if externalRef.Valid {
		entry.ExternalRef = externalRef.String
	}
	return entry, nil
}

var _ ports.HistoryStore = (*HistoryStore)(nil)
