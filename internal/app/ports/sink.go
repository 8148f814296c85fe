package ports

import (
	"context"
	"fmt"
	"time"
)

// NoteDraft is the structured payload handed to the downstream sink: the
// chunked changelog text plus summary metadata.
type NoteDraft struct {
	Chunks      []string
	RecordCount int
	// Preview is the first chunk, stored as a raw summary field on the note.
	Preview   string
	Timestamp time.Time
}

// RecordSink creates a note from a draft and returns the sink-assigned
// identifier.
type RecordSink interface {
	CreateNote(ctx context.Context, draft NoteDraft) (string, error)
}

// SinkError is a non-success response from the downstream sink. The entry
// is left without an external ref and is safe to forward again.
type SinkError struct {
	Status int
	Body   string
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink rejected request: status %d: %s", e.Status, e.Body)
}
