package ports

import (
	"strconv"
	"time"
)

// Record is one merged pull request fetched from the record source.
// Records are immutable once fetched.
type Record struct {
	ID        int64      `json:"id"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body,omitempty"`
	Author    string     `json:"author"`
	CreatedAt time.Time  `json:"createdAt"`
	MergedAt  *time.Time `json:"mergedAt,omitempty"`
	URL       string     `json:"url"`
}

// Key returns the stable string identity used by the processed set.
func (r Record) Key() string {
	return strconv.FormatInt(r.ID, 10)
}

// HistoryEntry is one ingestion batch. Immutable after creation except for
// ExternalRef, which is set at most once after a successful forward.
type HistoryEntry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Records     []Record  `json:"records"`
	Count       int       `json:"count"`
	ExternalRef string    `json:"externalRef,omitempty"`
}
