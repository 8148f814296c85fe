package services

import (
	"time"

	"github.com/fr0stylo/mergelog/internal/app/ports"
)

// DefaultMergeWindow is the trailing window a record must have been merged
// within to qualify for ingestion.
const DefaultMergeWindow = 7 * 24 * time.Hour

// MergedWithin returns the records merged strictly after now-window,
// preserving order. Records that were never merged are excluded.
func MergedWithin(records []ports.Record, now time.Time, window time.Duration) []ports.Record {
	if window <= 0 {
		window = DefaultMergeWindow
	}
	cutoff := now.Add(-window)

	out := make([]ports.Record, 0, len(records))
	for _, record := range records {
		if record.MergedAt == nil {
			continue
		}
		if record.MergedAt.After(cutoff) {
			out = append(out, record)
		}
	}
	return out
}
