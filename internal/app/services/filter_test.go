package services

import (
	"testing"
	"time"

	"github.com/fr0stylo/mergelog/internal/app/ports"
)

func TestMergedWithinKeepsRecentMerges(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	inside := mergedRecord(1, 1, now.Add(-6*24*time.Hour))
	outside := mergedRecord(2, 2, now.Add(-8*24*time.Hour))

	got := MergedWithin([]ports.Record{inside, outside}, now, DefaultMergeWindow)
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected only the six-day-old record, got %+v", got)
	}
}

func TestMergedWithinWindowBoundary(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	justOutside := mergedRecord(1, 1, now.Add(-7*24*time.Hour-time.Second))
	justInside := mergedRecord(2, 2, now.Add(-7*24*time.Hour+time.Second))
	exactly := mergedRecord(3, 3, now.Add(-7*24*time.Hour))

	got := MergedWithin([]ports.Record{justOutside, justInside, exactly}, now, DefaultMergeWindow)
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected only the record merged strictly inside the window, got %+v", got)
	}
}

func TestMergedWithinExcludesUnmerged(t *testing.T) {
	t.Parallel()

	now := time.Now()
	open := ports.Record{ID: 1, Number: 1, Title: "open"}

	got := MergedWithin([]ports.Record{open}, now, DefaultMergeWindow)
	if len(got) != 0 {
		t.Fatalf("expected unmerged record excluded, got %+v", got)
	}
}

func TestMergedWithinPreservesOrder(t *testing.T) {
	t.Parallel()

	now := time.Now()
	records := []ports.Record{
		mergedRecord(3, 3, now.Add(-time.Hour)),
		mergedRecord(1, 1, now.Add(-2*time.Hour)),
		mergedRecord(2, 2, now.Add(-3*time.Hour)),
	}

	got := MergedWithin(records, now, DefaultMergeWindow)
	if len(got) != 3 {
		t.Fatalf("expected all records kept, got %d", len(got))
	}
	for i, want := range []int64{3, 1, 2} {
		if got[i].ID != want {
			t.Fatalf("order not preserved at %d: got %d want %d", i, got[i].ID, want)
		}
	}
}
