package history

import (
	"testing"
	"time"

	"urs-backend/internal/lifecycle"
)

func TestSortCanonicalNewestFirstThenHigherID(t *testing.T) {
	base := time.Date(2026, time.February, 1, 8, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: 1, CreatedAt: base},
		{ID: 2, CreatedAt: base.Add(time.Minute)},
		{ID: 3, CreatedAt: base.Add(time.Minute)},
		{ID: 4, CreatedAt: base.Add(-time.Minute)},
	}

	SortCanonical(entries)

	want := []int64{3, 2, 1, 4}
	for i, id := range want {
		if entries[i].ID != id {
			t.Fatalf("position %d: expected id %d, got %d", i, id, entries[i].ID)
		}
	}
}

func TestFromStepsStampsActorAndTime(t *testing.T) {
	at := time.Date(2026, time.February, 1, 8, 0, 0, 0, time.UTC)
	reason := lifecycle.AutoAdvanceReason
	steps := []lifecycle.Step{
		{Status: lifecycle.VerificationEntry(lifecycle.VerificationApproved)},
		{Status: lifecycle.ProgressEntry(lifecycle.StatusDevelopment), Reason: &reason},
	}

	entries := FromSteps(42, "admin-1", at, steps)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.RequestID != 42 || e.ActorID != "admin-1" || !e.CreatedAt.Equal(at) {
			t.Fatalf("unexpected entry %+v", e)
		}
	}
	if entries[0].Kind() != lifecycle.KindVerification || entries[1].Kind() != lifecycle.KindProgress {
		t.Fatalf("kinds not preserved: %s, %s", entries[0].Kind(), entries[1].Kind())
	}
}
