package calendar_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/abhisek/paperplan/internal/calendar"
	"github.com/abhisek/paperplan/internal/store"
)

func TestSQLStore_RoundTrip(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	cs := calendar.NewSQLStore(s.DB())
	ctx := context.Background()

	err = cs.InsertEvents(ctx, []calendar.Event{
		{UserID: "user-1", SubjectID: "subj-math", GradeID: "grade-10",
			Date: "2026-09-08", StartTime: "11:00", EndTime: "12:00", Title: "Algebra"},
		{UserID: "user-1", SubjectID: "subj-math", GradeID: "grade-10",
			Date: "2026-09-07", StartTime: "09:00", EndTime: "10:00", Title: "Geometry"},
		{UserID: "user-2", SubjectID: "subj-math", GradeID: "grade-10",
			Date: "2026-09-07", StartTime: "09:00", EndTime: "10:00", Title: "Someone else"},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	events, err := cs.EventsInRange(ctx, "user-1", "2026-09-01", "2026-09-30")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events for user-1, got %d", len(events))
	}
	// Ordered by date then start time.
	if events[0].Title != "Geometry" || events[1].Title != "Algebra" {
		t.Fatalf("order wrong: %+v", events)
	}
	if events[0].ID == "" {
		t.Fatal("missing IDs must be generated on insert")
	}

	// Range bounds are inclusive.
	events, err = cs.EventsInRange(ctx, "user-1", "2026-09-07", "2026-09-07")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("inclusive range broken, got %d events", len(events))
	}

	// Empty insert is a no-op.
	if err := cs.InsertEvents(ctx, nil); err != nil {
		t.Fatalf("empty insert: %v", err)
	}
}
