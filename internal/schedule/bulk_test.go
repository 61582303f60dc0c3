package schedule

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/abhisek/paperplan/internal/calendar"
)

func session(date, start, end string, chapter, number int) PlannedSession {
	return PlannedSession{
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		Title:         fmt.Sprintf("Chapter %d session %d", chapter, number),
		ChapterNumber: chapter,
		SessionNumber: number,
	}
}

func TestBulkValidator_AllValid(t *testing.T) {
	mem := calendar.NewMemory()
	v := NewBulkValidator(mem)

	sessions := []PlannedSession{
		session("2026-09-07", "09:00", "10:00", 1, 1),
		session("2026-09-09", "09:00", "10:00", 1, 2),
	}

	result, err := v.Validate(context.Background(), testUser, sessions, testSubject, testGrade)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Valid) != 2 || len(result.Conflicts) != 0 {
		t.Fatalf("expected 2 valid / 0 conflicts, got %d / %d", len(result.Valid), len(result.Conflicts))
	}
	if mem.ReadCount != 1 {
		t.Fatalf("expected one batched read, got %d", mem.ReadCount)
	}
}

func TestBulkValidator_PartitionPreservesOrder(t *testing.T) {
	mem := calendar.NewMemory(
		event("2026-09-09", "09:00", "10:00", "Mock exam"),
	)
	v := NewBulkValidator(mem)

	sessions := []PlannedSession{
		session("2026-09-07", "09:00", "10:00", 1, 1),
		session("2026-09-09", "09:30", "10:30", 1, 2), // overlaps the mock exam
		session("2026-09-11", "09:00", "10:00", 2, 1),
	}

	result, err := v.Validate(context.Background(), testUser, sessions, testSubject, testGrade)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Valid) != 2 {
		t.Fatalf("expected 2 valid, got %d", len(result.Valid))
	}
	if result.Valid[0].SessionNumber != 1 || result.Valid[1].ChapterNumber != 2 {
		t.Fatalf("valid sessions out of order: %+v", result.Valid)
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(result.Conflicts))
	}
	c := result.Conflicts[0]
	if c.SessionIndex != 1 {
		t.Fatalf("expected conflict at index 1, got %d", c.SessionIndex)
	}
	if c.ConflictWith == "" {
		t.Fatal("conflict description missing")
	}
}

func TestBulkValidator_ReadFailureFailsClosed(t *testing.T) {
	mem := calendar.NewMemory()
	mem.FailReads = true
	v := NewBulkValidator(mem)

	_, err := v.Validate(context.Background(), testUser,
		[]PlannedSession{session("2026-09-07", "09:00", "10:00", 1, 1)},
		testSubject, testGrade)
	if err == nil {
		t.Fatal("expected error")
	}
	var readErr *CalendarReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected CalendarReadError, got %T", err)
	}
}

func TestBulkValidator_RejectsMalformedSession(t *testing.T) {
	v := NewBulkValidator(calendar.NewMemory())

	bad := []PlannedSession{{Date: "2026-09-07", StartTime: "10:00", EndTime: "09:00", ChapterNumber: 1, SessionNumber: 1}}
	if _, err := v.Validate(context.Background(), testUser, bad, testSubject, testGrade); err == nil {
		t.Fatal("expected error for inverted interval")
	}
}

// TestBulkValidator_EquivalentToPerSessionChecks verifies the batched
// pass partitions exactly as one ConflictChecker call per session would.
func TestBulkValidator_EquivalentToPerSessionChecks(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 0))
	ctx := context.Background()
	dates := []string{"2026-09-07", "2026-09-08", "2026-09-09"}

	for trial := 0; trial < 50; trial++ {
		var fixtures []calendar.Event
		for i := 0; i < 1+rng.IntN(5); i++ {
			start := TimeOfDay(8*60 + rng.IntN(8*60))
			end := start + TimeOfDay(30+rng.IntN(90))
			fixtures = append(fixtures, event(dates[rng.IntN(len(dates))], start.String(), end.String(), "fixture"))
		}
		mem := calendar.NewMemory(fixtures...)

		var proposed []PlannedSession
		for i := 0; i < 1+rng.IntN(6); i++ {
			start := TimeOfDay(8*60 + rng.IntN(8*60))
			end := start + TimeOfDay(30+rng.IntN(90))
			proposed = append(proposed, session(dates[rng.IntN(len(dates))], start.String(), end.String(), 1, i+1))
		}

		bulk, err := NewBulkValidator(mem).Validate(ctx, testUser, proposed, testSubject, testGrade)
		if err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}

		checker := NewConflictChecker(mem, nil)
		var wantValid, wantConflicted int
		for _, s := range proposed {
			start, _ := ParseTimeOfDay(s.StartTime)
			end, _ := ParseTimeOfDay(s.EndTime)
			info, err := checker.Check(ctx, testUser, testSubject, testGrade, s.Date, start, end)
			if err != nil {
				t.Fatalf("trial %d: %v", trial, err)
			}
			if info.HasConflict {
				wantConflicted++
			} else {
				wantValid++
			}
		}

		if len(bulk.Valid) != wantValid || len(bulk.Conflicts) != wantConflicted {
			t.Fatalf("trial %d: bulk partition %d/%d differs from per-session %d/%d",
				trial, len(bulk.Valid), len(bulk.Conflicts), wantValid, wantConflicted)
		}
	}
}
