package schedule

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/abhisek/paperplan/internal/calendar"
)

const (
	testUser    = "user-1"
	testSubject = "subj-math"
	testGrade   = "grade-10"
)

func event(date, start, end, title string) calendar.Event {
	return calendar.Event{
		UserID:    testUser,
		SubjectID: testSubject,
		GradeID:   testGrade,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Title:     title,
	}
}

func otherSubjectEvent(date, start, end, title string) calendar.Event {
	e := event(date, start, end, title)
	e.SubjectID = "subj-physics"
	return e
}

func TestConflictChecker_NoEvents(t *testing.T) {
	checker := NewConflictChecker(calendar.NewMemory(), nil)

	info, err := checker.Check(context.Background(), testUser, testSubject, testGrade, "2026-09-07", 9*60, 10*60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.HasConflict {
		t.Fatal("empty calendar should not conflict")
	}
	if info.ConflictCount != 0 {
		t.Fatalf("expected 0 conflicts, got %d", info.ConflictCount)
	}
}

func TestConflictChecker_BackToBackDoesNotConflict(t *testing.T) {
	mem := calendar.NewMemory(event("2026-09-07", "09:00", "10:00", "Algebra"))
	checker := NewConflictChecker(mem, nil)

	// Starts exactly when the existing event ends.
	info, err := checker.Check(context.Background(), testUser, testSubject, testGrade, "2026-09-07", 10*60, 11*60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.HasConflict {
		t.Fatal("back-to-back intervals must not conflict")
	}

	// Ends exactly when the existing event starts.
	info, err = checker.Check(context.Background(), testUser, testSubject, testGrade, "2026-09-07", 8*60, 9*60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.HasConflict {
		t.Fatal("back-to-back intervals must not conflict")
	}
}

func TestConflictChecker_SameSubjectSuggestion(t *testing.T) {
	mem := calendar.NewMemory(event("2026-09-07", "09:00", "10:00", "Algebra"))
	checker := NewConflictChecker(mem, nil)

	info, err := checker.Check(context.Background(), testUser, testSubject, testGrade, "2026-09-07", 9*60+30, 10*60+30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.HasConflict {
		t.Fatal("expected conflict")
	}
	if len(info.Overlaps) != 1 || !info.Overlaps[0].SameSubject {
		t.Fatalf("expected one same-subject overlap, got %+v", info.Overlaps)
	}
	if info.Suggestion == "" {
		t.Fatal("expected a suggestion")
	}
}

func TestConflictChecker_DifferentSubjectSuggestion(t *testing.T) {
	mem := calendar.NewMemory(otherSubjectEvent("2026-09-07", "09:00", "10:00", "Physics lab"))
	checker := NewConflictChecker(mem, nil)

	info, err := checker.Check(context.Background(), testUser, testSubject, testGrade, "2026-09-07", 9*60, 10*60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.HasConflict {
		t.Fatal("expected conflict")
	}
	if info.Overlaps[0].SameSubject {
		t.Fatal("overlap should be classified as a different subject")
	}
}

func TestConflictChecker_ReadFailureFailsClosed(t *testing.T) {
	mem := calendar.NewMemory()
	mem.FailReads = true
	checker := NewConflictChecker(mem, nil)

	_, err := checker.Check(context.Background(), testUser, testSubject, testGrade, "2026-09-07", 9*60, 10*60)
	if err == nil {
		t.Fatal("expected error on read failure")
	}
	var readErr *CalendarReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected CalendarReadError, got %T (%v)", err, err)
	}
}

// TestConflictChecker_OverlapProperty cross-checks the checker against
// the interval rule aStart < bEnd && bStart < aEnd on randomized pairs.
func TestConflictChecker_OverlapProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 0))
	ctx := context.Background()

	for i := 0; i < 500; i++ {
		aStart := TimeOfDay(rng.IntN(23 * 60))
		aEnd := aStart + TimeOfDay(1+rng.IntN(120))
		bStart := TimeOfDay(rng.IntN(23 * 60))
		bEnd := bStart + TimeOfDay(1+rng.IntN(120))

		mem := calendar.NewMemory(event("2026-09-07", bStart.String(), bEnd.String(), "fixture"))
		checker := NewConflictChecker(mem, nil)

		info, err := checker.Check(ctx, testUser, testSubject, testGrade, "2026-09-07", aStart, aEnd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := aStart < bEnd && bStart < aEnd
		if info.HasConflict != want {
			t.Fatalf("intervals [%s,%s) and [%s,%s): got conflict=%v, want %v",
				aStart, aEnd, bStart, bEnd, info.HasConflict, want)
		}
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in   string
		want TimeOfDay
		err  bool
	}{
		{"09:00", 540, false},
		{"00:00", 0, false},
		{"23:59", 23*60 + 59, false},
		{"09:00:00", 540, false},
		{"late", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.err != (err != nil) {
			t.Errorf("ParseTimeOfDay(%q) error = %v, want error %v", tt.in, err, tt.err)
			continue
		}
		if !tt.err && got != tt.want {
			t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays("Mon,Wed,Fri")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 3 || days[0] != 1 || days[1] != 3 || days[2] != 5 {
		t.Fatalf("unexpected weekdays: %v", days)
	}

	if _, err := ParseWeekdays("Mon,Noday"); err == nil {
		t.Fatal("expected error for unknown weekday")
	}

	days, err = ParseWeekdays("")
	if err != nil || days != nil {
		t.Fatalf("empty input should mean every day, got %v, %v", days, err)
	}
}
