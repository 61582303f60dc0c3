package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/abhisek/paperplan/internal/calendar"
)

func TestSurveyor_SortsLeastBusyFirst(t *testing.T) {
	mem := calendar.NewMemory(
		event("2026-09-07", "09:00", "10:00", "A"),
		event("2026-09-07", "11:00", "12:00", "B"),
		event("2026-09-09", "09:00", "10:00", "C"),
	)
	s := NewSurveyor(mem)

	periods, err := s.Survey(context.Background(), testUser, "2026-09-07", "2026-09-11", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(periods) != 2 {
		t.Fatalf("expected 2 busy periods, got %d", len(periods))
	}
	if periods[0].Date != "2026-09-09" || periods[0].EventCount != 1 {
		t.Fatalf("expected 2026-09-09 with 1 event first, got %+v", periods[0])
	}
	if periods[1].Date != "2026-09-07" || periods[1].EventCount != 2 {
		t.Fatalf("expected 2026-09-07 with 2 events second, got %+v", periods[1])
	}
	if periods[1].TimeSlots[0].Start != "09:00" {
		t.Fatalf("time slots not sorted: %+v", periods[1].TimeSlots)
	}
}

func TestSurveyor_WeekdayFilter(t *testing.T) {
	mem := calendar.NewMemory(
		event("2026-09-07", "09:00", "10:00", "Monday"),
		event("2026-09-08", "09:00", "10:00", "Tuesday"),
	)
	s := NewSurveyor(mem)

	periods, err := s.Survey(context.Background(), testUser, "2026-09-07", "2026-09-11",
		[]time.Weekday{time.Monday})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(periods) != 1 || periods[0].Date != "2026-09-07" {
		t.Fatalf("expected Monday only, got %+v", periods)
	}
}

func TestSurveyor_EmptyCalendar(t *testing.T) {
	s := NewSurveyor(calendar.NewMemory())
	periods, err := s.Survey(context.Background(), testUser, "2026-09-07", "2026-09-11", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(periods) != 0 {
		t.Fatalf("expected no busy periods, got %d", len(periods))
	}
}
