package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/abhisek/paperplan/internal/calendar"
)

// Surveyor summarizes existing events into busy periods so a planner
// can bias date choice toward low-density days. Purely informative;
// it never blocks planning.
type Surveyor struct {
	store calendar.Store
}

// NewSurveyor creates a Surveyor over the given store.
func NewSurveyor(store calendar.Store) *Surveyor {
	return &Surveyor{store: store}
}

// Survey groups the user's events in [from, to] by date, drops dates
// whose weekday is not in the set, and returns the dates sorted
// least-busy-first (ties broken by date for determinism).
func (s *Surveyor) Survey(ctx context.Context, userID, from, to string, weekdays []time.Weekday) ([]BusyPeriod, error) {
	events, err := s.store.EventsInRange(ctx, userID, from, to)
	if err != nil {
		return nil, &CalendarReadError{Err: err}
	}

	byDate := make(map[string][]calendar.Event)
	for _, e := range events {
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	periods := make([]BusyPeriod, 0, len(byDate))
	for date, dayEvents := range byDate {
		d, err := ParseDate(date)
		if err != nil {
			continue
		}
		if !weekdayAllowed(d, weekdays) {
			continue
		}

		slots := make([]TimeSlot, 0, len(dayEvents))
		for _, e := range dayEvents {
			slots = append(slots, TimeSlot{Start: e.StartTime, End: e.EndTime})
		}
		sort.Slice(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })

		periods = append(periods, BusyPeriod{
			Date:       date,
			EventCount: len(dayEvents),
			TimeSlots:  slots,
		})
	}

	sort.Slice(periods, func(i, j int) bool {
		if periods[i].EventCount != periods[j].EventCount {
			return periods[i].EventCount < periods[j].EventCount
		}
		return periods[i].Date < periods[j].Date
	})

	return periods, nil
}
