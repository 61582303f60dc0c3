package schedule

import (
	"context"
	"fmt"

	"github.com/abhisek/paperplan/internal/calendar"
)

// BulkResult partitions a proposed session list into conflict-free
// sessions (original order preserved) and conflict records.
type BulkResult struct {
	Valid     []PlannedSession `json:"valid_sessions"`
	Conflicts []ConflictRecord `json:"conflicts"`
}

// BulkValidator validates an entire proposed session list against the
// calendar in one batched pass. The partition is semantically identical
// to running ConflictChecker once per session; the single range fetch
// is only a performance optimization.
type BulkValidator struct {
	store calendar.Store
}

// NewBulkValidator creates a validator over the given store.
func NewBulkValidator(store calendar.Store) *BulkValidator {
	return &BulkValidator{store: store}
}

// Validate checks every session against the user's existing events,
// fetched once across the min/max date the sessions span.
func (v *BulkValidator) Validate(ctx context.Context, userID string, sessions []PlannedSession, subjectID, gradeID string) (*BulkResult, error) {
	result := &BulkResult{}
	if len(sessions) == 0 {
		return result, nil
	}

	minDate, maxDate := sessions[0].Date, sessions[0].Date
	for _, s := range sessions {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("session %d: %w", s.SessionNumber, err)
		}
		if s.Date < minDate {
			minDate = s.Date
		}
		if s.Date > maxDate {
			maxDate = s.Date
		}
	}

	events, err := v.store.EventsInRange(ctx, userID, minDate, maxDate)
	if err != nil {
		return nil, &CalendarReadError{Err: err}
	}

	byDate := make(map[string][]calendar.Event)
	for _, e := range events {
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	for i, s := range sessions {
		start, _ := ParseTimeOfDay(s.StartTime)
		end, _ := ParseTimeOfDay(s.EndTime)

		var blocking *calendar.Event
		for _, e := range byDate[s.Date] {
			evStart, err := ParseTimeOfDay(e.StartTime)
			if err != nil {
				continue
			}
			evEnd, err := ParseTimeOfDay(e.EndTime)
			if err != nil {
				continue
			}
			if overlaps(start, end, evStart, evEnd) {
				ev := e
				blocking = &ev
				break
			}
		}

		if blocking == nil {
			result.Valid = append(result.Valid, s)
			continue
		}

		result.Conflicts = append(result.Conflicts, ConflictRecord{
			SessionIndex: i,
			Date:         s.Date,
			StartTime:    s.StartTime,
			EndTime:      s.EndTime,
			Title:        s.Title,
			ConflictWith: describeEvent(*blocking),
		})
	}

	return result, nil
}

func describeEvent(e calendar.Event) string {
	title := e.Title
	if title == "" {
		title = "existing event"
	}
	return fmt.Sprintf("%s (%s %s-%s)", title, e.Date, e.StartTime, e.EndTime)
}
