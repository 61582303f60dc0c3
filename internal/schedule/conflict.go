package schedule

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/paperplan/internal/calendar"
)

// CalendarReadError wraps a storage read failure during conflict
// checking. Reads fail closed: a check that cannot see the calendar
// reports the error instead of assuming the slot is free.
type CalendarReadError struct {
	Err error
}

func (e *CalendarReadError) Error() string {
	return fmt.Sprintf("calendar read failed: %v", e.Err)
}

func (e *CalendarReadError) Unwrap() error { return e.Err }

// Overlap describes one existing event that intersects a candidate slot.
type Overlap struct {
	EventID     string `json:"event_id"`
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	SameSubject bool   `json:"is_same_subject"`
}

// ConflictInfo is the result of checking one candidate interval.
type ConflictInfo struct {
	HasConflict   bool      `json:"has_conflict"`
	ConflictCount int       `json:"conflict_count"`
	Overlaps      []Overlap `json:"overlaps"`
	Suggestion    string    `json:"suggestion"`
}

// ConflictChecker determines whether a candidate interval collides with
// existing calendar events.
type ConflictChecker struct {
	store calendar.Store
	log   *zap.Logger
}

// NewConflictChecker creates a checker over the given store.
func NewConflictChecker(store calendar.Store, log *zap.Logger) *ConflictChecker {
	if log == nil {
		log = zap.NewNop()
	}
	return &ConflictChecker{store: store, log: log}
}

// Check fetches the user's events on date and reports every overlap with
// [start, end). Intervals are half-open: an event ending at 10:00 does
// not conflict with a session starting at 10:00.
func (c *ConflictChecker) Check(ctx context.Context, userID, subjectID, gradeID, date string, start, end TimeOfDay) (*ConflictInfo, error) {
	events, err := c.store.EventsInRange(ctx, userID, date, date)
	if err != nil {
		c.log.Error("conflict check read failed", zap.String("date", date), zap.Error(err))
		return nil, &CalendarReadError{Err: err}
	}

	info := &ConflictInfo{}
	sameSubject := false

	for _, e := range events {
		evStart, err := ParseTimeOfDay(e.StartTime)
		if err != nil {
			c.log.Warn("skipping event with bad start time", zap.String("event_id", e.ID), zap.Error(err))
			continue
		}
		evEnd, err := ParseTimeOfDay(e.EndTime)
		if err != nil {
			c.log.Warn("skipping event with bad end time", zap.String("event_id", e.ID), zap.Error(err))
			continue
		}
		if !overlaps(start, end, evStart, evEnd) {
			continue
		}

		same := e.SameSubject(subjectID, gradeID)
		sameSubject = sameSubject || same
		info.Overlaps = append(info.Overlaps, Overlap{
			EventID:     e.ID,
			Title:       e.Title,
			StartTime:   evStart.String(),
			EndTime:     evEnd.String(),
			SameSubject: same,
		})
	}

	info.ConflictCount = len(info.Overlaps)
	info.HasConflict = info.ConflictCount > 0
	if info.HasConflict {
		if sameSubject {
			info.Suggestion = "an existing session for this subject occupies the slot; replace or reschedule that session"
		} else {
			info.Suggestion = "the slot is taken by another subject; try a different time or day"
		}
	}

	return info, nil
}
