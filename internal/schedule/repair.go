package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// repairStepMinutes is the granularity of the same-day search.
const repairStepMinutes = 30

// repairHorizonDays caps how far past a conflict's date the next-day
// search may advance.
const repairHorizonDays = 14

// RepairRequest carries the search constraints for one repair pass.
type RepairRequest struct {
	UserID    string
	SubjectID string
	GradeID   string

	// PreferredStart/PreferredEnd bound the daily time window.
	PreferredStart TimeOfDay
	PreferredEnd   TimeOfDay

	// SessionMinutes is the fixed session duration.
	SessionMinutes int

	// Weekdays restricts eligible dates. Empty means every day.
	Weekdays []time.Weekday

	// HorizonEnd is the last date (inclusive) the search may reach.
	HorizonEnd string
}

// SlotRepairer searches for conflict-free alternative slots for
// sessions that failed bulk validation.
type SlotRepairer struct {
	checker *ConflictChecker
	log     *zap.Logger
}

// NewSlotRepairer creates a repairer using the given checker.
func NewSlotRepairer(checker *ConflictChecker, log *zap.Logger) *SlotRepairer {
	if log == nil {
		log = zap.NewNop()
	}
	return &SlotRepairer{checker: checker, log: log}
}

// Repair attempts to find an alternative slot for each conflict, in
// order. Candidates are checked against the calendar and against the
// accepted batch (valid sessions plus repairs already made in this
// pass), so one repair cannot double-book another. Search order is
// fixed (time ascending on the conflict's own day, then date ascending
// probing the preferred start time), so repeated runs against the same
// calendar state produce the same result.
//
// Conflicts with no free slot inside the horizon are returned as
// unresolved; the caller drops those sessions and reports a partial
// plan.
func (r *SlotRepairer) Repair(ctx context.Context, req RepairRequest, conflicts []ConflictRecord, original, accepted []PlannedSession) ([]PlannedSession, []ConflictRecord, error) {
	batch := make([]PlannedSession, len(accepted))
	copy(batch, accepted)

	var repaired []PlannedSession
	var unresolved []ConflictRecord

	for _, conflict := range conflicts {
		session, ok := sessionFor(conflict, original)
		if !ok {
			r.log.Warn("conflict references unknown session", zap.Int("index", conflict.SessionIndex))
			unresolved = append(unresolved, conflict)
			continue
		}

		alt, err := r.findSlot(ctx, req, conflict, batch)
		if err != nil {
			return nil, nil, err
		}
		if alt == nil {
			r.log.Warn("no alternative slot found",
				zap.String("date", conflict.Date),
				zap.String("title", conflict.Title))
			unresolved = append(unresolved, conflict)
			continue
		}

		moved := session
		moved.Date = alt.date
		moved.StartTime = alt.start.String()
		moved.EndTime = alt.start.Add(req.SessionMinutes).String()

		repaired = append(repaired, moved)
		batch = append(batch, moved)
	}

	return repaired, unresolved, nil
}

type slot struct {
	date  string
	start TimeOfDay
}

// findSlot runs the two-phase search: a full 30-minute-step scan of the
// preferred window on the conflict's own day, then a single
// preferred-start probe on each subsequent eligible day up to the
// horizon.
func (r *SlotRepairer) findSlot(ctx context.Context, req RepairRequest, conflict ConflictRecord, batch []PlannedSession) (*slot, error) {
	day, err := ParseDate(conflict.Date)
	if err != nil {
		return nil, err
	}

	// Same-day search. Skipped when the conflict sits on an excluded
	// weekday: a repair must not keep the session on a day the request
	// never allowed.
	if weekdayAllowed(day, req.Weekdays) {
		for start := req.PreferredStart; ; start = start.Add(repairStepMinutes) {
			end := start.Add(req.SessionMinutes)
			if end > req.PreferredEnd {
				break
			}
			free, err := r.slotFree(ctx, req, conflict.Date, start, end, batch)
			if err != nil {
				return nil, err
			}
			if free {
				return &slot{date: conflict.Date, start: start}, nil
			}
		}
	}

	// Next-day search: preferred start time only.
	end := req.PreferredStart.Add(req.SessionMinutes)
	if end > req.PreferredEnd {
		return nil, nil
	}

	for i := 1; i <= repairHorizonDays; i++ {
		day = day.AddDate(0, 0, 1)
		date := day.Format(DateLayout)
		if req.HorizonEnd != "" && date > req.HorizonEnd {
			break
		}
		if !weekdayAllowed(day, req.Weekdays) {
			continue
		}

		free, err := r.slotFree(ctx, req, date, req.PreferredStart, end, batch)
		if err != nil {
			return nil, err
		}
		if free {
			return &slot{date: date, start: req.PreferredStart}, nil
		}
	}

	return nil, nil
}

// slotFree checks a candidate against the calendar and the accepted batch.
func (r *SlotRepairer) slotFree(ctx context.Context, req RepairRequest, date string, start, end TimeOfDay, batch []PlannedSession) (bool, error) {
	for _, s := range batch {
		if s.Date != date {
			continue
		}
		sStart, err := ParseTimeOfDay(s.StartTime)
		if err != nil {
			continue
		}
		sEnd, err := ParseTimeOfDay(s.EndTime)
		if err != nil {
			continue
		}
		if overlaps(start, end, sStart, sEnd) {
			return false, nil
		}
	}

	info, err := r.checker.Check(ctx, req.UserID, req.SubjectID, req.GradeID, date, start, end)
	if err != nil {
		return false, err
	}
	return !info.HasConflict, nil
}

func sessionFor(conflict ConflictRecord, original []PlannedSession) (PlannedSession, bool) {
	if conflict.SessionIndex < 0 || conflict.SessionIndex >= len(original) {
		return PlannedSession{}, false
	}
	return original[conflict.SessionIndex], true
}
