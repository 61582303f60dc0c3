// Package calendar provides read/write access to the scheduled-event
// store the planner validates against. Dates are ISO "2006-01-02"
// strings and times are "15:04" local times, matching the wire shape
// sessions arrive in; ISO strings compare correctly both in SQL range
// queries and in Go.
package calendar

import "context"

// Event is one scheduled calendar entry for a user.
type Event struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	SubjectID string `db:"subject_id" json:"subject_id"`
	GradeID   string `db:"grade_id" json:"grade_id"`
	Date      string `db:"event_date" json:"event_date"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
	Title     string `db:"title" json:"title"`
}

// SameSubject reports whether the event belongs to the given
// subject/grade pair.
func (e Event) SameSubject(subjectID, gradeID string) bool {
	return e.SubjectID == subjectID && e.GradeID == gradeID
}

// Store is the calendar-store contract the scheduling core consumes.
type Store interface {
	// EventsInRange returns all events for the user whose date falls in
	// [from, to] inclusive, ordered by date then start time.
	EventsInRange(ctx context.Context, userID, from, to string) ([]Event, error)

	// InsertEvents persists the given events.
	InsertEvents(ctx context.Context, events []Event) error
}
