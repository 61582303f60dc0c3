package calendar

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SQLStore implements Store over the scheduled_events table.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates a SQLStore. The table is created by store.Open.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) EventsInRange(ctx context.Context, userID, from, to string) ([]Event, error) {
	var events []Event
	err := s.db.SelectContext(ctx, &events, `
		SELECT id, user_id, subject_id, grade_id, event_date, start_time, end_time, title
		FROM scheduled_events
		WHERE user_id = ? AND event_date >= ? AND event_date <= ?
		ORDER BY event_date, start_time`,
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query events in range: %w", err)
	}
	return events, nil
}

func (s *SQLStore) InsertEvents(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	for _, e := range events {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO scheduled_events
				(id, user_id, subject_id, grade_id, event_date, start_time, end_time, title)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.UserID, e.SubjectID, e.GradeID, e.Date, e.StartTime, e.EndTime, e.Title,
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", e.Date, err)
		}
	}

	return tx.Commit()
}
