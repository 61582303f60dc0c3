package calendar

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrReadUnavailable simulates a storage read failure in tests.
var ErrReadUnavailable = errors.New("calendar read unavailable")

// Memory is an in-memory Store for tests and dry runs.
type Memory struct {
	mu     sync.Mutex
	events []Event

	// FailReads makes every read return ErrReadUnavailable.
	FailReads bool

	// ReadCount tracks EventsInRange calls.
	ReadCount int
}

// NewMemory creates a Memory store pre-seeded with the given events.
func NewMemory(events ...Event) *Memory {
	m := &Memory{}
	for _, e := range events {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		m.events = append(m.events, e)
	}
	return m
}

func (m *Memory) EventsInRange(_ context.Context, userID, from, to string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ReadCount++
	if m.FailReads {
		return nil, ErrReadUnavailable
	}

	var out []Event
	for _, e := range m.events {
		if e.UserID == userID && e.Date >= from && e.Date <= to {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (m *Memory) InsertEvents(_ context.Context, events []Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range events {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		m.events = append(m.events, e)
	}
	return nil
}

// All returns a copy of every stored event.
func (m *Memory) All() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
