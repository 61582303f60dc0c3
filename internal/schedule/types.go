// Package schedule implements conflict detection, calendar surveying,
// bulk validation and slot repair for proposed study sessions.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO date format used across the calendar store.
const DateLayout = "2006-01-02"

// TimeOfDay is a local clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses "15:04" into a TimeOfDay.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		// Calendar rows sometimes carry seconds ("15:04:05").
		t, err = time.Parse("15:04:05", strings.TrimSpace(s))
		if err != nil {
			return 0, fmt.Errorf("parse time %q: %w", s, err)
		}
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// String renders the time as "15:04".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add returns the time shifted forward by the given minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// overlaps reports whether two half-open intervals intersect.
// Back-to-back intervals (aEnd == bStart) do not overlap.
func overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// ParseDate parses an ISO date string.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// ParseWeekdays parses a comma-separated weekday list ("Mon,Wed,Fri").
// Full names are also accepted. An empty input means every day.
func ParseWeekdays(s string) ([]time.Weekday, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	names := map[string]time.Weekday{
		"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
		"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
		"sat": time.Saturday,
	}
	var out []time.Weekday
	for _, part := range strings.Split(s, ",") {
		key := strings.ToLower(strings.TrimSpace(part))
		if len(key) > 3 {
			key = key[:3]
		}
		d, ok := names[key]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		out = append(out, d)
	}
	return out, nil
}

// weekdayAllowed reports whether d's weekday is in the set.
// An empty set allows every day.
func weekdayAllowed(d time.Time, weekdays []time.Weekday) bool {
	if len(weekdays) == 0 {
		return true
	}
	for _, w := range weekdays {
		if d.Weekday() == w {
			return true
		}
	}
	return false
}

// PlannedSession is one proposed study block. It is the JSON shape the
// model submits and the shape the caller persists.
type PlannedSession struct {
	Date          string   `json:"date"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	Title         string   `json:"title"`
	ChapterNumber int      `json:"chapter_number"`
	SessionNumber int      `json:"session_number"`
	Topics        []string `json:"topics,omitempty"`
}

// Validate checks the session's date and time fields parse and are ordered.
func (s PlannedSession) Validate() error {
	if _, err := ParseDate(s.Date); err != nil {
		return err
	}
	start, err := ParseTimeOfDay(s.StartTime)
	if err != nil {
		return err
	}
	end, err := ParseTimeOfDay(s.EndTime)
	if err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("session on %s ends (%s) before it starts (%s)", s.Date, s.EndTime, s.StartTime)
	}
	return nil
}

// ConflictRecord describes one session that failed validation, with
// enough detail for the repairer to search for a replacement.
type ConflictRecord struct {
	SessionIndex int    `json:"session_index"`
	Date         string `json:"date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Title        string `json:"title"`
	ConflictWith string `json:"conflict_with"`
}

// TimeSlot is one occupied interval within a BusyPeriod.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// BusyPeriod summarizes one date's existing events.
type BusyPeriod struct {
	Date       string     `json:"date"`
	EventCount int        `json:"event_count"`
	TimeSlots  []TimeSlot `json:"time_slots"`
}
