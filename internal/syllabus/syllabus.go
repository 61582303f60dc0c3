// Package syllabus holds the chapter catalog the planner schedules
// against. The catalog is produced upstream (syllabus extraction) and
// consumed here as input.
package syllabus

import (
	"encoding/json"
	"fmt"
	"os"
)

// Chapter is one syllabus chapter with its planned session count.
type Chapter struct {
	Number   int      `json:"number"`
	Title    string   `json:"title"`
	Sessions int      `json:"sessions"`
	Topics   []string `json:"topics,omitempty"`
}

// TotalSessions sums the session counts across chapters.
func TotalSessions(chapters []Chapter) int {
	total := 0
	for _, c := range chapters {
		total += c.Sessions
	}
	return total
}

// Validate checks chapter numbers and session counts are positive.
func Validate(chapters []Chapter) error {
	if len(chapters) == 0 {
		return fmt.Errorf("no chapters given")
	}
	for _, c := range chapters {
		if c.Number <= 0 {
			return fmt.Errorf("chapter %q has non-positive number %d", c.Title, c.Number)
		}
		if c.Sessions <= 0 {
			return fmt.Errorf("chapter %d has non-positive session count %d", c.Number, c.Sessions)
		}
	}
	return nil
}

// LoadFile reads a chapter catalog from a JSON file.
func LoadFile(path string) ([]Chapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chapters file: %w", err)
	}
	var chapters []Chapter
	if err := json.Unmarshal(data, &chapters); err != nil {
		return nil, fmt.Errorf("parse chapters file: %w", err)
	}
	if err := Validate(chapters); err != nil {
		return nil, err
	}
	return chapters, nil
}
