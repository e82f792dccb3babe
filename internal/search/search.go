// Package search backs the search screen: local faculty filtering and
// model-generated suggestions and answers over the campus data.
package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"stuud-backend/internal/model"
)

// Context is the campus data handed to the model. Nil sections are left out of the prompt.
type Context struct {
	Faculty    []model.Faculty
	Classrooms []model.Classroom
	Events     []model.Event
	Timetable  []model.TimetableEntry
}

// FilterFaculty returns the faculty whose name, any subject, or cabin contains
// query, ignoring case. A blank query matches everyone.
func FilterFaculty(list []model.Faculty, query string) []model.Faculty {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}

	matched := make([]model.Faculty, 0, len(list))
	for _, f := range list {
		if facultyMatches(f, q) {
			matched = append(matched, f)
		}
	}
	return matched
}

func facultyMatches(f model.Faculty, q string) bool {
	if strings.Contains(strings.ToLower(f.Name), q) || strings.Contains(strings.ToLower(f.Cabin), q) {
		return true
	}
	for _, s := range f.Subjects {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

// dataSection renders the non-empty parts of c as labelled JSON lines.
func dataSection(c Context) (string, error) {
	var b strings.Builder
	sections := []struct {
		label string
		value any
		ok    bool
	}{
		{"Faculty", c.Faculty, c.Faculty != nil},
		{"Classrooms", c.Classrooms, c.Classrooms != nil},
		{"Events", c.Events, c.Events != nil},
		{"Timetable", c.Timetable, c.Timetable != nil},
	}
	for _, s := range sections {
		if !s.ok {
			continue
		}
		raw, err := json.Marshal(s.value)
		if err != nil {
			return "", fmt.Errorf("failed to encode %s: %w", strings.ToLower(s.label), err)
		}
		fmt.Fprintf(&b, "%s: %s\n", s.label, raw)
	}
	return b.String(), nil
}
