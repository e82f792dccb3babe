package parse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// leading decimal number, the prefix a lenient float parse would consume
	floatRe = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
	intRe   = regexp.MustCompile(`^[+-]?\d+`)
)

// DateLayout is the calendar-date format used for event dates.
const DateLayout = "2006-01-02"

// Subjects splits a comma-separated subject list, trimming each item and
// dropping empty ones.
func Subjects(raw string) []string {
	parts := strings.Split(raw, ",")
	subjects := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			subjects = append(subjects, s)
		}
	}
	return subjects
}

// Coordinate reads the leading decimal number of raw. Trailing text is
// ignored, so "37.5N" reads as 37.5; text with no leading number is an error.
func Coordinate(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	m := floatRe.FindString(s)
	if m == "" {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return f, nil
}

// Floor reads the leading integer of raw. It returns nil when raw is blank
// or has no leading digits.
func Floor(raw string) *int {
	m := intRe.FindString(strings.TrimSpace(raw))
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

// Date checks that raw is a YYYY-MM-DD calendar date and returns it trimmed.
func Date(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("unable to parse date %q: %w", raw, err)
	}
	return s, nil
}

// Optional returns nil for a blank string and a pointer to the trimmed value otherwise.
func Optional(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	return &s
}
