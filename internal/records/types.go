package records

import (
	"errors"
	"fmt"
)

// Collection names shared by the hosted backend and the database tables.
const (
	TableFaculty    = "faculty"
	TableClassrooms = "classrooms"
	TableEvents     = "events"
	TableTimetable  = "timetable"
)

// ErrNoRowReturned is returned when an insert succeeds but echoes no row back.
var ErrNoRowReturned = errors.New("insert returned no row")

// APIError is a non-2xx answer from the hosted backend.
type APIError struct {
	Table  string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: backend responded with %d: %s", e.Table, e.Status, e.Body)
}
