// Package forms turns the raw admin form fields into records ready to insert.
package forms

import (
	"strings"

	"stuud-backend/internal/model"
	"stuud-backend/internal/parse"
)

const (
	MsgRequired    = "Please fill in all required fields"
	MsgCoordinates = "Latitude and longitude must be valid numbers"
	MsgDate        = "Dates must use the YYYY-MM-DD format"
)

// ValidationError is a form problem shown to the admin as-is. No insert is
// attempted when one is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func missing(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return true
		}
	}
	return false
}

// FacultyForm holds the faculty fields. Subjects is comma-separated.
type FacultyForm struct {
	Name     string `json:"name"`
	Subjects string `json:"subjects"`
	Cabin    string `json:"cabin"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func (f FacultyForm) Build() (model.Faculty, error) {
	if missing(f.Name, f.Subjects, f.Cabin) {
		return model.Faculty{}, &ValidationError{Message: MsgRequired}
	}
	subjects := parse.Subjects(f.Subjects)
	if len(subjects) == 0 {
		return model.Faculty{}, &ValidationError{Message: MsgRequired}
	}
	return model.Faculty{
		Name:     strings.TrimSpace(f.Name),
		Subjects: subjects,
		Cabin:    strings.TrimSpace(f.Cabin),
		Email:    parse.Optional(f.Email),
		Phone:    parse.Optional(f.Phone),
	}, nil
}

// ClassroomForm holds the classroom fields. Floor is optional.
type ClassroomForm struct {
	Name      string `json:"name"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Building  string `json:"building"`
	Floor     string `json:"floor"`
}

func (f ClassroomForm) Build() (model.Classroom, error) {
	if missing(f.Name, f.Latitude, f.Longitude) {
		return model.Classroom{}, &ValidationError{Message: MsgRequired}
	}
	lat, err := parse.Coordinate(f.Latitude)
	if err != nil {
		return model.Classroom{}, &ValidationError{Message: MsgCoordinates}
	}
	lng, err := parse.Coordinate(f.Longitude)
	if err != nil {
		return model.Classroom{}, &ValidationError{Message: MsgCoordinates}
	}
	return model.Classroom{
		Name:     strings.TrimSpace(f.Name),
		Location: model.Location{Latitude: lat, Longitude: lng},
		Building: parse.Optional(f.Building),
		Floor:    parse.Floor(f.Floor),
	}, nil
}

type EventForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Location    string `json:"location"`
}

// Build checks the date format only; an end date before the start date is accepted.
func (f EventForm) Build() (model.Event, error) {
	if missing(f.Title, f.Description, f.StartDate, f.EndDate) {
		return model.Event{}, &ValidationError{Message: MsgRequired}
	}
	start, err := parse.Date(f.StartDate)
	if err != nil {
		return model.Event{}, &ValidationError{Message: MsgDate}
	}
	end, err := parse.Date(f.EndDate)
	if err != nil {
		return model.Event{}, &ValidationError{Message: MsgDate}
	}
	return model.Event{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		StartDate:   start,
		EndDate:     end,
		Location:    parse.Optional(f.Location),
	}, nil
}

// TimetableForm holds one class slot; every field is required.
type TimetableForm struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Subject   string `json:"subject"`
	Faculty   string `json:"faculty"`
	Classroom string `json:"classroom"`
}

func (f TimetableForm) Build() (model.TimetableEntry, error) {
	if missing(f.Day, f.StartTime, f.EndTime, f.Subject, f.Faculty, f.Classroom) {
		return model.TimetableEntry{}, &ValidationError{Message: MsgRequired}
	}
	return model.TimetableEntry{
		Day:       strings.TrimSpace(f.Day),
		StartTime: strings.TrimSpace(f.StartTime),
		EndTime:   strings.TrimSpace(f.EndTime),
		Subject:   strings.TrimSpace(f.Subject),
		Faculty:   strings.TrimSpace(f.Faculty),
		Classroom: strings.TrimSpace(f.Classroom),
	}, nil
}
