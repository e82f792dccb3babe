package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"stuud-backend/internal/auth"
	"stuud-backend/internal/forms"
	"stuud-backend/internal/model"
)

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/admin/login.
func (h *Handler) Login(c *gin.Context) {
	if h.jwt == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "admin login is not enabled"})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, expires, err := h.jwt.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expiresAt": expires})
}

type builder[T any] interface {
	Build() (T, error)
}

// addRecord binds the form, validates it and inserts the result. A
// validation failure never reaches the store. ok is false when a response
// has already been written for a failure.
func addRecord[T any, F builder[T]](c *gin.Context, kind string, add func(context.Context, T) (*T, error)) (row *T, ok bool) {
	var form F
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return nil, false
	}

	record, err := form.Build()
	if err != nil {
		var verr *forms.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	row, err = add(c.Request.Context(), record)
	if err != nil {
		log.Printf("Error adding %s: %v", kind, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to add " + kind})
		return nil, false
	}

	c.JSON(http.StatusCreated, row)
	return row, true
}

// AddFaculty handles POST /api/admin/faculty.
func (h *Handler) AddFaculty(c *gin.Context) {
	addRecord[model.Faculty, forms.FacultyForm](c, "faculty", h.records.AddFaculty)
}

// AddClassroom handles POST /api/admin/classrooms.
func (h *Handler) AddClassroom(c *gin.Context) {
	addRecord[model.Classroom, forms.ClassroomForm](c, "classroom", h.records.AddClassroom)
}

// AddEvent handles POST /api/admin/events and announces the event to push subscribers.
func (h *Handler) AddEvent(c *gin.Context) {
	event, ok := addRecord[model.Event, forms.EventForm](c, "event", h.records.AddEvent)
	if ok && h.notifier != nil {
		h.notifier.Dispatch(*event)
	}
}

// AddTimetableEntry handles POST /api/admin/timetable.
func (h *Handler) AddTimetableEntry(c *gin.Context) {
	addRecord[model.TimetableEntry, forms.TimetableForm](c, "timetable entry", h.records.AddTimetableEntry)
}
