package api

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"stuud-backend/internal/model"
	"stuud-backend/internal/mw"
)

// listResponse writes a record list. A failed read is logged and shown as an
// empty, degraded list so the screen still renders.
func listResponse[T any](c *gin.Context, kind string, list func(context.Context) ([]T, error)) {
	rows, err := list(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching %s: %v", kind, err)
		c.Set(mw.DegradedKey, true)
		c.JSON(http.StatusOK, gin.H{"data": []T{}, "degraded": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// GetFaculty handles GET /api/faculty.
func (h *Handler) GetFaculty(c *gin.Context) {
	listResponse(c, "faculty", h.records.ListFaculty)
}

// GetClassrooms handles GET /api/classrooms.
func (h *Handler) GetClassrooms(c *gin.Context) {
	listResponse(c, "classrooms", h.records.ListClassrooms)
}

// GetEvents handles GET /api/events.
func (h *Handler) GetEvents(c *gin.Context) {
	listResponse(c, "events", h.records.ListEvents)
}

// GetTimetable handles GET /api/timetable.
func (h *Handler) GetTimetable(c *gin.Context) {
	listResponse(c, "timetable", h.records.ListTimetable)
}

type mapClassroom struct {
	model.Classroom
	Faculty []model.Faculty `json:"faculty"`
}

// GetMap handles GET /api/map: every classroom with the faculty whose cabin it is.
func (h *Handler) GetMap(c *gin.Context) {
	var classrooms []model.Classroom
	var faculty []model.Faculty

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		classrooms, err = h.records.ListClassrooms(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		faculty, err = h.records.ListFaculty(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("Error fetching map data: %v", err)
		c.Set(mw.DegradedKey, true)
		c.JSON(http.StatusOK, gin.H{"data": []mapClassroom{}, "degraded": true})
		return
	}

	byCabin := make(map[string][]model.Faculty)
	for _, f := range faculty {
		byCabin[f.Cabin] = append(byCabin[f.Cabin], f)
	}

	pins := make([]mapClassroom, 0, len(classrooms))
	for _, room := range classrooms {
		occupants := byCabin[room.Name]
		if occupants == nil {
			occupants = []model.Faculty{}
		}
		pins = append(pins, mapClassroom{Classroom: room, Faculty: occupants})
	}
	c.JSON(http.StatusOK, gin.H{"data": pins})
}
