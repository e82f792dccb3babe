package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"stuud-backend/internal/model"
	"stuud-backend/internal/search"
)

// SearchFaculty handles GET /api/search?q=.
func (h *Handler) SearchFaculty(c *gin.Context) {
	faculty, err := h.records.ListFaculty(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching faculty for search: %v", err)
		c.JSON(http.StatusOK, gin.H{"data": []model.Faculty{}, "degraded": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": search.FilterFaculty(faculty, c.Query("q"))})
}

// GetSuggestions handles GET /api/search/suggestions?q=. Short queries return
// an empty list without touching the record store or the model.
func (h *Handler) GetSuggestions(c *gin.Context) {
	q := c.Query("q")
	if !h.suggester.Accepts(q) {
		c.JSON(http.StatusOK, gin.H{"suggestions": []string{}})
		return
	}

	faculty, err := h.records.ListFaculty(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching faculty for suggestions: %v", err)
		c.JSON(http.StatusOK, gin.H{"suggestions": []string{}})
		return
	}

	suggestions := h.suggester.Suggest(c.Request.Context(), q, search.Context{Faculty: faculty})
	if suggestions == nil {
		suggestions = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

type askRequest struct {
	Query string `json:"query" binding:"required"`
}

// Ask handles POST /api/assistant/ask. Sections that fail to load are left out of the context.
func (h *Handler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	var data search.Context
	ctx := c.Request.Context()
	var g errgroup.Group
	g.Go(func() error {
		if rows, err := h.records.ListFaculty(ctx); err == nil {
			data.Faculty = rows
		} else {
			log.Printf("Assistant context: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		if rows, err := h.records.ListClassrooms(ctx); err == nil {
			data.Classrooms = rows
		} else {
			log.Printf("Assistant context: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		if rows, err := h.records.ListEvents(ctx); err == nil {
			data.Events = rows
		} else {
			log.Printf("Assistant context: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		if rows, err := h.records.ListTimetable(ctx); err == nil {
			data.Timetable = rows
		} else {
			log.Printf("Assistant context: %v", err)
		}
		return nil
	})
	_ = g.Wait()

	c.JSON(http.StatusOK, gin.H{"answer": h.assistant.Answer(ctx, req.Query, data)})
}
