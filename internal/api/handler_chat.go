package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stuud-backend/internal/chat"
)

func sessionView(s *chat.Session) gin.H {
	return gin.H{
		"id":          s.ID(),
		"messages":    s.Messages(),
		"state":       s.State().String(),
		"sendEnabled": s.SendEnabled(),
	}
}

// chatError maps session errors to statuses.
func chatError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrSessionNotFound), errors.Is(err, chat.ErrClosed):
		c.JSON(http.StatusNotFound, gin.H{"error": chat.ErrSessionNotFound.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// CreateChatSession handles POST /api/chat/sessions.
func (h *Handler) CreateChatSession(c *gin.Context) {
	s := h.chats.Open()
	c.JSON(http.StatusCreated, sessionView(s))
}

// GetChatSession handles GET /api/chat/sessions/:id.
func (h *Handler) GetChatSession(c *gin.Context) {
	s, err := h.chats.Get(c.Param("id"))
	if err != nil {
		chatError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionView(s))
}

// DeleteChatSession handles DELETE /api/chat/sessions/:id.
func (h *Handler) DeleteChatSession(c *gin.Context) {
	if err := h.chats.Close(c.Param("id")); err != nil {
		chatError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// SendChatMessage handles POST /api/chat/sessions/:id/messages. It blocks until the reply is in.
func (h *Handler) SendChatMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	// A dropped client leaves the reply in the transcript. Only closing the
	// session discards it.
	ctx := context.WithoutCancel(c.Request.Context())
	s, reply, err := h.chats.Send(ctx, c.Param("id"), req.Text)
	if err != nil {
		chatError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply":       reply,
		"messages":    s.Messages(),
		"sendEnabled": s.SendEnabled(),
	})
}
