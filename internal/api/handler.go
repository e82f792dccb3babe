package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"stuud-backend/internal/auth"
	"stuud-backend/internal/chat"
	"stuud-backend/internal/model"
	"stuud-backend/internal/records"
	"stuud-backend/internal/search"
)

// EventNotifier announces a newly added event to subscribers.
type EventNotifier interface {
	Dispatch(event model.Event)
}

// Deps are the services the handlers need. DB backs push subscriptions;
// JWT may be nil, which leaves the admin routes open.
type Deps struct {
	Records   records.Store
	DB        *gorm.DB
	Chats     *chat.Manager
	Suggester *search.Suggester
	Assistant *search.Assistant
	Notifier  EventNotifier
	JWT       *auth.JWTManager
	WebPush   *webpush.Options
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	records   records.Store
	db        *gorm.DB
	chats     *chat.Manager
	suggester *search.Suggester
	assistant *search.Assistant
	notifier  EventNotifier
	jwt       *auth.JWTManager
	webpush   *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		records:   d.Records,
		db:        d.DB,
		chats:     d.Chats,
		suggester: d.Suggester,
		assistant: d.Assistant,
		notifier:  d.Notifier,
		jwt:       d.JWT,
		webpush:   d.WebPush,
	}
}
