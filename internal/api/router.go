package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"stuud-backend/config"
	"stuud-backend/internal/mw"
)

// NewRouter creates the gin engine with every /api route registered.
func NewRouter(cfg *config.ServerConfig, d Deps) *gin.Engine {
	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	handler := NewHandler(d)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	responses := mw.NewResponseCache(ttl)
	caching := mw.Cache(responses)

	if d.JWT == nil {
		log.Printf("WARNING: admin.jwt_secret is not set, admin routes are open")
	}
	adminAuth := mw.AdminAuth(d.JWT)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/health", handler.Health)

		api.GET("/events", caching, handler.GetEvents)
		api.GET("/faculty", caching, handler.GetFaculty)
		api.GET("/classrooms", caching, handler.GetClassrooms)
		api.GET("/timetable", caching, handler.GetTimetable)
		api.GET("/map", caching, handler.GetMap)

		api.GET("/search", handler.SearchFaculty)
		api.GET("/search/suggestions", handler.GetSuggestions)
		api.POST("/assistant/ask", handler.Ask)

		api.POST("/chat/sessions", handler.CreateChatSession)
		api.GET("/chat/sessions/:id", handler.GetChatSession)
		api.DELETE("/chat/sessions/:id", handler.DeleteChatSession)
		api.POST("/chat/sessions/:id/messages", handler.SendChatMessage)

		api.POST("/admin/login", handler.Login)
		admin := api.Group("/admin", adminAuth, mw.Invalidate(responses))
		{
			admin.POST("/faculty", handler.AddFaculty)
			admin.POST("/classrooms", handler.AddClassroom)
			admin.POST("/events", handler.AddEvent)
			admin.POST("/timetable", handler.AddTimetableEntry)
		}

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}

// WithCORS wraps the engine for the mobile and web clients.
func WithCORS(engine http.Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(engine)
}
