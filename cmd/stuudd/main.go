package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stuud-backend/config"
	"stuud-backend/internal/api"
	"stuud-backend/internal/auth"
	"stuud-backend/internal/chat"
	"stuud-backend/internal/db"
	"stuud-backend/internal/llm"
	"stuud-backend/internal/notification"
	"stuud-backend/internal/records"
	"stuud-backend/internal/search"
)

func main() {
	logger := log.New(os.Stdout, "stuud ", log.LstdFlags)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("failed to read .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// The database always backs push subscriptions, and the records too when records.backend is "database".
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	var store records.Store
	switch cfg.Records.Backend {
	case config.RecordsDatabase:
		store = records.NewGormStore(gormDB)
	default:
		store = records.NewRESTStore(&cfg.Records)
	}
	logger.Printf("record store: %s", cfg.Records.Backend)

	chatBackend, err := llm.New(cfg.Chat.Provider, &cfg.Chat)
	if err != nil {
		logger.Fatalf("failed to create chat backend: %v", err)
	}
	searchBackend := chatBackend
	if cfg.Search.Provider != cfg.Chat.Provider {
		if searchBackend, err = llm.New(cfg.Search.Provider, &cfg.Chat); err != nil {
			logger.Fatalf("failed to create search backend: %v", err)
		}
	}
	logger.Printf("chat provider: %s, search provider: %s", chatBackend.Name(), searchBackend.Name())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	webpushOptions := notification.OptionsFromConfig(cfg.Push)
	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
	pool.Start(ctx)

	var jwtManager *auth.JWTManager
	if cfg.Admin.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.Admin.JWTSecret, cfg.Admin.PasswordHash, cfg.Admin.TokenTTL)
	}

	router := api.NewRouter(&cfg.Server, api.Deps{
		Records:   store,
		DB:        gormDB,
		Chats:     chat.NewManager(chatBackend, cfg.Chat.SendHistory, time.Duration(cfg.Chat.SessionTTLMinutes)*time.Minute),
		Suggester: search.NewSuggester(searchBackend, cfg.Search.MinQueryLength),
		Assistant: search.NewAssistant(searchBackend),
		Notifier:  pool,
		JWT:       jwtManager,
		WebPush:   webpushOptions,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.WithCORS(router, cfg.Server.AllowedOrigins),
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
