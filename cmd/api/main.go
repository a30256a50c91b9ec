package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/akciovadasz/backend/docs"
	"github.com/akciovadasz/backend/internal/app"
	"github.com/akciovadasz/backend/internal/config"
	"github.com/akciovadasz/backend/internal/handler"
	"github.com/akciovadasz/backend/internal/logger"
	"github.com/akciovadasz/backend/internal/scheduler"
)

// @title Akcióvadász API
// @version 1.0
// @description Grocery deal catalog for Hungarian retailers: filtering, favorites, comparison and deal alerts.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@akciovadasz.hu

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to read .env", slog.String("error", err.Error()))
	}

	// Load configuration
	cfg := config.Load()

	// Setup structured logger
	log := logger.Setup(cfg.Env, cfg.LogLevel)

	// Prices go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, app.Options{})
	if err != nil {
		log.Error("Failed to initialize", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("Shutdown cleanup failed", slog.String("error", err.Error()))
		}
	}()

	// Initial catalog load runs in the background so the server answers
	// status requests while it is in flight.
	go func() {
		if _, err := a.Deals.Load(ctx); err != nil {
			log.Error("Initial catalog load failed", slog.String("error", err.Error()))
		}
	}()

	// Automatic refresh scheduler
	refreshScheduler := scheduler.New(scheduler.Config{
		Schedule: cfg.RefreshSchedule,
		Timeout:  cfg.FetchTimeout + 30*time.Second,
		Enabled:  cfg.RefreshEnabled,
		Location: a.Location,
	}, a.Deals, log)
	if err := refreshScheduler.Start(); err != nil {
		log.Error("Failed to start refresh scheduler", slog.String("error", err.Error()))
	} else if cfg.RefreshEnabled {
		log.Info("Refresh scheduler started",
			slog.String("schedule", cfg.RefreshSchedule),
			slog.Duration("stale_after", cfg.RefreshStaleAfter),
			slog.Int("daily_limit", cfg.RefreshDailyLimit),
		)
	}

	handlers := handler.Handlers{
		Deal:      handler.NewDealHandler(a.Deals),
		Selection: handler.NewSelectionHandler(a.Deals),
		Push:      handler.NewPushHandler(a.Notifications, a.Deals),
		AI:        handler.NewAIHandler(a.Deals),
		Location:  handler.NewLocationHandler(a.Deals),
		Health:    handler.NewHealthHandler(a.Deals, refreshScheduler, a.ScraperHealth()),
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(handler.RequestLogContext)
	// CORS - allow frontend origin from env or default
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if cfg.IsDevelopment() {
		log.Debug("Swagger UI enabled", slog.String("url", "http://localhost:"+cfg.Port+"/swagger/index.html"))
	}

	handlers.Register(r)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info("Shutting down server...")

		// Stop scheduler first
		<-refreshScheduler.Stop().Done()
		log.Info("Scheduler stopped")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	log.Info("Server starting", slog.String("port", cfg.Port), slog.String("catalog", a.Fetcher.Source()))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server failed", slog.String("error", err.Error()))
	}
}
