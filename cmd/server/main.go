package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gleanenglish/internal/config"
	"gleanenglish/internal/database"
	"gleanenglish/internal/handlers"
	"gleanenglish/internal/i18n"
	"gleanenglish/internal/logger"
	"gleanenglish/internal/repository"
	"gleanenglish/internal/security"
	"gleanenglish/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	handlers.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()
	handlers.CompleteStep(handlers.StepDatabase)
	log.Info("Database connection established", "type", cfg.DatabaseType)

	handlers.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(ctx); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}
	handlers.CompleteStep(handlers.StepMigrations)
	log.Info("Migrations completed successfully")

	locales, err := i18n.NewConfig(cfg.Locales, cfg.DefaultLocale)
	if err != nil {
		log.Fatal("Invalid locale configuration", "error", err)
	}

	handlers.SetCurrentStep(handlers.StepTemplates)
	catalog, err := i18n.LoadCatalog(locales)
	if err != nil {
		log.Fatal("Failed to load messages", "error", err)
	}
	csrf := security.NewCSRFGenerator(cfg.SessionSecret)
	render, err := handlers.NewRenderer(locales, catalog, csrf, log)
	if err != nil {
		log.Fatal("Failed to load templates", "error", err)
	}
	handlers.CompleteStep(handlers.StepTemplates)

	// Initialize repositories and services
	handlers.SetCurrentStep(handlers.StepServices)
	userRepo := repository.NewUserRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, log)
	if err != nil {
		log.Warn("Email disabled", "error", err)
		emailService = nil
	}

	ranking, err := service.ParseRanking(cfg.BestAttemptRanking)
	if err != nil {
		log.Fatal("Invalid best attempt ranking", "error", err)
	}

	tokens := security.NewTokenManager(cfg.SessionSecret, cfg.SessionDuration)
	authService := service.NewAuthService(userRepo, tokens, emailService, log)
	historyService := service.NewHistoryService(historyRepo, log, ranking)

	oauthProviders := map[string]handlers.OAuthProvider{}
	if cfg.OAuthEnabled() {
		oauthProviders["google"] = handlers.GoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret)
	}

	// 5 attempts per minute per client on the login and sign-up forms
	limiter := security.NewRateLimiter(5, time.Minute)
	defer limiter.Stop()

	lessons := handlers.NewLessonHandler(historyService, render, log)
	defer lessons.Close()

	app := &handlers.App{
		Middleware:      handlers.NewMiddleware(authService, locales, csrf, limiter, log),
		Auth:            handlers.NewAuthHandler(authService, render, oauthProviders, cfg.OAuthRedirectBaseURL, log),
		Lessons:         lessons,
		Dashboard:       handlers.NewDashboardHandler(historyService, render, log),
		History:         handlers.NewHistoryAPI(historyService, log),
		StaticFilesPath: cfg.StaticFilesPath,
		Log:             log,
	}
	handlers.CompleteStep(handlers.StepServices)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      app.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go cleanupExpiredSessions(ctx, log, authService)

	go func() {
		log.Info("Server starting", "addr", addr, "locales", locales.Locales, "default_locale", locales.Default)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()
	handlers.MarkReady()

	<-ctx.Done()
	log.Info("Server shutting down")
	handlers.MarkShuttingDown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
}

// cleanupExpiredSessions periodically removes revocations of expired tokens
func cleanupExpiredSessions(ctx context.Context, log *logger.Logger, authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpiredSessions(ctx); err != nil {
				log.Error("Error cleaning up expired sessions", "error", err)
			}
		}
	}
}
