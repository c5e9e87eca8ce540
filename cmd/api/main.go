package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rental-manager/internal/app"
	"rental-manager/internal/auth"
	"rental-manager/internal/config"
	"rental-manager/internal/handlers"
	"rental-manager/internal/logger"
	"rental-manager/internal/ratelimit"
	"rental-manager/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	configPath := app.ConfigPath()
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	}
	app.ApplyEnv(appConfig)
	if err := appConfig.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(appConfig.Logging.Level, appConfig.Logging.Format, "rental-api")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	if appConfig.Auth.JWTSecret == "" {
		zapLogger.Fatal("JWT secret is not configured; set auth.jwt_secret or JWT_SECRET")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	if err := a.Migrate(); err != nil {
		zapLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	rateLimiter := ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)
	zapLogger.Info("Rate limiter initialized",
		zap.Int("per_minute", appConfig.RateLimit.RequestsPerMinute),
		zap.Int("per_hour", appConfig.RateLimit.RequestsPerHour),
		zap.Bool("enabled", appConfig.RateLimit.Enabled))

	reminders := scheduler.NewScheduler(a.Store, a.Increases, appConfig.Scheduler, appConfig.Increase.UrgentDays, a.Location, a.Metrics, zapLogger)
	if err := reminders.Start(); err != nil {
		zapLogger.Warn("Failed to start scheduler", zap.Error(err))
	}
	defer reminders.Stop()

	deps := handlers.Deps{
		Store:     a.Store,
		Increases: a.Increases,
		History:   a.History,
		Reminders: reminders,
		Verifier:  auth.NewVerifier(appConfig.Auth.JWTSecret, appConfig.Auth.Issuer, zapLogger),
		Limiter:   rateLimiter,
		Metrics:   a.Metrics,
		Config:    appConfig,
		Logger:    zapLogger,
	}
	if a.Search != nil {
		deps.Search = a.Search
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           handlers.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("port", appConfig.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
}
