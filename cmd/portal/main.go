package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/creait/portal/internal/api"
	"github.com/creait/portal/internal/db"
	"github.com/creait/portal/internal/identity"
	"github.com/creait/portal/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

func main() {
	zlog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	port := getEnv("PORT", "8080")
	dbPath := getEnv("DB_PATH", filepath.Join("data", "portal.db"))
	cookieSecure := getEnv("COOKIE_SECURE", "true") != "false"

	providerURL := getEnv("IDENTITY_PROVIDER_URL", "")
	tokenSecret := getEnv("IDENTITY_TOKEN_SECRET", "")
	issuer := getEnv("IDENTITY_ISSUER", "")

	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("database init failed")
	}

	// The identity client is built exactly once and handed to everything
	// that needs it; components never reach for a shared global.
	verifier, err := identity.NewClient(identity.ClientConfig{
		ProviderURL: providerURL,
		TokenSecret: tokenSecret,
		Issuer:      issuer,
		Timeout:     5 * time.Second,
	})
	if err != nil {
		zlog.Fatal().Err(err).Msg("identity client init failed")
	}

	repos := db.NewRepositories(database)
	sessions := services.NewSessionService(repos.Sessions, repos.Profiles)
	pitches := services.NewPitchService(repos.PitchAccess)
	authorizer := services.NewAuthorizer(repos.Profiles)

	if purged, err := sessions.PurgeExpired(); err != nil {
		zlog.Error().Err(err).Msg("expired session sweep failed")
	} else if purged > 0 {
		zlog.Info().Int64("purged", purged).Msg("expired sessions swept")
	}

	handler := api.NewHandler(verifier, sessions, pitches, authorizer, zlog, cookieSecure)

	app := fiber.New(fiber.Config{
		AppName:               "Portal",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	api.RegisterRoutes(app, handler)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			zlog.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	zlog.Info().Str("port", port).Str("db", dbPath).Msg("portal access service listening")
	if err := app.Listen(":" + port); err != nil {
		zlog.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
