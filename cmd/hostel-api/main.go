// main is the entry point of the Hostel API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the SQLite database, seed the room pool and the admin account
//  4. Build the core services, token issuer and attachment store
//  5. Register all HTTP routes and start the server in a goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, then exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/hostel-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/hostel-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/hostel-api/internal/auth"
	"github.com/aanand-mishra/hostel-api/internal/config"
	"github.com/aanand-mishra/hostel-api/internal/filestore"
	"github.com/aanand-mishra/hostel-api/internal/hostel"
	"github.com/aanand-mishra/hostel-api/internal/http/router"
	"github.com/aanand-mishra/hostel-api/internal/storage/sqlite"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting hostel-api",
		slog.String("env", cfg.Env),
		slog.String("version", "1.0.0"),
	)

	// ── 3. Initialise Storage ─────────────────────────────────────────────
	store, err := sqlite.New(cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	// Rooms are created once; later starts leave the pool untouched even
	// if the configured count changes.
	seeded, err := store.SeedRooms(ctx, cfg.Rooms.FirstNumber, cfg.Rooms.Count)
	if err != nil {
		log.Error("failed to seed rooms", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if seeded > 0 {
		log.Info("rooms created", slog.Int("count", seeded), slog.Int("first_number", cfg.Rooms.FirstNumber))
	}

	adminHash, err := auth.HashPassword(cfg.Admin.Password)
	if err != nil {
		log.Error("failed to hash admin password", slog.String("error", err.Error()))
		os.Exit(1)
	}
	created, err := store.EnsureAdmin(ctx, cfg.Admin.Username, adminHash, cfg.Admin.FullName)
	if err != nil {
		log.Error("failed to create admin account", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if created {
		log.Info("admin account created", slog.String("username", cfg.Admin.Username))
	}

	log.Info("storage initialised", slog.String("path", cfg.StoragePath))

	// ── 4. Core Services ──────────────────────────────────────────────────
	files, err := filestore.NewLocal(cfg.UploadDir, log.With(slog.String("component", "filestore")))
	if err != nil {
		log.Error("failed to initialise upload dir", slog.String("error", err.Error()))
		os.Exit(1)
	}

	svc := hostel.New(store, log)
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)

	// ── 5. Routes and Server ──────────────────────────────────────────────
	handler := router.New(router.Deps{
		Service:        svc,
		Users:          store,
		Tokens:         tokens,
		Files:          files,
		MaxUploadBytes: cfg.HTTPServer.MaxUploadBytes,
		Log:            log,
	})

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 6. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// dev: human-readable text at DEBUG. staging: JSON at DEBUG.
// prod: JSON at INFO.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
