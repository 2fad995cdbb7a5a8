package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/pixelpulse-golang/internal/auth"
	"github.com/01moynul/pixelpulse-golang/internal/config"
	"github.com/01moynul/pixelpulse-golang/internal/database"
	"github.com/01moynul/pixelpulse-golang/internal/handlers"
	"github.com/01moynul/pixelpulse-golang/internal/logging"
	"github.com/01moynul/pixelpulse-golang/internal/routes"
	"github.com/01moynul/pixelpulse-golang/internal/store"
	"github.com/01moynul/pixelpulse-golang/internal/uploads"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	slog.SetDefault(logger)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	if err := run(cfg, logger, database.Open); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

type storeOpener func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error)

// run owns every resource it opens, so its deferred cleanups always execute.
func run(cfg *config.Config, logger *slog.Logger, openStore storeOpener) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Database Connection ---
	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("connect %s database: %w", cfg.Database.Driver, err)
	}
	defer db.Close(context.Background())

	// 2. --- Upload Storage ---
	var storage uploads.Storage
	opts := routes.Options{CORSOrigin: cfg.CORSOrigin, FrontendDir: cfg.FrontendDir}
	switch cfg.Upload.Backend {
	case config.UploadS3:
		storage, err = uploads.NewS3(ctx, uploads.S3Options{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("configure s3 uploads: %w", err)
		}
	default:
		local := uploads.NewLocal(cfg.Upload.Dir, cfg.BaseURL)
		storage = local
		opts.UploadDir = local.Dir()
	}

	// --- Application Setup ---
	app := &handlers.Handlers{
		Store:          db,
		Tokens:         auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL),
		Uploads:        storage,
		Logger:         logger,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	}

	// --- Router Setup ---
	router := routes.SetupRouter(app, opts)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	// --- Start Server ---
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting PixelPulse API server", "addr", srv.Addr, "driver", cfg.Database.Driver, "uploads", cfg.Upload.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
