// Command seed replaces the contents of the configured database with sample data.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/01moynul/pixelpulse-golang/internal/config"
	"github.com/01moynul/pixelpulse-golang/internal/database"
	"github.com/01moynul/pixelpulse-golang/internal/logging"
	"github.com/01moynul/pixelpulse-golang/internal/seed"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Database.Driver == config.DriverMemory {
		log.Fatal("DB_DRIVER=memory: nothing to seed")
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	if err := run(context.Background(), cfg, logger); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	logger.Info("sample data created", "admin", seed.AdminEmail, "user", seed.UserEmail)
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close(ctx)

	return seed.Run(ctx, db, logger)
}
