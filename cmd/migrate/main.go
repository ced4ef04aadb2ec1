package main

import (
	"context"
	"os"
	"time"

	"pisaresilience/internal/logging"
	"pisaresilience/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, cleanup, err := logging.New(logging.Options{Level: os.Getenv("LOG_LEVEL")})
	if err != nil {
		panic(err)
	}
	defer cleanup()

	databaseURL := os.Getenv("DATABASE_URL")
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	}
	if databaseURL == "" {
		logger.Fatal("usage: migrate [database_url] (or set DATABASE_URL)")
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	logger.Info("run ledger schema ready", zap.String("version", runner.Version()))
}
