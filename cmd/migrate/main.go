package main

import (
	"context"
	"flag"

	"perfumeshop/internal/config"
	"perfumeshop/internal/db"
	"perfumeshop/internal/logger"
	"perfumeshop/internal/migrate"

	"go.uber.org/zap"
)

func main() {
	down := flag.Int("down", 0, "Roll back the given number of migration steps instead of applying")
	flag.Parse()

	cfg := config.FromEnv()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput}).Named("migrate")
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	if *down > 0 {
		if err := migrate.Rollback(ctx, pool, *down); err != nil {
			log.Fatal("roll back migrations", zap.Int("steps", *down), zap.Error(err))
		}
		log.Info("migrations rolled back", zap.Int("steps", *down))
		return
	}

	if err := migrate.Apply(ctx, pool); err != nil {
		log.Fatal("apply migrations", zap.Error(err))
	}
	log.Info("migrations applied")
}
