package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"perfumeshop/internal/cache"
	"perfumeshop/internal/config"
	"perfumeshop/internal/db"
	"perfumeshop/internal/importer"
	"perfumeshop/internal/logger"
	"perfumeshop/internal/repository/lookup"
	"perfumeshop/internal/repository/product"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to perfume catalog CSV")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput}).Named("importer")
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	start := time.Now()
	var count int
	// One transaction: a bad row leaves the catalog untouched.
	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		imp := importer.NewCSVImporter(f, product.NewPostgres(tx, log), lookup.NewPostgres(tx), log)
		var runErr error
		count, runErr = imp.Run(ctx)
		return runErr
	})
	if err != nil {
		log.Fatal("import failed", zap.Error(err))
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := cache.NewRedisCache(rdb, cfg.CatalogTTL).Invalidate(ctx); err != nil {
			log.Warn("invalidate catalog cache", zap.Error(err))
		}
	}

	fmt.Printf("Imported %d products in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
