package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"perfumeshop/internal/cache"
	"perfumeshop/internal/config"
	"perfumeshop/internal/db"
	"perfumeshop/internal/httpserver"
	"perfumeshop/internal/logger"
	"perfumeshop/internal/repository/uow"
	basketsvc "perfumeshop/internal/service/basket"
	buyersvc "perfumeshop/internal/service/buyer"
	catalogsvc "perfumeshop/internal/service/catalog"
	identitysvc "perfumeshop/internal/service/identity"
	ordersvc "perfumeshop/internal/service/order"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput}).Named("api")
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	catalogCache := cache.Cache(cache.Noop{})
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, catalog cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			catalogCache = cache.NewRedisCache(rdb, cfg.CatalogTTL)
			log.Info("catalog cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CatalogTTL))
		}
	}

	unit := uow.NewPostgres(dbpool, log)
	identityService := identitysvc.New(unit, identitysvc.Options{
		SessionTTL:  cfg.SessionTTL,
		RememberTTL: cfg.RememberTTL,
	}, log)
	if n, err := identityService.PurgeExpiredSessions(ctx); err != nil {
		log.Warn("purge expired sessions", zap.Error(err))
	} else if n > 0 {
		log.Info("purged expired sessions", zap.Int64("count", n))
	}

	catalogService := catalogsvc.New(unit, catalogCache, log, cfg.PageSize)
	srv, err := httpserver.New(cfg.HTTPAddr, log, dbpool, httpserver.Deps{
		BasketSvc:   basketsvc.New(unit, log),
		CatalogSvc:  catalogService,
		IdentitySvc: identityService,
		OrderSvc:    ordersvc.New(unit, log, ordersvc.WithCatalogCache(catalogService)),
		BuyerSvc:    buyersvc.New(),
	}, httpserver.Options{
		BasketCookie:     cfg.BasketCookie,
		AuthCookie:       cfg.AuthCookie,
		CookieSecure:     cfg.CookieSecure,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})
	if err != nil {
		log.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	} else {
		log.Info("server stopped")
	}
}
