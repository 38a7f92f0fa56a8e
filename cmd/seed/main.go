package main

import (
	"context"
	"errors"

	"perfumeshop/internal/config"
	"perfumeshop/internal/db"
	"perfumeshop/internal/domain"
	"perfumeshop/internal/logger"
	"perfumeshop/internal/repository/uow"
	"perfumeshop/internal/seed"
	identitysvc "perfumeshop/internal/service/identity"

	"go.uber.org/zap"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput}).Named("seed")
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	unit := uow.NewPostgres(pool, log)
	if err := seed.Apply(ctx, unit, log); err != nil {
		log.Fatal("seed apply", zap.Error(err))
	}

	if cfg.AdminEmail == "" {
		log.Info("PERFUME_ADMIN_EMAIL not set, skipping admin account")
		return
	}
	identity := identitysvc.New(unit, identitysvc.Options{}, log)
	_, err = identity.Register(ctx, identitysvc.RegisterInput{
		Email:    cfg.AdminEmail,
		UserName: "admin",
		Password: cfg.AdminPassword,
		IsAdmin:  true,
	})
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		log.Info("admin account already exists", zap.String("email", cfg.AdminEmail))
	case err != nil:
		log.Fatal("create admin account", zap.Error(err))
	default:
		log.Info("admin account created", zap.String("email", cfg.AdminEmail))
	}
}
