package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/onestepid/onestep-auth/config"
	"github.com/onestepid/onestep-auth/db"
	"github.com/onestepid/onestep-auth/internal/auth/handler"
	repo "github.com/onestepid/onestep-auth/internal/auth/repository/postgres"
	"github.com/onestepid/onestep-auth/internal/auth/service"
	"github.com/onestepid/onestep-auth/internal/avv"
	"github.com/onestepid/onestep-auth/internal/logger"
	"github.com/onestepid/onestep-auth/internal/ratelimit"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.Env != "production")
	if err != nil {
		log.Fatalf("failed to initialise logger: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	ctx := context.Background()

	dbPool, err := db.NewPostgresPool(ctx, cfg.DBURL)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	userRepo := repo.NewRepository(dbPool)
	hasher := &service.BcryptHasher{Cost: cfg.BcryptCost}
	sessionService := service.NewSessionService(cfg.SessionTokenSecret, cfg.PasscodeSessionDays, cfg.BiometricSessionDays)

	engine := avv.NewEngine(userRepo, cfg.Env, zlog)
	passcodeService := service.NewPasscodeService(userRepo, hasher, sessionService, userRepo, zlog)

	otpLimiter := ratelimit.NewFixedWindow(cfg.OTPResendLimit, time.Duration(cfg.OTPResendWindowMin)*time.Minute)
	otpService := service.NewOTPService(
		userRepo,
		hasher,
		sessionService,
		&service.DevSender{Logger: zlog},
		otpLimiter,
		userRepo,
		time.Duration(cfg.OTPTTLMin)*time.Minute,
		zlog,
	)
	defer otpService.Stop()

	authHandler := handler.NewAuthHandler(engine, passcodeService, otpService, sessionService)

	app := fiber.New()
	handler.RegisterRoutes(app, authHandler)

	zlog.Info("starting server", zap.String("port", cfg.Port), zap.String("env", cfg.Env))

	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
