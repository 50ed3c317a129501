// @title                       DaftLink API
// @version                     1.0
// @description                 Referral chains with plan quotas and an automatic expiry lifecycle.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Matfen2/daftlink-demo/internal/api"
	"github.com/Matfen2/daftlink-demo/internal/api/handler"
	"github.com/Matfen2/daftlink-demo/internal/core/service"
	"github.com/Matfen2/daftlink-demo/internal/infrastructure/config"
	"github.com/Matfen2/daftlink-demo/internal/infrastructure/crypto"
	mongodb "github.com/Matfen2/daftlink-demo/internal/infrastructure/db/mongo"
	redisdb "github.com/Matfen2/daftlink-demo/internal/infrastructure/db/redis"
	"github.com/Matfen2/daftlink-demo/internal/infrastructure/scheduler"
	"github.com/Matfen2/daftlink-demo/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad(ctx)
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
		Env:    cfg.Env,
	})

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:         cfg.Mongo.URI,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := mongodb.Disconnect(mongoClient); err != nil {
			log.Error().Err(err).Msg("mongodb disconnect failed")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	users := mongodb.NewUserRepository(db)
	chains := mongodb.NewChainRepository(db)
	if err := mongodb.EnsureIndexes(ctx, users, chains); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	tokens, err := service.NewTokenService(service.TokenConfig{Secret: cfg.Auth.JWTSecret, TTL: cfg.Auth.JWTExpire})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid token configuration")
	}
	authService := service.NewAuthService(users, crypto.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, logger.Component("auth"))
	authGate := service.NewAuthGate(tokens, users, logger.Component("auth-gate"))
	chainService := service.NewChainService(chains, users, logger.Component("chains"))

	sweeper, err := scheduler.NewSweeper(chainService, redisdb.NewLocker(rdb), scheduler.Config{
		Schedule: cfg.Sweep.Schedule,
		LockTTL:  cfg.Sweep.LockTTL,
	}, logger.Component("sweeper"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid sweep schedule")
	}
	sweeper.Start(ctx)

	e := api.NewRouter(api.Dependencies{
		Log:           logger.Component("http"),
		AuthService:   authService,
		ChainService:  chainService,
		Authenticator: authGate,
		Health: map[string]handler.DependencyCheck{
			"mongodb": handler.MongoCheck(db),
			"redis":   handler.RedisCheck(rdb),
		},
		PublicRate:  cfg.Public.EngagementRate,
		PublicBurst: cfg.Public.EngagementBurst,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	sweeper.Stop()
}
