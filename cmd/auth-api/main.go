package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/member-auth-api/api/swagger"
	"github.com/noah-isme/member-auth-api/internal/handler"
	"github.com/noah-isme/member-auth-api/internal/repository"
	"github.com/noah-isme/member-auth-api/internal/router"
	"github.com/noah-isme/member-auth-api/internal/service"
	"github.com/noah-isme/member-auth-api/pkg/cache"
	"github.com/noah-isme/member-auth-api/pkg/config"
	"github.com/noah-isme/member-auth-api/pkg/database"
	"github.com/noah-isme/member-auth-api/pkg/hash"
	"github.com/noah-isme/member-auth-api/pkg/logger"
)

// @title Member Auth API
// @version 1.0.0
// @description Login, session renewal and revocation for the membership API
// @BasePath /
// @schemes https

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close()

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient, cfg.Redis.KeyPrefix, logr)
	auditRepo := repository.NewAuditRepository(db)

	hasher := hash.FromConfig(cfg.Hash)
	metricsSvc := service.NewMetricsService()

	auditSvc := service.NewAuditService(auditRepo, service.AuditConfig{
		Enabled:    cfg.Audit.Enabled,
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
	}, logr)
	auditSvc.Start(context.Background())
	defer auditSvc.Stop()

	gate := service.NewUserGate(userRepo, hasher, logr)
	authSvc := service.NewAuthService(service.AuthServiceParams{
		Codec:    service.NewTokenCodec(cfg.JWT.AccessKey, cfg.JWT.RefreshKey, nil),
		Sessions: sessionRepo,
		Users:    gate,
		Audit:    auditSvc,
		Metrics:  metricsSvc,
		Logger:   logr,
	})
	userSvc := service.NewUserService(userRepo, hasher, service.NewValidator(), auditSvc, logr)

	engine := router.New(router.Options{
		Logger:         logr,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AuthPrefix:     cfg.AuthPrefix,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Metrics:        metricsSvc,
	}, router.Handlers{
		Auth: handler.NewAuthHandler(authSvc, handler.CookieConfig{
			Domain:      cfg.Cookie.Domain,
			Secure:      cfg.Cookie.Secure,
			RefreshPath: cfg.AuthPrefix,
		}),
		User: handler.NewUserHandler(userSvc),
		Metrics: handler.NewMetricsHandler(metricsSvc, map[string]handler.ReadinessCheck{
			"database": db.PingContext,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		}),
		Sessions: authSvc,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
