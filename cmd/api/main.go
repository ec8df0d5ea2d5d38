package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/kaizendigital/leadflow/internal/api/router"
	"github.com/kaizendigital/leadflow/internal/chat"
	appconfig "github.com/kaizendigital/leadflow/internal/config"
	"github.com/kaizendigital/leadflow/internal/followup"
	"github.com/kaizendigital/leadflow/internal/leads"
	"github.com/kaizendigital/leadflow/internal/observability/metrics"
	"github.com/kaizendigital/leadflow/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadflow API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Storage: Postgres when configured, process memory otherwise.
	var (
		leadsRepo     leads.Repository
		followupStore followup.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		leadsRepo = leads.NewPostgresRepository(pool)
		followupStore = followup.NewPostgresStore(pool)
		logger.Info("using postgres storage")
	} else {
		leadsRepo = leads.NewInMemoryRepository()
		followupStore = followup.NewMemoryStore()
		logger.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Chat sessions: Redis when configured.
	var sessions chat.SessionStore
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect redis", "error", err)
			os.Exit(1)
		}
		defer func() { _ = client.Close() }()
		sessions = chat.NewRedisSessionStore(client, cfg.ChatSessionTTL)
		logger.Info("using redis chat sessions")
	} else {
		sessions = chat.NewMemorySessionStore(cfg.ChatSessionTTL)
		logger.Warn("REDIS_ADDR not set, chat sessions are in-memory")
	}

	leadMetrics := metrics.NewLeadMetrics(nil)

	templates := followup.NewTemplateSet(cfg.AgencyName, cfg.PublicBaseURL)
	scheduler := followup.NewScheduler(followupStore, templates, logger).WithMetrics(leadMetrics)

	machine := chat.NewMachine(chat.KeywordClassifier{}, cfg.AgencyName)
	chatService := chat.NewService(sessions, leadsRepo, scheduler, machine, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(leadsRepo, logger).WithMetrics(leadMetrics),
		ChatHandler:        chat.NewHandler(chatService, logger),
		FollowupHandler:    followup.NewHandler(scheduler, followupStore, logger),
		MetricsHandler:     promhttp.Handler(),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSec,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
