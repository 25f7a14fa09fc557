// Package main runs the fitquest API server: the HTTP JSON API plus a gRPC
// health endpoint probing Postgres and Redis.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/fitquest/internal/api"
	"github.com/cory-johannsen/fitquest/internal/auth"
	"github.com/cory-johannsen/fitquest/internal/config"
	"github.com/cory-johannsen/fitquest/internal/game/quest"
	"github.com/cory-johannsen/fitquest/internal/health"
	"github.com/cory-johannsen/fitquest/internal/observability"
	"github.com/cory-johannsen/fitquest/internal/server"
	"github.com/cory-johannsen/fitquest/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	base, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer base.Sync()
	logger := observability.ForService(base, cfg.Server)

	logger.Info("starting fitquest",
		zap.String("http_addr", cfg.HTTP.Addr()),
		zap.String("health_addr", cfg.Health.Addr()),
	)

	contentStart := time.Now()
	templates, err := quest.LoadTemplates(cfg.Content.QuestsDir)
	if err != nil {
		logger.Fatal("loading quest templates", zap.Error(err))
	}
	catalog, err := quest.NewCatalog(templates)
	if err != nil {
		logger.Fatal("building quest catalog", zap.Error(err))
	}
	logger.Info("quest catalog loaded",
		zap.Int("templates", catalog.Len()),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	redisStart := time.Now()
	rdb, err := auth.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("connecting to redis", zap.Error(err))
	}
	defer rdb.Close()
	logger.Info("redis connected",
		zap.String("addr", cfg.Redis.Addr),
		zap.Duration("elapsed", time.Since(redisStart)),
	)

	sessions := auth.NewSessionStore(rdb)
	router := api.NewRouter(api.Deps{
		Users:    postgres.NewUserRepository(pool.DB(), cfg.Auth.BcryptCost),
		Players:  postgres.NewPlayerRepository(pool.DB()),
		Quests:   postgres.NewQuestRepository(pool.DB()),
		Calendar: postgres.NewCalendarRepository(pool.DB()),
		Sessions: sessions,
		Tokens:   auth.NewIssuer(cfg.Auth),
		Catalog:  catalog,
		DB:       pool,
		Logger:   logger,
	})

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	healthSrv := health.NewServer(cfg.Health, logger, map[string]health.Probe{
		"postgres": func(ctx context.Context) error { return pool.Health(ctx, cfg.Health.ProbeTimeout) },
		"redis":    sessions.Ping,
	})

	lifecycle := server.NewLifecycle(logger, cfg.HTTP.ShutdownTimeout)
	lifecycle.Add("http", &server.HTTPService{Server: httpSrv})
	lifecycle.Add("health", healthSrv)

	logger.Info("fitquest ready", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("server exited with error", zap.Error(err))
	}
	logger.Info("fitquest stopped")
}
