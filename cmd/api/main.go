// Package main - точка входа REST API сервиса NestMate Hub.
//
// NestMate Hub подбирает соседей по съёмному жилью для студентов:
// анкета предпочтений, симметричная оценка совместимости пары,
// ранжирование пула кандидатов и жизненный цикл предложений.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: PostgreSQL, Redis, event bus
// - Interface: HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nestmate-hub/nestmate-hub/config"
	"github.com/nestmate-hub/nestmate-hub/internal/application/command"
	"github.com/nestmate-hub/nestmate-hub/internal/application/eventhandler"
	"github.com/nestmate-hub/nestmate-hub/internal/application/query"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/matching"
	"github.com/nestmate-hub/nestmate-hub/internal/infrastructure/messaging"
	"github.com/nestmate-hub/nestmate-hub/internal/infrastructure/persistence/postgres"
	"github.com/nestmate-hub/nestmate-hub/internal/infrastructure/persistence/redis"
	httpserver "github.com/nestmate-hub/nestmate-hub/internal/interface/http"
	"github.com/nestmate-hub/nestmate-hub/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	logOpts := logger.DefaultOptions()
	logOpts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	log := logger.New(logOpts).With(logger.String("app", cfg.App.Name))

	log.Info("starting NestMate Hub API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.RunMigrations {
		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations completed")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var matchCache matching.Cache
	var redisCache *redis.Cache

	if cfg.Features.MatchCache && !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCache, err = redis.NewCache(redisConfig(cfg))
		if err != nil {
			// Кеш - ускорение, а не условие корректности: без Redis
			// оценки просто считаются заново при каждом запросе.
			log.Warn("failed to connect to Redis, match caching disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			matchCache = redis.NewMatchCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ И EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	prefRepo := postgres.NewPreferenceRepository(dbConn)
	roommateRepo := postgres.NewRoommateRepository(dbConn)

	busConfig := messaging.DefaultConfig()
	busConfig.Logger = log
	eventBus := messaging.NewEventBus(busConfig)
	defer func() {
		log.Info("closing event bus...")
		eventBus.Close()
	}()

	// Реактивная зачистка кеша по событиям предпочтений.
	if err := eventBus.SubscribeTyped(eventhandler.NewOnPreferencesUpdatedHandler(matchCache, log)); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	deps := httpserver.Dependencies{
		UpdatePreferencesHandler: command.NewUpdatePreferencesHandler(prefRepo, matchCache, eventBus),
		SetWeightsHandler:        command.NewSetWeightsHandler(prefRepo, matchCache, eventBus),
		ProposeRoommateHandler:   command.NewProposeRoommateHandler(roommateRepo, prefRepo, eventBus),
		RespondProposalHandler:   command.NewRespondProposalHandler(roommateRepo, eventBus),
		BlockUserHandler:         command.NewBlockUserHandler(roommateRepo, eventBus),
		RankRoommatesHandler:     query.NewRankRoommatesHandler(prefRepo, roommateRepo, eventBus),
		GetCompatibilityHandler:  query.NewGetCompatibilityHandler(prefRepo, matchCache, eventBus),
		Logger:                   log,
		HealthChecker:            &healthChecker{db: dbConn, cache: redisCache},
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ЗАПУСК HTTP СЕРВЕРА
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.EnableCORS = cfg.HTTP.EnableCORS
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	server := httpserver.NewServer(serverCfg, deps)
	errCh := server.StartAsync()

	log.Info("NestMate Hub API started", logger.String("address", server.Address()))

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ОЖИДАНИЕ ЗАВЕРШЕНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	log.Info("NestMate Hub API stopped")
	return nil
}

// redisConfig maps application config to the Redis client config.
func redisConfig(cfg *config.Config) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	return rc
}

// healthChecker probes the API's downstream dependencies.
type healthChecker struct {
	db    *postgres.Connection
	cache *redis.Cache
}

// Check implements httpserver.HealthChecker.
func (h *healthChecker) Check(ctx context.Context) httpserver.HealthStatus {
	status := httpserver.HealthStatus{Healthy: true, Checks: make(map[string]string)}

	if err := h.db.Ping(ctx); err != nil {
		status.Healthy = false
		status.Checks["postgres"] = err.Error()
	} else {
		status.Checks["postgres"] = "ok"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			// Degraded but serving: the cache is optional.
			status.Checks["redis"] = err.Error()
		} else {
			status.Checks["redis"] = "ok"
		}
	}

	return status
}
