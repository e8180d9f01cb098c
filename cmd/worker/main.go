// Package main - точка входа фонового воркера NestMate Hub.
//
// Воркер крутит два cron-задания: закрытие предложений с истёкшим окном
// ответа и прогрев кеша парных оценок для недавно активных пользователей.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nestmate-hub/nestmate-hub/config"
	"github.com/nestmate-hub/nestmate-hub/internal/domain/matching"
	"github.com/nestmate-hub/nestmate-hub/internal/infrastructure/messaging"
	"github.com/nestmate-hub/nestmate-hub/internal/infrastructure/persistence/postgres"
	"github.com/nestmate-hub/nestmate-hub/internal/infrastructure/persistence/redis"
	"github.com/nestmate-hub/nestmate-hub/internal/worker"
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
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if !cfg.Worker.Enabled {
		return errors.New("worker is disabled by configuration")
	}

	logOpts := logger.DefaultOptions()
	logOpts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	log := logger.New(logOpts).With(logger.String("app", cfg.App.Name+"-worker"))

	log.Info("starting NestMate Hub worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ИНФРАСТРУКТУРА
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	var matchCache matching.Cache
	if cfg.Features.MatchCache && cfg.Features.CacheWarmup && !cfg.Redis.Disabled {
		redisCache, err := redis.NewCache(redisConfig(cfg))
		if err != nil {
			log.Warn("failed to connect to Redis, cache warmup disabled", logger.Err(err))
		} else {
			defer redisCache.Close()
			matchCache = redis.NewMatchCache(redisCache)
		}
	}

	prefRepo := postgres.NewPreferenceRepository(dbConn)
	roommateRepo := postgres.NewRoommateRepository(dbConn)

	busConfig := messaging.DefaultConfig()
	busConfig.Logger = log
	eventBus := messaging.NewEventBus(busConfig)
	defer eventBus.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. РЕГИСТРАЦИЯ ЗАДАНИЙ
	// ─────────────────────────────────────────────────────────────────────────
	var schedules []worker.Schedule

	if cfg.Features.ProposalSweep {
		schedules = append(schedules, worker.Schedule{
			Spec: cfg.Worker.ExpireProposalsSpec,
			Name: "expire_proposals",
			Job:  worker.NewExpireProposalsJob(roommateRepo, eventBus, cfg.Worker.ExpireBatchSize, log),
		})
	}

	if matchCache != nil {
		warmCfg := worker.WarmMatchCacheConfig{
			ActiveWindow: cfg.Worker.WarmupActiveWindow,
			UserLimit:    cfg.Worker.WarmupUserLimit,
			PairLimit:    cfg.Worker.WarmupPairLimit,
		}
		schedules = append(schedules, worker.Schedule{
			Spec: cfg.Worker.WarmCacheSpec,
			Name: "warm_match_cache",
			Job:  worker.NewWarmMatchCacheJob(prefRepo, roommateRepo, matchCache, eventBus, warmCfg, log),
		})
	}

	if len(schedules) == 0 {
		return errors.New("no jobs enabled, nothing to run")
	}

	w := worker.NewWorker(schedules, log)
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ОЖИДАНИЕ ЗАВЕРШЕНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	<-ctx.Done()
	log.Info("shutdown signal received")
	w.Stop()
	log.Info("NestMate Hub worker stopped")
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
