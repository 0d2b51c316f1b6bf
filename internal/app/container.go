// Package app собирает зависимости Tournament Hub из конфигурации.
//
// Порядок сборки: логгер -> хранилища (memory или PostgreSQL) ->
// кеш лидерборда (memory или Redis) -> шина событий -> сервис -> контроллер.
// Используется обоими бинарниками (cmd/demo и cmd/worker).
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alem-hub/tournament-hub/config"
	"github.com/alem-hub/tournament-hub/internal/application/service"
	"github.com/alem-hub/tournament-hub/internal/domain/challenge"
	"github.com/alem-hub/tournament-hub/internal/domain/leaderboard"
	"github.com/alem-hub/tournament-hub/internal/domain/shared"
	"github.com/alem-hub/tournament-hub/internal/domain/tournament"
	"github.com/alem-hub/tournament-hub/internal/infrastructure/messaging"
	"github.com/alem-hub/tournament-hub/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/tournament-hub/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/tournament-hub/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/tournament-hub/internal/interface/controller"
	"github.com/alem-hub/tournament-hub/pkg/circuitbreaker"
	"github.com/alem-hub/tournament-hub/pkg/logger"
	"github.com/alem-hub/tournament-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTAINER
// ══════════════════════════════════════════════════════════════════════════════

// Container держит собранные компоненты и закрывает их в обратном порядке.
type Container struct {
	Config *config.Config
	Log    *logger.Logger

	// DB равен nil при STORAGE_DRIVER=memory.
	DB *postgres.Connection

	// Redis равен nil, если Redis выключен или недоступен.
	Redis *redis.Cache

	// RedisBus равен nil без Redis; тогда Bus - локальная шина.
	RedisBus *messaging.RedisEventBus
	Bus      shared.EventBus

	Tournaments tournament.Repository
	Challenges  challenge.Repository
	Cache       leaderboard.Cache

	Service    *service.TournamentService
	Controller *controller.TournamentController

	closers []func() error
}

// NewLogger создаёт логгер по настройкам наблюдаемости.
func NewLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Output = os.Stdout
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Format = logger.Format(cfg.Observability.LogFormat)
	opts.AddCaller = !cfg.IsProduction()
	return logger.New(opts).With(
		logger.String("app", cfg.App.Name),
		logger.String("version", cfg.App.Version),
	)
}

// Build собирает контейнер. При ошибке уже открытые ресурсы закрываются.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.Nop()
	}
	c := &Container{Config: cfg, Log: log}

	if err := c.buildStores(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	c.buildRedis(ctx)
	c.buildBus()

	c.Service = service.NewTournamentService(c.Tournaments, c.Challenges,
		service.WithLogger(log),
		service.WithEventPublisher(c.Bus),
		service.WithLeaderboardCache(c.Cache, cfg.Redis.LeaderboardTTL),
		service.WithScorePolicy(service.ScorePolicy(cfg.Tournament.ScorePolicy)),
	)
	c.Controller = controller.NewTournamentController(c.Service, log)

	log.Info("container ready",
		logger.String("storage", cfg.Storage.Driver),
		logger.Bool("redis", c.Redis != nil),
		logger.String("score_policy", string(c.Service.Policy())),
	)
	return c, nil
}

// Close закрывает ресурсы в порядке, обратном открытию.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) onClose(fn func() error) {
	c.closers = append(c.closers, fn)
}

// ─────────────────────────────────────────────────────────────────────────────
// Хранилища
// ─────────────────────────────────────────────────────────────────────────────

func (c *Container) buildStores(ctx context.Context) error {
	if !c.Config.UsesPostgres() {
		c.Tournaments = memory.NewTournamentRepository()
		c.Challenges = memory.NewChallengeRepository()
		return nil
	}

	dbCfg := postgres.DefaultConfig()
	dbCfg.URL = c.Config.Database.URL
	if c.Config.Database.MaxOpenConns > 0 {
		dbCfg.MaxConns = int32(c.Config.Database.MaxOpenConns)
	}
	if c.Config.Database.MaxIdleConns > 0 {
		dbCfg.MinConns = int32(c.Config.Database.MaxIdleConns)
	}
	dbCfg.MaxConnLifetime = c.Config.Database.ConnMaxLifetime
	dbCfg.MaxConnIdleTime = c.Config.Database.ConnMaxIdleTime

	c.Log.Info("connecting to database...")
	var conn *postgres.Connection
	err := connectRetrier(c.Log, "postgres_connect").Do(ctx, func(ctx context.Context) error {
		var err error
		conn, err = postgres.NewConnection(ctx, dbCfg)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = conn
	c.onClose(func() error {
		c.Log.Info("closing database connection...")
		conn.Close()
		return nil
	})

	if c.Config.Database.AutoMigrate {
		applied, err := postgres.NewMigrator(conn).Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.Log.Info("migrations completed", logger.Int("applied", applied))
	}

	c.Tournaments = postgres.NewTournamentRepository(conn)
	c.Challenges = postgres.NewChallengeRepository(conn)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Redis и шина событий
// ─────────────────────────────────────────────────────────────────────────────

// buildRedis подключает Redis. Недоступный Redis не фатален:
// кеш лидерборда остаётся в памяти процесса.
func (c *Container) buildRedis(ctx context.Context) {
	c.Cache = memory.NewLeaderboardCache()

	rc := c.Config.Redis
	if !rc.Enabled {
		return
	}

	redisCfg := redis.DefaultConfig()
	redisCfg.Host = rc.Host
	redisCfg.Port = rc.Port
	redisCfg.Password = rc.Password
	redisCfg.DB = rc.DB
	redisCfg.PoolSize = rc.PoolSize
	redisCfg.MinIdleConns = rc.MinIdleConns
	redisCfg.DialTimeout = rc.DialTimeout
	redisCfg.ReadTimeout = rc.ReadTimeout
	redisCfg.WriteTimeout = rc.WriteTimeout

	c.Log.Info("connecting to Redis...", logger.String("addr", redisCfg.Addr()))
	var cache *redis.Cache
	err := connectRetrier(c.Log, "redis_connect").Do(ctx, func(context.Context) error {
		var err error
		cache, err = redis.NewCache(redisCfg)
		return err
	})
	if err != nil {
		c.Log.Warn("failed to connect to Redis, using in-process cache", logger.Err(err))
		return
	}

	c.Redis = cache
	c.onClose(cache.Close)
	breaker := circuitbreaker.CacheBreaker(func(name string, from, to circuitbreaker.State) {
		c.Log.Warn("circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	}, redis.IsCacheFailure)
	c.Cache = redis.NewLeaderboardCache(cache, redis.WithBreaker(breaker))
}

func (c *Container) buildBus() {
	local := messaging.DefaultInMemoryEventBusConfig()
	local.Logger = c.Log

	if c.Redis == nil {
		bus := messaging.NewInMemoryEventBus(local)
		c.Bus = bus
		c.onClose(bus.Close)
		return
	}

	bus := messaging.NewRedisEventBus(c.Redis.Client(), messaging.RedisEventBusConfig{
		Local:  local,
		Logger: c.Log,
	})
	c.RedisBus = bus
	c.Bus = bus
	c.onClose(bus.Close)
}

func connectRetrier(log *logger.Logger, operation string) *retry.Retrier {
	return retry.ConnectRetrier().With(retry.WithLogger(log, operation))
}
