package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"tutorial-tracker/internal/app"
	"tutorial-tracker/internal/catalog"
	"tutorial-tracker/internal/config"
	"tutorial-tracker/internal/domain"
	"tutorial-tracker/internal/infra/memory"
	pgstore "tutorial-tracker/internal/infra/postgres"
	redisstore "tutorial-tracker/internal/infra/redis"
	"tutorial-tracker/internal/infra/sqlite"
)

// deps holds everything a command needs, opened from config.
type deps struct {
	catalog *domain.Catalog
	store   *app.ProgressStore
	service *app.TutorService
	closers []func()
}

func openDeps(ctx context.Context, cfg config.Config) (*deps, error) {
	d := &deps{}
	ok := false
	defer func() {
		if !ok {
			d.Close()
		}
	}()

	cat, err := catalog.LoadDir(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	d.catalog = cat

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = redisClient.Close() })
	}

	var pool *pgxpool.Pool
	if cfg.Storage.Driver == config.DriverPostgres || cfg.Quiz.Source == config.QuizSourcePostgres {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		d.closers = append(d.closers, pool.Close)
	}

	var kv app.KVStore
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		kv = memory.NewKVStore()
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() { _ = store.Close() })
		kv = store
	case config.DriverRedis:
		kv = redisstore.NewKVStore(redisClient, cfg.Redis.Namespace)
	case config.DriverPostgres:
		kv = pgstore.NewKVStore(pool)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(cat.Quizzes)
	if cfg.Quiz.Source == config.QuizSourcePostgres {
		loader = pgstore.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	d.store = app.NewProgressStore(kv, app.KeysWithPrefix(cfg.Storage.KeyPrefix))
	d.service = app.NewTutorService(ctx, cat, quizRepo, d.store)

	slog.Debug("dependencies ready",
		"storage", cfg.Storage.Driver,
		"quiz_source", cfg.Quiz.Source,
		"sections", len(cat.Sections),
		"steps", len(d.service.Steps()),
	)
	ok = true
	return d, nil
}

// Close releases connections in reverse order of opening.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
