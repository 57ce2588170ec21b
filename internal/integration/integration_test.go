package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"tutorial-tracker/internal/app"
	"tutorial-tracker/internal/domain"
	pgstore "tutorial-tracker/internal/infra/postgres"
	pgmigrations "tutorial-tracker/internal/infra/postgres/migrations"
	infraredis "tutorial-tracker/internal/infra/redis"
)

func TestQuizProgressEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgstore.NewQuizLoader(pool)
	if err := loader.SaveQuiz(ctx, sampleQuiz()); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	quizRepo := infraredis.NewQuizRepository(redisClient, loader, 5*time.Minute)
	store := app.NewProgressStore(pgstore.NewKVStore(pool), app.KeysWithPrefix(""))
	catalog := sampleCatalog()

	service := app.NewTutorService(ctx, catalog, quizRepo, store)
	if _, err := service.Select(ctx, "basics", "vars"); err != nil {
		t.Fatalf("select: %v", err)
	}
	result, err := service.SubmitAnswers(ctx, "basics", app.Answers{"q1": {"o2"}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Passed || result.Score.Percent != 100 {
		t.Fatalf("expected a passing attempt, got %+v", result.Score)
	}
	if _, err := service.SubmitAnswers(ctx, "basics", app.Answers{"q1": {"o1"}}); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if exists, err := redisClient.Exists(ctx, "quiz:basics").Result(); err != nil || exists != 1 {
		t.Fatalf("expected quiz cached in redis, exists=%d err=%v", exists, err)
	}

	restarted := app.NewTutorService(ctx, catalog, quizRepo, store)
	state := restarted.State()
	if len(state.Completed) != 1 || state.Completed[0] != "basics-vars" {
		t.Fatalf("completion not persisted: %v", state.Completed)
	}
	rec := state.QuizProgress["basics"]
	if !rec.Passed || rec.BestPercent != 100 || rec.Attempts != 2 {
		t.Fatalf("quiz record not persisted: %+v", rec)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "tutor", "POSTGRES_PASSWORD": "tutorpass", "POSTGRES_DB": "tutordb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://tutor:tutorpass@%s:%s/tutordb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func sampleCatalog() *domain.Catalog {
	return &domain.Catalog{
		Title: "Rust Tutorial",
		Sections: []domain.Section{{
			ID:      "basics",
			Title:   "Basics",
			Lessons: []domain.Lesson{{ID: "vars", Title: "Variables"}},
		}},
	}
}

func sampleQuiz() domain.SectionQuiz {
	return domain.SectionQuiz{
		SectionID: "basics",
		Title:     "Basics quiz",
		Questions: []domain.QuizQuestion{
			{
				ID:     "q1",
				Prompt: "Which keyword makes a binding mutable?",
				Kind:   domain.KindSingle,
				Options: []domain.Option{
					{ID: "o1", Text: "var"},
					{ID: "o2", Text: "mut"},
					{ID: "o3", Text: "let"},
				},
				Answer: []string{"o2"},
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
