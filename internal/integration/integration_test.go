package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"quiz-client/internal/app"
	"quiz-client/internal/domain"
	"quiz-client/internal/infra/postgres"
	pgmigrations "quiz-client/internal/infra/postgres/migrations"
	infraredis "quiz-client/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	logtest "github.com/sirupsen/logrus/hooks/test"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestSubmissionLogEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	records := postgres.NewSubmissionLog(pool)
	base := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	complete := app.SubmissionRecord{
		Title: "Go basics",
		Report: app.SubmitReport{
			QuizID:    10,
			Questions: []app.CreatedID{{ClientID: "q_1", ServerID: 11}},
			Options:   []app.CreatedID{{ClientID: "o_1", ServerID: 12}},
			Complete:  true,
		},
		SubmittedAt: base,
	}
	partial := app.SubmissionRecord{
		Title: "Broken quiz",
		Report: app.SubmitReport{
			QuizID:    20,
			Questions: []app.CreatedID{},
			Options:   []app.CreatedID{},
			Failure:   "API error (400): Validation failed",
		},
		SubmittedAt: base.Add(time.Minute),
	}
	if err := records.Record(ctx, complete); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := records.Record(ctx, partial); err != nil {
		t.Fatalf("record: %v", err)
	}

	recent, err := records.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].Title != "Broken quiz" || recent[0].Report.Complete || recent[0].Report.Failure == "" {
		t.Fatalf("expected partial submission first, got %+v", recent[0])
	}
	if recent[1].Report.QuizID != 10 || len(recent[1].Report.Options) != 1 || !recent[1].SubmittedAt.Equal(base) {
		t.Fatalf("unexpected complete record %+v", recent[1])
	}

	limited, err := records.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}

	none, err := records.Recent(ctx, -1)
	if err != nil || len(none) != 0 {
		t.Fatalf("expected nothing for a negative limit, got %v %v", none, err)
	}
}

type countingLoader struct {
	calls atomic.Int32
}

func (l *countingLoader) Questions(_ context.Context, quizID int64) ([]domain.Question, error) {
	l.calls.Add(1)
	return []domain.Question{
		{ID: quizID * 10, Number: 1, Type: domain.QuestionSingle, Text: "Q", Points: domain.MustPoints("1.00"),
			Options: []domain.Option{{ID: 1, Number: 1, Text: "A"}}},
	}, nil
}

func TestRedisStoresEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()
	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	cookies := infraredis.NewCookieStore(redisClient, "it", time.Hour)
	if err := cookies.Save(ctx, "session-1"); err != nil {
		t.Fatalf("save cookie: %v", err)
	}
	other := infraredis.NewCookieStore(redisClient, "it", time.Hour)
	if value, err := other.Load(ctx); err != nil || value != "session-1" {
		t.Fatalf("expected cookie shared across stores, got %q %v", value, err)
	}
	if err := cookies.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if value, _ := other.Load(ctx); value != "" {
		t.Fatalf("expected cookie cleared, got %q", value)
	}

	log, _ := logtest.NewNullLogger()
	loader := &countingLoader{}
	cache := infraredis.NewQuestionCache(redisClient, loader, time.Minute, log)
	for i := 0; i < 3; i++ {
		questions, err := cache.Questions(ctx, 4)
		if err != nil {
			t.Fatalf("questions: %v", err)
		}
		if len(questions) != 1 || questions[0].Points.String() != "1.00" {
			t.Fatalf("unexpected questions %+v", questions)
		}
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected one backend load, got %d", loader.calls.Load())
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
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
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
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

// migrateDB applies the submission log schema. Postgres may accept TCP before
// it accepts queries, so the first step is retried briefly.
func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	var err error
	for i := 0; i < 20; i++ {
		if err = migrator.Init(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
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
