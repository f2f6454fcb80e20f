package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"quiz-client/internal/app"
	"quiz-client/internal/backend"
	"quiz-client/internal/config"
	"quiz-client/internal/domain"
	"quiz-client/internal/infra/memory"
	"quiz-client/internal/infra/postgres"
	redisinfra "quiz-client/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	errNoPersistentStore = errors.New("no persistent cookie store configured")
	errNoSubmissionStore = errors.New("no submission store configured, set QUIZ_POSTGRES_URL")
)

// runtime holds the shared wiring of one CLI invocation.
type runtime struct {
	cfg     config.Config
	log     *logrus.Logger
	redis   *redis.Client
	pool    *pgxpool.Pool
	cookies backend.SessionStore
	// persistent is false when the cookie only lives for this process.
	persistent bool
}

func newRuntime(flags *rootFlags, logOut io.Writer) (*runtime, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.baseURL != "" {
		cfg.Backend.BaseURL = flags.baseURL
	}

	rt := &runtime{cfg: cfg, log: config.NewLogger(cfg, logOut)}
	if cfg.Redis.Addr != "" {
		rt.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	// An explicit cookie wins over whatever a previous login stored.
	switch {
	case cfg.Backend.SessionCookie != "":
		rt.cookies = memory.NewCookieStore(cfg.Backend.SessionCookie)
	case rt.redis != nil:
		ttl := config.Duration(cfg.Redis.TTL, 24*time.Hour)
		rt.cookies = redisinfra.NewCookieStore(rt.redis, cfg.Backend.Profile, ttl)
		rt.persistent = true
	default:
		rt.cookies = memory.NewCookieStore("")
	}
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.pool != nil {
		rt.pool.Close()
	}
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
}

// client builds a backend client bound to store.
func (rt *runtime) client(store backend.SessionStore) (*backend.Client, error) {
	timeout := config.Duration(rt.cfg.Backend.Timeout, 15*time.Second)
	return backend.NewClient(rt.cfg.Backend.BaseURL,
		backend.WithHTTPClient(&http.Client{Timeout: timeout}),
		backend.WithSessionStore(store),
		backend.WithCookieName(rt.cfg.Backend.CookieName),
		backend.WithLogger(rt.log.WithField("component", "backend")),
	)
}

// questionSource wraps the backend with the catalog cache.
func (rt *runtime) questionSource(client *backend.Client) questionSource {
	ttl := config.Duration(rt.cfg.Catalog.TTL, 5*time.Minute)
	if rt.redis != nil {
		return redisinfra.NewQuestionCache(rt.redis, client, ttl, rt.log.WithField("component", "catalog"))
	}
	return memory.NewQuestionCache(client, ttl)
}

// submissionLog returns the Postgres log when configured and the in-process one otherwise.
func (rt *runtime) submissionLog(ctx context.Context) (app.SubmissionLog, error) {
	if rt.cfg.Postgres.URL == "" {
		return memory.NewSubmissionLog(), nil
	}
	if rt.pool == nil {
		pool, err := pgxpool.Connect(ctx, rt.cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.pool = pool
	}
	return postgres.NewSubmissionLog(rt.pool), nil
}

type questionSource interface {
	Questions(ctx context.Context, quizID int64) ([]domain.Question, error)
}

// cachedQuizAPI serves question lists from the catalog cache and everything
// else from the backend.
type cachedQuizAPI struct {
	*backend.Client
	questions questionSource
}

func (a cachedQuizAPI) Questions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	return a.questions.Questions(ctx, quizID)
}
