package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// CookieStore keeps the backend session cookie in Redis so separate CLI runs
// share one login. The key expires after ttl; zero keeps it until logout.
type CookieStore struct {
	client  *redis.Client
	profile string
	ttl     time.Duration
}

func NewCookieStore(client *redis.Client, profile string, ttl time.Duration) *CookieStore {
	if profile == "" {
		profile = "default"
	}
	return &CookieStore{client: client, profile: profile, ttl: ttl}
}

func (s *CookieStore) Load(ctx context.Context) (string, error) {
	value, err := s.client.Get(ctx, s.key()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return value, err
}

func (s *CookieStore) Save(ctx context.Context, value string) error {
	return s.client.Set(ctx, s.key(), value, s.ttl).Err()
}

func (s *CookieStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key()).Err()
}

func (s *CookieStore) key() string {
	return "quiz-client:session:" + s.profile
}
