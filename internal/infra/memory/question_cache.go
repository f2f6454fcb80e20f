package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"quiz-client/internal/domain"

	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches the questions of a quiz from the backend.
type QuestionLoader interface {
	Questions(ctx context.Context, quizID int64) ([]domain.Question, error)
}

// QuestionCache keeps question lists for a TTL to avoid refetching them on
// every attempt. Empty lists and errors are never cached.
type QuestionCache struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[int64]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(loader QuestionLoader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedQuestions),
	}
}

func (c *QuestionCache) Questions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	if questions, ok := c.lookup(quizID); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(quizKey(quizID), func() (interface{}, error) {
		if questions, ok := c.lookup(quizID); ok {
			return questions, nil
		}

		questions, err := c.loader.Questions(ctx, quizID)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 || c.ttl <= 0 {
			return questions, nil
		}

		expiresAt := c.clock().Add(c.ttlWithJitter())
		c.mu.Lock()
		c.cache[quizID] = cachedQuestions{questions: questions, expiresAt: expiresAt}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneQuestions(result.([]domain.Question)), nil
}

func (c *QuestionCache) lookup(quizID int64) ([]domain.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[quizID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return cloneQuestions(entry.questions), true
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// cloneQuestions copies the option slices so attempts never share them.
func cloneQuestions(in []domain.Question) []domain.Question {
	if in == nil {
		return nil
	}
	out := make([]domain.Question, len(in))
	for i, q := range in {
		q.Options = append([]domain.Option(nil), q.Options...)
		out[i] = q
	}
	return out
}

func quizKey(quizID int64) string {
	return strconv.FormatInt(quizID, 10)
}
