package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-client/internal/domain"
)

func TestQuestionCacheCaches(t *testing.T) {
	loader := &countingLoader{questions: map[int64][]domain.Question{7: sampleQuestions()}}
	cache := NewQuestionCache(loader, time.Minute)

	if _, err := cache.Questions(context.Background(), 7); err != nil {
		t.Fatalf("questions: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	questions, err := cache.Questions(context.Background(), 7)
	if err != nil {
		t.Fatalf("questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if len(questions) != 1 || len(questions[0].Options) != 2 {
		t.Fatalf("unexpected cached questions: %+v", questions)
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	loader := &countingLoader{questions: map[int64][]domain.Question{7: sampleQuestions()}}
	cache := NewQuestionCache(loader, time.Minute)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	_, _ = cache.Questions(context.Background(), 7)
	now = now.Add(2 * time.Minute)
	_, _ = cache.Questions(context.Background(), 7)
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestQuestionCacheSkipsEmptyAndErrors(t *testing.T) {
	loader := &countingLoader{questions: map[int64][]domain.Question{8: {}}}
	cache := NewQuestionCache(loader, time.Minute)

	for i := 0; i < 2; i++ {
		questions, err := cache.Questions(context.Background(), 8)
		if err != nil {
			t.Fatalf("questions: %v", err)
		}
		if len(questions) != 0 {
			t.Fatalf("expected no questions, got %d", len(questions))
		}
	}
	if loader.calls != 2 {
		t.Fatalf("empty list must not be cached, loader calls %d", loader.calls)
	}

	if _, err := cache.Questions(context.Background(), 9); !errors.Is(err, errMissing) {
		t.Fatalf("expected loader error, got %v", err)
	}
}

func TestQuestionCacheReturnsCopies(t *testing.T) {
	loader := &countingLoader{questions: map[int64][]domain.Question{7: sampleQuestions()}}
	cache := NewQuestionCache(loader, time.Minute)

	first, _ := cache.Questions(context.Background(), 7)
	first[0].Options[0].Text = "mutated"

	second, _ := cache.Questions(context.Background(), 7)
	if second[0].Options[0].Text != "3" {
		t.Fatalf("cached options were mutated: %+v", second[0].Options)
	}
}

var errMissing = errors.New("missing quiz")

type countingLoader struct {
	questions map[int64][]domain.Question
	calls     int
}

func (l *countingLoader) Questions(_ context.Context, quizID int64) ([]domain.Question, error) {
	l.calls++
	questions, ok := l.questions[quizID]
	if !ok {
		return nil, errMissing
	}
	return cloneQuestions(questions), nil
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:          11,
			Number:      1,
			Type:        domain.QuestionSingle,
			Text:        "What is 2 + 2?",
			ScoringMode: domain.ScoringBinary,
			Points:      domain.MustPoints("1.00"),
			Required:    true,
			Options: []domain.Option{
				{ID: 101, Number: 1, Text: "3"},
				{ID: 102, Number: 2, Text: "4"},
			},
		},
	}
}
