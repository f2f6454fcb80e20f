package backend

import (
	"context"
	"fmt"
	"net/http"

	"quiz-client/internal/domain"
)

// CreateQuiz persists a new quiz.
func (c *Client) CreateQuiz(ctx context.Context, quiz domain.NewQuiz) (domain.CreatedQuiz, error) {
	var created domain.CreatedQuiz
	if err := c.do(ctx, http.MethodPost, "/api/admin/quizzes", quiz, &created); err != nil {
		return domain.CreatedQuiz{}, err
	}
	if created.ID == 0 {
		return domain.CreatedQuiz{}, fmt.Errorf("%w: created quiz without id", ErrDecode)
	}
	return created, nil
}

// AddQuestion persists a question under quizID.
func (c *Client) AddQuestion(ctx context.Context, quizID int64, question domain.NewQuestion) (domain.CreatedQuestion, error) {
	var created domain.CreatedQuestion
	path := fmt.Sprintf("/api/admin/quizzes/%d/questions", quizID)
	if err := c.do(ctx, http.MethodPost, path, question, &created); err != nil {
		return domain.CreatedQuestion{}, err
	}
	if created.ID == 0 {
		return domain.CreatedQuestion{}, fmt.Errorf("%w: created question without id", ErrDecode)
	}
	return created, nil
}

// AddOption persists an option under questionID.
func (c *Client) AddOption(ctx context.Context, questionID int64, option domain.NewOption) (domain.CreatedOption, error) {
	var created domain.CreatedOption
	path := fmt.Sprintf("/api/admin/questions/%d/options", questionID)
	if err := c.do(ctx, http.MethodPost, path, option, &created); err != nil {
		return domain.CreatedOption{}, err
	}
	if created.ID == 0 {
		return domain.CreatedOption{}, fmt.Errorf("%w: created option without id", ErrDecode)
	}
	return created, nil
}
