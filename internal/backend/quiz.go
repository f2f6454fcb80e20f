package backend

import (
	"context"
	"fmt"
	"net/http"

	"quiz-client/internal/domain"
)

// meResponse is decoded strictly: a missing numeric userId is a decode failure.
type meResponse struct {
	UserID     *int64                  `json:"userId"`
	FullName   *string                 `json:"fullName"`
	Email      *string                 `json:"email"`
	Identities []domain.LinkedIdentity `json:"identities"`
}

// Me fetches the identity behind the current session.
func (c *Client) Me(ctx context.Context) (domain.Identity, error) {
	var resp meResponse
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &resp); err != nil {
		return domain.Identity{}, err
	}
	if resp.UserID == nil {
		return domain.Identity{}, fmt.Errorf("%w: /api/me without userId", ErrDecode)
	}
	identity := domain.Identity{
		UserID:     *resp.UserID,
		Identities: resp.Identities,
	}
	if resp.FullName != nil {
		identity.FullName = *resp.FullName
	}
	if resp.Email != nil {
		identity.Email = *resp.Email
	}
	return identity, nil
}

// ListQuizzes returns the active quiz catalog.
func (c *Client) ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	var quizzes []domain.QuizSummary
	if err := c.do(ctx, http.MethodGet, "/api/quizzes", nil, &quizzes); err != nil {
		return nil, err
	}
	if quizzes == nil {
		return nil, fmt.Errorf("%w: /api/quizzes is not a list", ErrDecode)
	}
	return quizzes, nil
}

// Questions returns the ordered questions of a quiz. Options carry no score.
func (c *Client) Questions(ctx context.Context, quizID int64) ([]domain.Question, error) {
	var questions []domain.Question
	path := fmt.Sprintf("/api/quizzes/%d/questions", quizID)
	if err := c.do(ctx, http.MethodGet, path, nil, &questions); err != nil {
		return nil, err
	}
	for i := range questions {
		for j := range questions[i].Options {
			questions[i].Options[j].Score = nil
		}
	}
	return questions, nil
}

// StartAttempt opens a new attempt for quizID.
func (c *Client) StartAttempt(ctx context.Context, quizID int64) (domain.Attempt, error) {
	var attempt domain.Attempt
	path := fmt.Sprintf("/api/quizzes/%d/attempts/start", quizID)
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &attempt); err != nil {
		return domain.Attempt{}, err
	}
	if attempt.ID == 0 {
		return domain.Attempt{}, fmt.Errorf("%w: attempt without id", ErrDecode)
	}
	return attempt, nil
}

// SubmitAttempt closes an attempt with the collected answers.
func (c *Client) SubmitAttempt(ctx context.Context, attemptID int64, submission domain.Submission) (domain.AttemptResult, error) {
	var result domain.AttemptResult
	path := fmt.Sprintf("/api/attempts/%d/submit", attemptID)
	if err := c.do(ctx, http.MethodPost, path, submission, &result); err != nil {
		return domain.AttemptResult{}, err
	}
	return result, nil
}

// AttemptReview fetches the per-question breakdown of a submitted attempt.
func (c *Client) AttemptReview(ctx context.Context, attemptID int64) (domain.AttemptReview, error) {
	var review domain.AttemptReview
	path := fmt.Sprintf("/api/attempts/%d/review", attemptID)
	if err := c.do(ctx, http.MethodGet, path, nil, &review); err != nil {
		return domain.AttemptReview{}, err
	}
	return review, nil
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}
