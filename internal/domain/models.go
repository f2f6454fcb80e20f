package domain

import "time"

// QuestionType controls how options are selected while answering.
type QuestionType string

const (
	QuestionSingle QuestionType = "SINGLE"
	QuestionMulti  QuestionType = "MULTI"
)

// Valid reports whether t is one of the known question types.
func (t QuestionType) Valid() bool {
	return t == QuestionSingle || t == QuestionMulti
}

// ScoringMode tells how the achieved score of a question is interpreted.
type ScoringMode string

const (
	ScoringBinary   ScoringMode = "BINARY"
	ScoringWeighted ScoringMode = "WEIGHTED"
)

// LinkedIdentity is an external provider account linked to the user.
type LinkedIdentity struct {
	Provider        string     `json:"provider"`
	ProviderSubject string     `json:"providerSubject"`
	DisplayName     *string    `json:"displayName"`
	Email           *string    `json:"email"`
	EmailVerified   *bool      `json:"emailVerified"`
	PictureURL      *string    `json:"pictureUrl"`
	LastLoginAt     *time.Time `json:"lastLoginAt"`
}

// Identity is the authenticated caller as reported by the backend.
type Identity struct {
	UserID     int64            `json:"userId"`
	FullName   string           `json:"fullName,omitempty"`
	Email      string           `json:"email,omitempty"`
	Identities []LinkedIdentity `json:"identities"`
}

// DisplayName prefers the full name, then the email.
func (i Identity) DisplayName() string {
	if i.FullName != "" {
		return i.FullName
	}
	if i.Email != "" {
		return i.Email
	}
	return "User"
}

// QuizSummary is one entry of the quiz catalog.
type QuizSummary struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Option is a selectable answer. Score is only populated in reviews.
type Option struct {
	ID     int64   `json:"id"`
	Number int     `json:"optionNo"`
	Text   string  `json:"text"`
	Score  *Points `json:"score,omitempty"`
}

// Question is loaded once per attempt and never mutated afterwards.
type Question struct {
	ID          int64        `json:"id"`
	Number      int          `json:"questionNo"`
	Type        QuestionType `json:"type"`
	Text        string       `json:"text"`
	ScoringMode ScoringMode  `json:"scoringMode"`
	Points      Points       `json:"points"`
	Required    bool         `json:"required"`
	Options     []Option     `json:"options"`
}

// HasOption reports whether optionID belongs to the question.
func (q Question) HasOption(optionID int64) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return true
		}
	}
	return false
}

// Attempt is the backend handle of a started quiz run.
type Attempt struct {
	ID        int64     `json:"attemptId"`
	QuizID    int64     `json:"quizId"`
	StartedAt time.Time `json:"startedAt"`
}

// Submission is the body sent when closing an attempt.
type Submission struct {
	SubmittedAt time.Time         `json:"submittedAt"`
	Answers     map[int64][]int64 `json:"answers"`
}

// AttemptResult is the summary produced by a submission.
type AttemptResult struct {
	AttemptID   int64     `json:"attemptId"`
	QuizID      int64     `json:"quizId"`
	Status      string    `json:"status"`
	Score       Points    `json:"score"`
	TotalPoints Points    `json:"totalPoints"`
	StartedAt   time.Time `json:"startedAt"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// AttemptReview is the per-question breakdown of a submitted attempt.
type AttemptReview struct {
	AttemptID   int64        `json:"attemptId"`
	QuizID      int64        `json:"quizId"`
	QuizTitle   string       `json:"quizTitle"`
	Status      string       `json:"status"`
	Score       Points       `json:"score"`
	TotalPoints Points       `json:"totalPoints"`
	StartedAt   time.Time    `json:"startedAt"`
	SubmittedAt time.Time    `json:"submittedAt"`
	Items       []ReviewItem `json:"items"`
}

// ReviewItem is the review of a single question.
type ReviewItem struct {
	QuestionID        int64        `json:"questionId"`
	QuestionNumber    int          `json:"questionNo"`
	Type              QuestionType `json:"type"`
	Text              string       `json:"text"`
	AchievedScore     Points       `json:"achievedScore"`
	MaxScore          Points       `json:"maxScore"`
	Required          bool         `json:"required"`
	Options           []Option     `json:"options"`
	SelectedOptionIDs []int64      `json:"selectedOptionIds"`
	CorrectOptionIDs  []int64      `json:"correctOptionIds"`
	IsCorrect         bool         `json:"isCorrect"`
}

// Outcome labels how well a question was answered.
type Outcome string

const (
	OutcomeBest      Outcome = "best"
	OutcomePartial   Outcome = "partial"
	OutcomeIncorrect Outcome = "incorrect"
	// OutcomeNone marks an option that scores nothing.
	OutcomeNone Outcome = "none"
)

// Outcome compares the achieved score numerically, so "0.00" counts as zero.
func (r ReviewItem) Outcome() Outcome {
	if r.AchievedScore.Equal(r.MaxScore) {
		return OutcomeBest
	}
	if r.AchievedScore.IsZero() {
		return OutcomeIncorrect
	}
	return OutcomePartial
}

// OptionOutcome grades a single option's score against the question maximum.
// Options without a score yield an empty outcome.
func (r ReviewItem) OptionOutcome(opt Option) Outcome {
	if opt.Score == nil {
		return ""
	}
	switch {
	case opt.Score.Cmp(r.MaxScore) >= 0:
		return OutcomeBest
	case opt.Score.Decimal().IsPositive():
		return OutcomePartial
	default:
		return OutcomeNone
	}
}
