package app

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"quiz-client/internal/backend"
	"quiz-client/internal/domain"

	"github.com/sirupsen/logrus"
)

// State is a step of the quiz-taking flow.
type State string

const (
	StateAuthenticating  State = "AUTHENTICATING"
	StateUnauthenticated State = "UNAUTHENTICATED"
	StateQuizSelection   State = "QUIZ_SELECTION"
	StateAttemptStarting State = "ATTEMPT_STARTING"
	StateInProgress      State = "IN_PROGRESS"
	StateSubmitting      State = "SUBMITTING"
	StateComplete        State = "COMPLETE"
)

const loginRequiredMessage = "Login required."

// QuizAPI is the backend surface the attempt flow calls.
type QuizAPI interface {
	ListQuizzes(ctx context.Context) ([]domain.QuizSummary, error)
	Questions(ctx context.Context, quizID int64) ([]domain.Question, error)
	StartAttempt(ctx context.Context, quizID int64) (domain.Attempt, error)
	SubmitAttempt(ctx context.Context, attemptID int64, submission domain.Submission) (domain.AttemptResult, error)
	AttemptReview(ctx context.Context, attemptID int64) (domain.AttemptReview, error)
	Logout(ctx context.Context) error
}

// AttemptMachine drives one client session from login through a quiz attempt
// and its review. It is owned by a single goroutine; only Teardown may be
// called from elsewhere.
type AttemptMachine struct {
	resolver *SessionResolver
	api      QuizAPI
	cookies  backend.SessionStore
	log      logrus.FieldLogger
	now      func() time.Time
	torn     atomic.Bool

	state     State
	identity  *domain.Identity
	quizzes   []domain.QuizSummary
	quizID    int64
	questions []domain.Question
	pointer   int
	answers   *AnswerSet
	attempt   *domain.Attempt
	result    *domain.AttemptResult
	review    *domain.AttemptReview
	errMsg    string
}

// MachineOption configures an AttemptMachine.
type MachineOption func(*AttemptMachine)

// WithSessionStore makes Logout clear store whatever the backend answers.
func WithSessionStore(store backend.SessionStore) MachineOption {
	return func(m *AttemptMachine) {
		m.cookies = store
	}
}

func NewAttemptMachine(resolver *SessionResolver, api QuizAPI, log logrus.FieldLogger, opts ...MachineOption) *AttemptMachine {
	return NewAttemptMachineWithClock(resolver, api, log, time.Now, opts...)
}

// NewAttemptMachineWithClock allows deterministic submission timestamps in tests.
func NewAttemptMachineWithClock(resolver *SessionResolver, api QuizAPI, log logrus.FieldLogger, now func() time.Time, opts ...MachineOption) *AttemptMachine {
	m := &AttemptMachine{
		resolver: resolver,
		api:      api,
		log:      log,
		now:      now,
		state:    StateAuthenticating,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Teardown marks the owner as gone. Results of calls still in flight are dropped.
func (m *AttemptMachine) Teardown() {
	m.torn.Store(true)
}

func (m *AttemptMachine) State() State { return m.state }

// Identity returns the logged in user, or nil.
func (m *AttemptMachine) Identity() *domain.Identity { return m.identity }

// Authenticate resolves the session. On success the machine enters quiz
// selection and loads the catalog; otherwise it rests in UNAUTHENTICATED.
func (m *AttemptMachine) Authenticate(ctx context.Context) error {
	if m.torn.Load() {
		return domain.ErrTornDown
	}
	if m.state != StateAuthenticating && m.state != StateUnauthenticated {
		return m.invariant("authenticate while %s", m.state)
	}
	m.state = StateAuthenticating
	m.errMsg = ""

	identity, err := m.resolver.Resolve(ctx)
	if m.torn.Load() {
		return domain.ErrTornDown
	}
	if err != nil {
		m.state = StateUnauthenticated
		m.errMsg = backend.Message(err)
		m.log.WithError(err).Warn("session check failed")
		return err
	}
	if identity == nil {
		m.state = StateUnauthenticated
		return nil
	}
	m.identity = identity
	m.log.WithField("user_id", identity.UserID).Info("session established")
	return m.enterSelection(ctx)
}

// enterSelection moves to QUIZ_SELECTION and refreshes the catalog.
func (m *AttemptMachine) enterSelection(ctx context.Context) error {
	m.state = StateQuizSelection
	m.quizzes = nil
	quizzes, err := m.api.ListQuizzes(ctx)
	if m.torn.Load() {
		return domain.ErrTornDown
	}
	if err != nil {
		return m.fail(err, StateQuizSelection, "load quizzes")
	}
	m.quizzes = quizzes
	return nil
}

// ReloadQuizzes refetches the catalog from QUIZ_SELECTION, typically after a
// failed load.
func (m *AttemptMachine) ReloadQuizzes(ctx context.Context) error {
	if m.torn.Load() {
		return domain.ErrTornDown
	}
	if m.state != StateQuizSelection {
		return m.invariant("reload quizzes while %s", m.state)
	}
	m.errMsg = ""
	return m.enterSelection(ctx)
}

// SelectQuiz loads the questions of quizID and starts an attempt, strictly in
// that order. Any failure returns to QUIZ_SELECTION with nothing kept.
func (m *AttemptMachine) SelectQuiz(ctx context.Context, quizID int64) error {
	if m.torn.Load() {
		return domain.ErrTornDown
	}
	if m.state != StateQuizSelection {
		return m.invariant("select quiz while %s", m.state)
	}
	log := m.log.WithField("quiz_id", quizID)
	m.errMsg = ""
	m.state = StateAttemptStarting
	m.quizID = quizID

	questions, err := m.api.Questions(ctx, quizID)
	if m.torn.Load() {
		return domain.ErrTornDown
	}
	if err != nil {
		m.discardAttempt()
		return m.fail(err, StateQuizSelection, "load questions")
	}
	if len(questions) == 0 {
		m.discardAttempt()
		m.state = StateQuizSelection
		m.errMsg = "No questions found for this quiz."
		log.Warn("quiz has no questions")
		return fmt.Errorf("quiz %d: %w", quizID, domain.ErrNoQuestions)
	}

	attempt, err := m.api.StartAttempt(ctx, quizID)
	if m.torn.Load() {
		return domain.ErrTornDown
	}
	if err != nil {
		m.discardAttempt()
		return m.fail(err, StateQuizSelection, "start attempt")
	}

	m.questions = questions
	m.answers = newAnswerSet(questions)
	m.pointer = 0
	m.attempt = &attempt
	m.state = StateInProgress
	log.WithField("attempt_id", attempt.ID).Info("attempt started")
	return nil
}

// current returns the question under the pointer while answering.
func (m *AttemptMachine) current() *domain.Question {
	if m.state != StateInProgress && m.state != StateSubmitting {
		return nil
	}
	if m.pointer < 0 || m.pointer >= len(m.questions) {
		return nil
	}
	return &m.questions[m.pointer]
}

// answerable reports whether the answer set may still change.
func (m *AttemptMachine) answerable() bool {
	return m.state == StateInProgress && m.result == nil && m.answers != nil
}

// ToggleOption selects optionID on the current question: it replaces the
// selection of a SINGLE question and flips membership on a MULTI question.
func (m *AttemptMachine) ToggleOption(optionID int64) {
	q := m.current()
	if q == nil || !m.answerable() || !q.HasOption(optionID) {
		return
	}
	if q.Type == domain.QuestionSingle {
		m.answers.choose(q.ID, optionID)
		return
	}
	m.answers.toggle(q.ID, optionID)
}

// ClearCurrent empties the selection of the current MULTI question.
func (m *AttemptMachine) ClearCurrent() {
	q := m.current()
	if q == nil || !m.answerable() || q.Type != domain.QuestionMulti {
		return
	}
	m.answers.clear(q.ID)
}

// CanAdvance gates Next on the required flag of the current question.
func (m *AttemptMachine) CanAdvance() bool {
	q := m.current()
	if q == nil || m.state != StateInProgress {
		return false
	}
	selected := len(m.answers.Selected(q.ID))
	if q.Required && selected == 0 {
		return false
	}
	if q.Required && q.Type == domain.QuestionSingle && selected != 1 {
		return false
	}
	return true
}

// Next moves to the following question, or submits from the last one.
func (m *AttemptMachine) Next(ctx context.Context) error {
	if m.torn.Load() {
		return domain.ErrTornDown
	}
	if m.state != StateInProgress || m.current() == nil {
		return m.invariant("advance while %s", m.state)
	}
	m.errMsg = ""
	if !m.CanAdvance() {
		return m.invariant("advance past unanswered required question %d", m.current().ID)
	}
	if m.pointer < len(m.questions)-1 {
		m.pointer++
		return nil
	}
	return m.submit(ctx)
}

// submit sends the answer set, then fetches the review. A result already
// received is not resubmitted when only the review fetch has to be retried.
func (m *AttemptMachine) submit(ctx context.Context) error {
	if m.attempt == nil {
		m.errMsg = "Attempt not started. Please reload."
		return fmt.Errorf("%w: attempt not started, reload", domain.ErrLocalInvariant)
	}
	log := m.log.WithFields(logrus.Fields{"quiz_id": m.quizID, "attempt_id": m.attempt.ID})
	m.state = StateSubmitting

	if m.result == nil {
		submission := domain.Submission{
			SubmittedAt: m.now().UTC(),
			Answers:     m.answers.Export(),
		}
		result, err := m.api.SubmitAttempt(ctx, m.attempt.ID, submission)
		if m.torn.Load() {
			return domain.ErrTornDown
		}
		if err != nil {
			return m.fail(err, StateInProgress, "submit attempt")
		}
		m.result = &result
		log.WithField("score", result.Score.String()).Info("attempt submitted")
	}

	review, err := m.api.AttemptReview(ctx, m.attempt.ID)
	if m.torn.Load() {
		return domain.ErrTornDown
	}
	if err != nil {
		return m.fail(err, StateInProgress, "load review")
	}
	m.review = &review
	m.state = StateComplete
	return nil
}

// BackToSelection drops the finished attempt and reloads the catalog.
func (m *AttemptMachine) BackToSelection(ctx context.Context) error {
	if m.torn.Load() {
		return domain.ErrTornDown
	}
	if m.state != StateComplete {
		return m.invariant("back to selection while %s", m.state)
	}
	m.discardAttempt()
	m.errMsg = ""
	return m.enterSelection(ctx)
}

// Logout ends the backend session. Local state and the stored cookie are
// discarded whatever the backend answers.
func (m *AttemptMachine) Logout(ctx context.Context) error {
	err := m.api.Logout(ctx)
	if m.cookies != nil {
		if clearErr := m.cookies.Clear(ctx); clearErr != nil {
			m.log.WithError(clearErr).Warn("clear stored session cookie")
		}
	}
	if m.torn.Load() {
		return domain.ErrTornDown
	}
	m.resetToLogin("")
	if err != nil && !backend.IsAuthRequired(err) {
		m.log.WithError(err).Warn("logout call failed, local session cleared anyway")
		return err
	}
	return nil
}

// fail routes a backend error: auth loss resets everything, anything else
// leaves the machine in stable with a message.
func (m *AttemptMachine) fail(err error, stable State, op string) error {
	log := m.log.WithError(err).WithFields(logrus.Fields{
		"op":    op,
		"class": backend.ClassOf(err).String(),
	})
	if backend.IsAuthRequired(err) {
		log.Warn("session lost")
		m.resetToLogin(loginRequiredMessage)
		return err
	}
	log.Error("backend call failed")
	m.state = stable
	m.errMsg = backend.Message(err)
	return err
}

// invariant reports a gating bug; it never changes state.
func (m *AttemptMachine) invariant(format string, args ...any) error {
	err := fmt.Errorf("%w: "+format, append([]any{domain.ErrLocalInvariant}, args...)...)
	m.errMsg = err.Error()
	m.log.WithError(err).Error("blocked local action")
	return err
}

func (m *AttemptMachine) discardAttempt() {
	m.quizID = 0
	m.questions = nil
	m.pointer = 0
	m.answers = nil
	m.attempt = nil
	m.result = nil
	m.review = nil
}

func (m *AttemptMachine) resetToLogin(msg string) {
	m.discardAttempt()
	m.identity = nil
	m.quizzes = nil
	m.state = StateUnauthenticated
	m.errMsg = msg
}

// Position is the derived "question N of total" indicator.
type Position struct {
	Number  int `json:"number"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// QuestionView is the current question with its selection.
type QuestionView struct {
	domain.Question
	Selected  []int64 `json:"selected"`
	Clearable bool    `json:"clearable"`
}

// Snapshot is a read-only copy of everything a view renders.
type Snapshot struct {
	State      State                    `json:"state"`
	User       string                   `json:"user,omitempty"`
	Quizzes    []domain.QuizSummary     `json:"quizzes,omitempty"`
	QuizID     int64                    `json:"quizId,omitempty"`
	Question   *QuestionView            `json:"question,omitempty"`
	Position   *Position                `json:"position,omitempty"`
	CanAdvance bool                     `json:"canAdvance"`
	IsLast     bool                     `json:"isLast"`
	Error      string                   `json:"error,omitempty"`
	Result     *domain.AttemptResult    `json:"result,omitempty"`
	Review     *domain.AttemptReview    `json:"review,omitempty"`
	Outcomes   map[int64]domain.Outcome `json:"outcomes,omitempty"`
	// OptionOutcomes holds the badge of every scored option, by question id.
	OptionOutcomes map[int64]map[int64]domain.Outcome `json:"optionOutcomes,omitempty"`
}

func (m *AttemptMachine) Snapshot() Snapshot {
	snap := Snapshot{
		State:      m.state,
		QuizID:     m.quizID,
		CanAdvance: m.CanAdvance(),
		Error:      m.errMsg,
		Result:     m.result,
		Review:     m.review,
	}
	if m.identity != nil {
		snap.User = m.identity.DisplayName()
	}
	if len(m.quizzes) > 0 {
		snap.Quizzes = append([]domain.QuizSummary(nil), m.quizzes...)
	}
	if q := m.current(); q != nil {
		snap.Question = &QuestionView{
			Question:  *q,
			Selected:  m.answers.Selected(q.ID),
			Clearable: q.Type == domain.QuestionMulti,
		}
		total := len(m.questions)
		snap.Position = &Position{
			Number:  m.pointer + 1,
			Total:   total,
			Percent: int(math.Round(float64(m.pointer+1) * 100 / float64(total))),
		}
		snap.IsLast = m.pointer == total-1
	}
	if m.review != nil {
		snap.Outcomes = make(map[int64]domain.Outcome, len(m.review.Items))
		snap.OptionOutcomes = make(map[int64]map[int64]domain.Outcome, len(m.review.Items))
		for _, item := range m.review.Items {
			snap.Outcomes[item.QuestionID] = item.Outcome()
			badges := make(map[int64]domain.Outcome, len(item.Options))
			for _, opt := range item.Options {
				if outcome := item.OptionOutcome(opt); outcome != "" {
					badges[opt.ID] = outcome
				}
			}
			if len(badges) > 0 {
				snap.OptionOutcomes[item.QuestionID] = badges
			}
		}
	}
	return snap
}
