package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quiz-client/internal/backend"
	"quiz-client/internal/domain"

	"github.com/sirupsen/logrus"
)

// AdminAPI is the backend surface used to persist a draft.
type AdminAPI interface {
	CreateQuiz(ctx context.Context, quiz domain.NewQuiz) (domain.CreatedQuiz, error)
	AddQuestion(ctx context.Context, quizID int64, question domain.NewQuestion) (domain.CreatedQuestion, error)
	AddOption(ctx context.Context, questionID int64, option domain.NewOption) (domain.CreatedOption, error)
}

// SubmissionLog keeps a record of every draft submission, finished or not.
type SubmissionLog interface {
	Record(ctx context.Context, record SubmissionRecord) error
	// Recent returns up to limit records, newest first; nothing for limit <= 0.
	Recent(ctx context.Context, limit int) ([]SubmissionRecord, error)
}

// CreatedID pairs a draft node with the server id it received.
type CreatedID struct {
	ClientID string `json:"clientId"`
	ServerID int64  `json:"serverId"`
}

// SubmitReport lists what exists on the backend after a submission. When
// Complete is false the listed entities were created before the failure and
// were not rolled back.
type SubmitReport struct {
	QuizID    int64       `json:"quizId,omitempty"`
	Questions []CreatedID `json:"questions"`
	Options   []CreatedID `json:"options"`
	Complete  bool        `json:"complete"`
	Failure   string      `json:"failure,omitempty"`
}

// SubmissionRecord is one entry of the SubmissionLog.
type SubmissionRecord struct {
	ID          int64        `json:"id,omitempty"`
	Title       string       `json:"title"`
	Report      SubmitReport `json:"report"`
	SubmittedAt time.Time    `json:"submittedAt"`
}

// DraftError carries the violations of a draft that was not submitted.
type DraftError struct {
	Violations []string
}

func (e *DraftError) Error() string {
	return fmt.Sprintf("%s: %s", domain.ErrInvalidDraft, strings.Join(e.Violations, "; "))
}

func (e *DraftError) Unwrap() error { return domain.ErrInvalidDraft }

// DraftSubmitter validates a draft and creates it on the backend: the quiz,
// then each question in draft order followed by its options.
type DraftSubmitter struct {
	api     AdminAPI
	records SubmissionLog
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewDraftSubmitter(api AdminAPI, records SubmissionLog, log logrus.FieldLogger) *DraftSubmitter {
	return &DraftSubmitter{api: api, records: records, log: log, now: time.Now}
}

// Submit runs the create sequence. On failure the returned report still
// lists every server id received so far.
func (s *DraftSubmitter) Submit(ctx context.Context, d *Draft) (SubmitReport, error) {
	report := SubmitReport{Questions: []CreatedID{}, Options: []CreatedID{}}
	if violations := d.Validate(); len(violations) > 0 {
		return report, &DraftError{Violations: violations}
	}
	d.AssignClientIDs()

	err := s.create(ctx, d, &report)
	if err != nil {
		report.Failure = backend.Message(err)
		s.log.WithError(err).WithFields(logrus.Fields{
			"quiz_id":   report.QuizID,
			"questions": len(report.Questions),
			"options":   len(report.Options),
		}).Error("draft submission stopped, created entities were kept")
	} else {
		report.Complete = true
		s.log.WithField("quiz_id", report.QuizID).Info("draft submitted")
	}

	if s.records != nil {
		record := SubmissionRecord{Title: strings.TrimSpace(d.Quiz.Title), Report: report, SubmittedAt: s.now().UTC()}
		if recErr := s.records.Record(ctx, record); recErr != nil {
			s.log.WithError(recErr).Warn("record draft submission")
		}
	}
	return report, err
}

func (s *DraftSubmitter) create(ctx context.Context, d *Draft, report *SubmitReport) error {
	quiz := domain.NewQuiz{Title: strings.TrimSpace(d.Quiz.Title), Active: d.Quiz.Active}
	if desc := strings.TrimSpace(d.Quiz.Description); desc != "" {
		quiz.Description = &desc
	}
	createdQuiz, err := s.api.CreateQuiz(ctx, quiz)
	if err != nil {
		return fmt.Errorf("create quiz: %w", err)
	}
	report.QuizID = createdQuiz.ID

	for _, q := range d.Questions {
		createdQuestion, err := s.api.AddQuestion(ctx, createdQuiz.ID, domain.NewQuestion{
			Number:   q.Number,
			Type:     q.Type,
			Text:     strings.TrimSpace(q.Text),
			Points:   normalizePoints(q.Points),
			Required: q.Required,
		})
		if err != nil {
			return fmt.Errorf("create question %s: %w", q.ClientID, err)
		}
		report.Questions = append(report.Questions, CreatedID{ClientID: q.ClientID, ServerID: createdQuestion.ID})

		for _, o := range q.Options {
			createdOption, err := s.api.AddOption(ctx, createdQuestion.ID, domain.NewOption{
				Number:  o.Number,
				Text:    strings.TrimSpace(o.Text),
				Correct: o.Correct,
			})
			if err != nil {
				return fmt.Errorf("create option %s: %w", o.ClientID, err)
			}
			report.Options = append(report.Options, CreatedID{ClientID: o.ClientID, ServerID: createdOption.ID})
		}
	}
	return nil
}

func normalizePoints(points string) string {
	v := strings.TrimSpace(points)
	if v == "" {
		return DefaultPoints
	}
	return v
}
