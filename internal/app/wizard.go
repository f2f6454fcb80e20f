package app

import (
	"fmt"
	"strings"

	"quiz-client/internal/domain"

	"github.com/google/uuid"
)

// DefaultPoints is used for new questions and for blank points on submit.
const DefaultPoints = "1.00"

// DraftQuiz is the quiz header of a wizard draft.
type DraftQuiz struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Active      bool   `yaml:"active" json:"active"`
}

// DraftOption is an unsaved option. ClientID is local to the draft.
type DraftOption struct {
	ClientID string `yaml:"clientId" json:"clientId"`
	Number   int    `yaml:"optionNo" json:"optionNo"`
	Text     string `yaml:"text" json:"text"`
	Correct  bool   `yaml:"correct" json:"correct"`
}

// DraftQuestion is an unsaved question with its options.
type DraftQuestion struct {
	ClientID string              `yaml:"clientId" json:"clientId"`
	Number   int                 `yaml:"questionNo" json:"questionNo"`
	Type     domain.QuestionType `yaml:"type" json:"type"`
	Text     string              `yaml:"text" json:"text"`
	Points   string              `yaml:"points" json:"points"`
	Required bool                `yaml:"required" json:"required"`
	Options  []DraftOption       `yaml:"options" json:"options"`
}

// Draft is the in-memory tree of a quiz being authored.
type Draft struct {
	Quiz      DraftQuiz       `yaml:"quiz" json:"quiz"`
	Questions []DraftQuestion `yaml:"questions" json:"questions"`
}

func newClientID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// NewDraft returns a draft seeded with one blank SINGLE question.
func NewDraft() *Draft {
	d := &Draft{Quiz: DraftQuiz{Active: true}}
	d.AddQuestion()
	return d
}

// AssignClientIDs fills missing client ids, e.g. after loading a draft file.
func (d *Draft) AssignClientIDs() {
	for i := range d.Questions {
		q := &d.Questions[i]
		if q.ClientID == "" {
			q.ClientID = newClientID("q")
		}
		for j := range q.Options {
			if q.Options[j].ClientID == "" {
				q.Options[j].ClientID = newClientID("o")
			}
		}
	}
}

// AddQuestion appends a blank question numbered after the highest existing one.
func (d *Draft) AddQuestion() *DraftQuestion {
	next := 1
	for _, q := range d.Questions {
		if q.Number >= next {
			next = q.Number + 1
		}
	}
	d.Questions = append(d.Questions, DraftQuestion{
		ClientID: newClientID("q"),
		Number:   next,
		Type:     domain.QuestionSingle,
		Points:   DefaultPoints,
		Required: true,
		Options: []DraftOption{
			{ClientID: newClientID("o"), Number: 1},
			{ClientID: newClientID("o"), Number: 2},
		},
	})
	return &d.Questions[len(d.Questions)-1]
}

// RemoveQuestion drops a question by client id.
func (d *Draft) RemoveQuestion(clientID string) bool {
	for i, q := range d.Questions {
		if q.ClientID == clientID {
			d.Questions = append(d.Questions[:i], d.Questions[i+1:]...)
			return true
		}
	}
	return false
}

// Question finds a question by client id.
func (d *Draft) Question(clientID string) *DraftQuestion {
	for i := range d.Questions {
		if d.Questions[i].ClientID == clientID {
			return &d.Questions[i]
		}
	}
	return nil
}

// AddOption appends a blank option numbered after the highest existing one.
func (d *Draft) AddOption(questionClientID string) *DraftOption {
	q := d.Question(questionClientID)
	if q == nil {
		return nil
	}
	next := 1
	for _, o := range q.Options {
		if o.Number >= next {
			next = o.Number + 1
		}
	}
	q.Options = append(q.Options, DraftOption{ClientID: newClientID("o"), Number: next})
	return &q.Options[len(q.Options)-1]
}

// RemoveOption drops an option from a question.
func (d *Draft) RemoveOption(questionClientID, optionClientID string) bool {
	q := d.Question(questionClientID)
	if q == nil {
		return false
	}
	for i, o := range q.Options {
		if o.ClientID == optionClientID {
			q.Options = append(q.Options[:i], q.Options[i+1:]...)
			return true
		}
	}
	return false
}

// SetCorrect marks an option. On SINGLE questions marking one option correct
// unmarks every other option.
func (d *Draft) SetCorrect(questionClientID, optionClientID string, correct bool) bool {
	q := d.Question(questionClientID)
	if q == nil {
		return false
	}
	found := false
	for i := range q.Options {
		o := &q.Options[i]
		if o.ClientID == optionClientID {
			o.Correct = correct
			found = true
			continue
		}
		if correct && q.Type == domain.QuestionSingle {
			o.Correct = false
		}
	}
	return found
}

// Validate checks a draft and returns every violation found. An empty result
// means the draft can be submitted.
func Validate(quiz DraftQuiz, questions []DraftQuestion) []string {
	var errs []string
	if strings.TrimSpace(quiz.Title) == "" {
		errs = append(errs, "Quiz title is required.")
	}
	if len(questions) == 0 {
		errs = append(errs, "Add at least 1 question.")
	}

	seenQuestions := make(map[int]bool, len(questions))
	for _, q := range questions {
		if q.Number <= 0 {
			label := strings.TrimSpace(q.Text)
			if label == "" {
				label = q.ClientID
			}
			errs = append(errs, fmt.Sprintf("Question %q: questionNo must be >= 1.", label))
		}
		if seenQuestions[q.Number] {
			errs = append(errs, fmt.Sprintf("Duplicate questionNo: %d. Each questionNo must be unique within a quiz.", q.Number))
		}
		seenQuestions[q.Number] = true

		if strings.TrimSpace(q.Text) == "" {
			errs = append(errs, fmt.Sprintf("QuestionNo %d: text is required.", q.Number))
		}
		if strings.TrimSpace(q.Points) == "" {
			errs = append(errs, fmt.Sprintf("QuestionNo %d: points is required (e.g., 1.00).", q.Number))
		}
		if len(q.Options) == 0 {
			errs = append(errs, fmt.Sprintf("QuestionNo %d: add at least 1 option.", q.Number))
		}

		seenOptions := make(map[int]bool, len(q.Options))
		correct := 0
		for _, o := range q.Options {
			if o.Number <= 0 {
				errs = append(errs, fmt.Sprintf("QuestionNo %d: optionNo must be >= 1.", q.Number))
			}
			if seenOptions[o.Number] {
				errs = append(errs, fmt.Sprintf("QuestionNo %d: duplicate optionNo %d.", q.Number, o.Number))
			}
			seenOptions[o.Number] = true

			if strings.TrimSpace(o.Text) == "" {
				errs = append(errs, fmt.Sprintf("QuestionNo %d, Option %d: text is required.", q.Number, o.Number))
			}
			if o.Correct {
				correct++
			}
		}

		switch {
		case !q.Type.Valid():
			errs = append(errs, fmt.Sprintf("QuestionNo %d: type must be SINGLE or MULTI.", q.Number))
		case q.Type == domain.QuestionSingle && correct != 1:
			errs = append(errs, fmt.Sprintf("QuestionNo %d: SINGLE must have exactly 1 correct option (currently %d).", q.Number, correct))
		case q.Type == domain.QuestionMulti && correct < 1:
			errs = append(errs, fmt.Sprintf("QuestionNo %d: MULTI must have at least 1 correct option.", q.Number))
		}
	}
	return errs
}

// Validate runs Validate on the whole draft.
func (d *Draft) Validate() []string {
	return Validate(d.Quiz, d.Questions)
}
