package domain

import "time"

// NewQuiz is the create-quiz request body.
type NewQuiz struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Active      bool    `json:"active"`
}

// NewQuestion is the create-question request body. Points travel as text.
type NewQuestion struct {
	Number   int          `json:"questionNo"`
	Type     QuestionType `json:"type"`
	Text     string       `json:"text"`
	Points   string       `json:"points"`
	Required bool         `json:"required"`
}

// NewOption is the create-option request body.
type NewOption struct {
	Number  int    `json:"optionNo"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// CreatedQuiz echoes a quiz persisted by the backend.
type CreatedQuiz struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreatedQuestion echoes a question persisted by the backend.
type CreatedQuestion struct {
	ID        int64        `json:"id"`
	QuizID    int64        `json:"quizId"`
	Number    int          `json:"questionNo"`
	Type      QuestionType `json:"type"`
	Text      string       `json:"text"`
	Points    Points       `json:"points"`
	Required  bool         `json:"required"`
	CreatedAt time.Time    `json:"createdAt"`
}

// CreatedOption echoes an option persisted by the backend.
type CreatedOption struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"questionId"`
	Number     int       `json:"optionNo"`
	Text       string    `json:"text"`
	Correct    bool      `json:"correct"`
	CreatedAt  time.Time `json:"createdAt"`
}
