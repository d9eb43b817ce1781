package models

import "time"

// QuestionType identifies how a quiz question is answered and graded.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionShortAnswer    QuestionType = "short_answer"
)

type Quiz struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	Subject   string         `json:"subject"`
	DeckID    *int64         `json:"deck_id,omitempty"`
	Questions []QuizQuestion `json:"questions"`
	CreatedAt time.Time      `json:"created_at"`
}

type QuizQuestion struct {
	ID            int64        `json:"id"`
	QuizID        int64        `json:"quiz_id"`
	Position      int          `json:"position"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	CorrectAnswer string       `json:"correct_answer"`
	Options       []string     `json:"options,omitempty"`
}

type QuizAnswer struct {
	QuestionID int64    `json:"question_id"`
	Answer     string   `json:"answer"`
	IsCorrect  bool     `json:"is_correct"`
	Similarity *float64 `json:"similarity,omitempty"`
}

type QuizAttempt struct {
	ID               int64        `json:"id"`
	QuizID           int64        `json:"quiz_id"`
	Score            int          `json:"score"`
	TotalQuestions   int          `json:"total_questions"`
	Percentage       float64      `json:"percentage"`
	Answers          []QuizAnswer `json:"answers"`
	TimeSpentSeconds int          `json:"time_spent_seconds"`
	CompletedAt      time.Time    `json:"completed_at"`
}
