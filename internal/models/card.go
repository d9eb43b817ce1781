package models

import "time"

// Difficulty is the author-assigned difficulty of a card.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Card struct {
	ID              int64      `json:"id"`
	DeckID          int64      `json:"deck_id"`
	Front           string     `json:"front"`
	Back            string     `json:"back"`
	Hint            string     `json:"hint,omitempty"`
	Difficulty      Difficulty `json:"difficulty"`
	RepetitionCount int        `json:"repetition_count"`
	EaseFactor      float64    `json:"ease_factor"`
	IntervalDays    int        `json:"interval_days"`
	NextReviewDate  time.Time  `json:"next_review_date"`
	LastReviewedAt  *time.Time `json:"last_reviewed_at,omitempty"`
	TimesReviewed   int        `json:"times_reviewed"`
	TimesCorrect    int        `json:"times_correct"`
	CreatedAt       time.Time  `json:"created_at"`
}

type ReviewHistory struct {
	ID          int64     `json:"id"`
	CardID      int64     `json:"card_id"`
	Rating      int       `json:"rating"`
	TimeSeconds float64   `json:"time_seconds"`
	ReviewedAt  time.Time `json:"reviewed_at"`
}
