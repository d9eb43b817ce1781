package repository

import (
	"context"
	"time"

	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/models"
)

// Lookups by id return sql.ErrNoRows when the row does not exist.

// DeckRepository handles deck data access
type DeckRepository interface {
	Insert(ctx context.Context, deck models.Deck) (*models.Deck, error)
	Get(ctx context.Context, id int64) (*models.Deck, error)
	GetByPublicID(ctx context.Context, publicID string) (*models.Deck, error)
	List(ctx context.Context) ([]models.Deck, error)
	// Delete removes the deck together with its cards and review history.
	Delete(ctx context.Context, id int64) error
	// Stats aggregates card state. A nil deckID covers every deck.
	Stats(ctx context.Context, deckID *int64, asOf time.Time) (*models.DeckStat, error)
}

// CardRepository handles card data access
type CardRepository interface {
	Insert(ctx context.Context, card models.Card) (int64, error)
	Get(ctx context.Context, id int64) (*models.Card, error)
	ListByDeck(ctx context.Context, deckID int64) ([]models.Card, error)
	Delete(ctx context.Context, id int64) error
	// LoadDueCards returns cards due by the end of asOf's day, oldest first.
	// A nil deckID covers every deck.
	LoadDueCards(ctx context.Context, deckID *int64, asOf time.Time) ([]models.Card, error)
	// SaveCardReview stores the new schedule and appends the review to the
	// card's history in a single transaction.
	SaveCardReview(ctx context.Context, cardID int64, review flashcard.Review) error
}

// ReviewRepository handles review history queries
type ReviewRepository interface {
	// StudyDays returns one timestamp per UTC hour with at least one review;
	// callers fold them into local days.
	StudyDays(ctx context.Context) ([]time.Time, error)
	ListByCard(ctx context.Context, cardID int64) ([]models.ReviewHistory, error)
}

// QuizRepository handles quiz data access
type QuizRepository interface {
	// Insert stores the quiz and its questions and returns the quiz id.
	Insert(ctx context.Context, quiz models.Quiz) (int64, error)
	Get(ctx context.Context, id int64) (*models.Quiz, error)
	SaveQuizAttempt(ctx context.Context, attempt models.QuizAttempt) (int64, error)
	ListAttempts(ctx context.Context, quizID int64) ([]models.QuizAttempt, error)
}

// ActivityRepository handles planner activity data access
type ActivityRepository interface {
	Insert(ctx context.Context, activity models.Activity) (int64, error)
	ListByDate(ctx context.Context, date string) ([]models.Activity, error)
	Delete(ctx context.Context, id int64) error
}

// AssignmentRepository handles assignment data access
type AssignmentRepository interface {
	Insert(ctx context.Context, assignment models.Assignment) (int64, error)
	Get(ctx context.Context, id int64) (*models.Assignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	SetCompleted(ctx context.Context, id int64, completedAt time.Time) error
}
