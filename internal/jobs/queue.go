package jobs

import "github.com/vytor/studyflash/internal/flashcard"

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueReviewRetry(cardID int64, review flashcard.Review) error
}
