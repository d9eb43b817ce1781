package jobs

import (
	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/worker"
)

// WorkerQueue implements JobQueue using worker pools
type WorkerQueue struct {
	retryPool   *worker.Pool
	saver       worker.ReviewSaver
	maxAttempts int
	onGiveUp    func(cardID int64, err error)
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(retryPool *worker.Pool, saver worker.ReviewSaver, maxAttempts int, onGiveUp func(cardID int64, err error)) JobQueue {
	return &WorkerQueue{
		retryPool:   retryPool,
		saver:       saver,
		maxAttempts: maxAttempts,
		onGiveUp:    onGiveUp,
	}
}

func (q *WorkerQueue) EnqueueReviewRetry(cardID int64, review flashcard.Review) error {
	return q.retryPool.Submit(&worker.RetryReviewJob{
		Saver:       q.saver,
		CardID:      cardID,
		Review:      review,
		MaxAttempts: q.maxAttempts,
		OnGiveUp:    q.onGiveUp,
	})
}
