package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/logger"
)

// ReviewSaver persists a card review. Declared here so the worker package
// does not depend on repository implementations.
type ReviewSaver interface {
	SaveCardReview(ctx context.Context, cardID int64, review flashcard.Review) error
}

const (
	defaultRetryAttempts = 5
	defaultRetryBase     = 500 * time.Millisecond
	maxRetryDelay        = 30 * time.Second
)

// RetryReviewJob re-attempts a review write that failed during a study
// session. A missing card is treated as permanent and ends the job early.
type RetryReviewJob struct {
	Saver       ReviewSaver
	CardID      int64
	Review      flashcard.Review
	MaxAttempts int
	BaseDelay   time.Duration
	// OnGiveUp is called once when every attempt has failed, or when the
	// pool stops before the job runs.
	OnGiveUp func(cardID int64, err error)
}

func (j *RetryReviewJob) Name() string { return "retry_review" }

// Abandon reports the review as lost without attempting the write.
func (j *RetryReviewJob) Abandon(err error) {
	if j.OnGiveUp != nil {
		j.OnGiveUp(j.CardID, err)
	}
}

func (j *RetryReviewJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("card_id", j.CardID)

	attempts := j.MaxAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	delay := j.BaseDelay
	if delay <= 0 {
		delay = defaultRetryBase
	}

	var err error
retry:
	for attempt := 1; attempt <= attempts; attempt++ {
		err = j.Saver.SaveCardReview(ctx, j.CardID, j.Review)
		if err == nil {
			log.Info("review saved on attempt %d", attempt)
			return nil
		}
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("card no longer exists, dropping review")
			break retry
		}
		if attempt == attempts {
			break retry
		}

		log.Warn("attempt %d/%d failed: %v (retrying in %v)", attempt, attempts, err, delay)
		select {
		case <-ctx.Done():
			err = errors.Join(err, ctx.Err())
			break retry
		case <-time.After(delay):
		}
		delay = min(delay*2, maxRetryDelay)
	}

	if j.OnGiveUp != nil {
		j.OnGiveUp(j.CardID, err)
	}
	return fmt.Errorf("save review for card %d: %w", j.CardID, err)
}
