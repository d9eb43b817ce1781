package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/worker"
)

type recordingSaver struct {
	saved chan int64
}

func (s *recordingSaver) SaveCardReview(_ context.Context, cardID int64, _ flashcard.Review) error {
	s.saved <- cardID
	return nil
}

func TestWorkerQueue_EnqueueReviewRetry(t *testing.T) {
	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())
	defer pool.Stop()

	saver := &recordingSaver{saved: make(chan int64, 1)}
	q := NewWorkerQueue(pool, saver, 3, nil)

	require.NoError(t, q.EnqueueReviewRetry(42, flashcard.Review{Rating: flashcard.RatingGood}))

	select {
	case id := <-saver.saved:
		assert.Equal(t, int64(42), id)
	case <-time.After(2 * time.Second):
		t.Fatal("retry job never ran")
	}
}

func TestWorkerQueue_StoppedPool(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Stop()

	q := NewWorkerQueue(pool, &recordingSaver{saved: make(chan int64, 1)}, 3, nil)
	assert.ErrorIs(t, q.EnqueueReviewRetry(1, flashcard.Review{}), worker.ErrPoolStopped)
}

func TestWorkerQueue_StopGivesUpQueuedRetries(t *testing.T) {
	// not started, so retries stay queued until Stop
	pool := worker.NewPool(1, 4)

	var lost []int64
	q := NewWorkerQueue(pool, &recordingSaver{saved: make(chan int64, 2)}, 3, func(cardID int64, err error) {
		assert.ErrorIs(t, err, worker.ErrPoolStopped)
		lost = append(lost, cardID)
	})
	require.NoError(t, q.EnqueueReviewRetry(7, flashcard.Review{}))
	require.NoError(t, q.EnqueueReviewRetry(8, flashcard.Review{}))

	assert.Equal(t, 2, pool.Stop())
	assert.Equal(t, []int64{7, 8}, lost)
}
