package worker

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/flashcard"
)

type flakySaver struct {
	failures int
	err      error
	calls    int
}

func (s *flakySaver) SaveCardReview(_ context.Context, _ int64, _ flashcard.Review) error {
	s.calls++
	if s.calls <= s.failures {
		return s.err
	}
	return nil
}

func TestRetryReviewJob_EventuallySucceeds(t *testing.T) {
	saver := &flakySaver{failures: 2, err: errors.New("database is locked")}
	job := &RetryReviewJob{Saver: saver, CardID: 7, MaxAttempts: 5, BaseDelay: time.Millisecond}

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 3, saver.calls)
}

func TestRetryReviewJob_GivesUp(t *testing.T) {
	saver := &flakySaver{failures: 10, err: errors.New("disk I/O error")}
	var gaveUp int64
	job := &RetryReviewJob{
		Saver: saver, CardID: 9, MaxAttempts: 3, BaseDelay: time.Millisecond,
		OnGiveUp: func(cardID int64, _ error) { gaveUp = cardID },
	}

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, saver.err)
	assert.Equal(t, 3, saver.calls)
	assert.Equal(t, int64(9), gaveUp)
}

func TestRetryReviewJob_MissingCardIsPermanent(t *testing.T) {
	saver := &flakySaver{failures: 10, err: sql.ErrNoRows}
	job := &RetryReviewJob{Saver: saver, CardID: 1, MaxAttempts: 5, BaseDelay: time.Millisecond}

	assert.ErrorIs(t, job.Run(context.Background()), sql.ErrNoRows)
	assert.Equal(t, 1, saver.calls)
}

func TestRetryReviewJob_StopsOnCancel(t *testing.T) {
	saver := &flakySaver{failures: 10, err: errors.New("busy")}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := &RetryReviewJob{Saver: saver, CardID: 1, MaxAttempts: 5, BaseDelay: time.Hour}
	err := job.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, saver.calls)
}
