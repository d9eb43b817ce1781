package study_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/study"
)

type fakeRecorder struct {
	fail  map[int64]bool
	saved map[int64][]flashcard.Review
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{fail: map[int64]bool{}, saved: map[int64][]flashcard.Review{}}
}

func (r *fakeRecorder) SaveCardReview(_ context.Context, cardID int64, review flashcard.Review) error {
	if r.fail[cardID] {
		return errors.New("database is locked")
	}
	r.saved[cardID] = append(r.saved[cardID], review)
	return nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func makeCards(n int) []models.Card {
	cards := make([]models.Card, n)
	for i := range cards {
		cards[i] = models.Card{ID: int64(i + 1), DeckID: 1, Front: "q", Back: "a", EaseFactor: 2.5}
	}
	return cards
}

func rateAll(t *testing.T, s *study.Session, rating int) []study.Outcome {
	t.Helper()
	var outs []study.Outcome
	for s.State() == study.StateActive {
		out, err := s.HandleRating(context.Background(), rating)
		require.NoError(t, err)
		outs = append(outs, out)
	}
	return outs
}

func TestSession_AllPerfect(t *testing.T) {
	rec := newFakeRecorder()
	s := study.New(makeCards(4), study.WithRecorder(rec))

	outs := rateAll(t, s, 5)

	sum := s.Summary()
	assert.Equal(t, study.StateComplete, s.State())
	assert.Equal(t, 4, sum.Mastered)
	assert.Equal(t, 0, sum.NeedsWork)
	assert.Empty(t, s.Missed())
	assert.Equal(t, 4, sum.BestStreak)
	assert.InDelta(t, 1.0, sum.Accuracy, 1e-9)
	assert.False(t, s.CanReplay())
	assert.True(t, outs[len(outs)-1].Completed)
	for _, out := range outs {
		assert.Equal(t, study.PersistOK, out.Persist)
		assert.Equal(t, study.ResultMastered, out.Result)
	}
	assert.Len(t, rec.saved, 4)
}

func TestSession_AllForgotten(t *testing.T) {
	s := study.New(makeCards(3))

	rateAll(t, s, 1)

	sum := s.Summary()
	assert.Equal(t, 3, sum.NeedsWork)
	assert.Len(t, s.Missed(), 3)
	assert.Equal(t, 0, sum.BestStreak)
	require.True(t, s.CanReplay())

	replay, err := s.Replay()
	require.NoError(t, err)
	_, total := replay.Position()
	assert.Equal(t, 3, total)
	assert.Equal(t, study.StateActive, replay.State())
	assert.Equal(t, 0, replay.Summary().Reviewed)
}

func TestSession_StreakResetsBelowFour(t *testing.T) {
	s := study.New(makeCards(5))
	ctx := context.Background()

	for _, r := range []int{5, 4} {
		_, err := s.HandleRating(ctx, r)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, s.Summary().Streak)

	out, err := s.HandleRating(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, study.ResultNeedsWork, out.Result)
	assert.Equal(t, 0, s.Summary().Streak)
	assert.Equal(t, 2, s.Summary().BestStreak)
	assert.Empty(t, s.Missed(), "rating 3 needs work but is not missed")
}

func TestSession_EmptyIsComplete(t *testing.T) {
	s := study.New(nil)

	assert.Equal(t, study.StateComplete, s.State())
	assert.Equal(t, study.Summary{State: study.StateComplete}, s.Summary())
	_, ok := s.Current()
	assert.False(t, ok)

	_, err := s.HandleRating(context.Background(), 5)
	assert.ErrorIs(t, err, study.ErrNotActive)

	_, err = s.Replay()
	assert.ErrorIs(t, err, study.ErrNothingToReplay)
}

func TestSession_ElapsedAndSchedule(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	rec := newFakeRecorder()
	s := study.New(makeCards(2), study.WithRecorder(rec), study.WithClock(clock.Now))

	clock.Advance(12 * time.Second)
	out, err := s.HandleRating(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, 12*time.Second, out.Elapsed)
	assert.Equal(t, 1, out.Schedule.IntervalDays)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), out.Schedule.NextReviewDate)

	saved := rec.saved[1]
	require.Len(t, saved, 1)
	assert.InDelta(t, 12.0, saved[0].TimeSeconds, 1e-9)
	assert.Equal(t, flashcard.RatingPerfect, saved[0].Rating)

	clock.Advance(8 * time.Second)
	_, err = s.HandleRating(context.Background(), 4)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, s.Summary().AverageSeconds, 1e-9)
	assert.Equal(t, 20*time.Second, s.Summary().Duration)
}

func TestSession_PersistFailureKeepsGoing(t *testing.T) {
	rec := newFakeRecorder()
	rec.fail[2] = true
	s := study.New(makeCards(3), study.WithRecorder(rec))
	ctx := context.Background()

	outs := rateAll(t, s, 4)

	assert.Equal(t, study.StateComplete, s.State())
	assert.Equal(t, study.PersistFailed, outs[1].Persist)
	assert.Error(t, outs[1].Err)
	pending := s.PendingWrites()
	require.Len(t, pending, 1)
	assert.Equal(t, int64(2), pending[0].CardID)

	left, err := s.RetryPending(ctx)
	assert.Error(t, err)
	assert.Equal(t, 1, left)

	rec.fail[2] = false
	left, err = s.RetryPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, left)
	assert.Len(t, rec.saved[2], 1)
	assert.Empty(t, s.PendingWrites())
}

func TestSession_TakePendingWrites(t *testing.T) {
	rec := newFakeRecorder()
	rec.fail[1] = true
	s := study.New(makeCards(1), study.WithRecorder(rec))

	rateAll(t, s, 2)

	taken := s.TakePendingWrites()
	require.Len(t, taken, 1)
	assert.Empty(t, s.PendingWrites())

	left, err := s.RetryPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, left)

	s.KeepPending(taken...)
	assert.Equal(t, 1, s.Summary().Pending)

	rec.fail[1] = false
	left, err = s.RetryPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, left)
	assert.Len(t, rec.saved[1], 1)
}

func TestSession_NoRecorderSkipsPersistence(t *testing.T) {
	s := study.New(makeCards(1))
	out, err := s.HandleRating(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, study.PersistSkipped, out.Persist)
}

func TestSession_ExitFromActive(t *testing.T) {
	rec := newFakeRecorder()
	s := study.New(makeCards(3), study.WithRecorder(rec))
	_, err := s.HandleRating(context.Background(), 5)
	require.NoError(t, err)

	s.Exit()

	assert.Equal(t, study.StateExited, s.State())
	_, err = s.HandleRating(context.Background(), 5)
	assert.ErrorIs(t, err, study.ErrNotActive)
	assert.False(t, s.CanReplay())
	assert.Len(t, rec.saved, 1)
}

func TestSession_ReplayUsesUpdatedSchedule(t *testing.T) {
	cards := makeCards(2)
	cards[0].RepetitionCount = 4
	cards[0].IntervalDays = 30
	s := study.New(cards)
	ctx := context.Background()

	_, err := s.HandleRating(ctx, 1)
	require.NoError(t, err)
	_, err = s.HandleRating(ctx, 5)
	require.NoError(t, err)

	replay, err := s.Replay()
	require.NoError(t, err)
	card, ok := replay.Current()
	require.True(t, ok)
	assert.Equal(t, int64(1), card.ID)
	assert.Equal(t, 0, card.RepetitionCount)
	assert.Equal(t, 1, card.IntervalDays)
}

func TestSession_RatingClamped(t *testing.T) {
	s := study.New(makeCards(1))
	out, err := s.HandleRating(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, flashcard.RatingPerfect, out.Rating)
}

func TestState_JSON(t *testing.T) {
	b, err := json.Marshal(study.StateExited)
	require.NoError(t, err)
	assert.Equal(t, `"exited"`, string(b))

	var st study.State
	require.NoError(t, json.Unmarshal([]byte(`"complete"`), &st))
	assert.Equal(t, study.StateComplete, st)
	assert.Error(t, json.Unmarshal([]byte(`"paused"`), &st))
}
