package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
	"github.com/vytor/studyflash/internal/repository/sqlite"
	"github.com/vytor/studyflash/internal/study"
	"github.com/vytor/studyflash/internal/testutil"
)

type CardRepositorySuite struct {
	suite.Suite
	db      *sql.DB
	repo    repository.CardRepository
	reviews repository.ReviewRepository
	deckID  int64
}

func (s *CardRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewCardRepository(s.db)
	s.reviews = sqlite.NewReviewRepository(s.db)

	deck, err := sqlite.NewDeckRepository(s.db).Insert(context.Background(), models.Deck{Name: "Biology"})
	s.Require().NoError(err)
	s.deckID = deck.ID
}

func (s *CardRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *CardRepositorySuite) insertCard(front string, due time.Time) int64 {
	id, err := s.repo.Insert(context.Background(), models.Card{
		DeckID:         s.deckID,
		Front:          front,
		Back:           front + " answer",
		NextReviewDate: due,
	})
	s.Require().NoError(err)
	return id
}

func (s *CardRepositorySuite) TestInsertAndGet() {
	ctx := context.Background()
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	id := s.insertCard("mitochondria", due)
	s.Assert().Greater(id, int64(0))

	card, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal("mitochondria", card.Front)
	s.Assert().Equal(flashcard.DefaultEaseFactor, card.EaseFactor)
	s.Assert().Equal(models.DifficultyMedium, card.Difficulty)
	s.Assert().True(due.Equal(card.NextReviewDate))
	s.Assert().Nil(card.LastReviewedAt)
}

func (s *CardRepositorySuite) TestGet_NotFound() {
	card, err := s.repo.Get(context.Background(), 99999)
	s.Assert().ErrorIs(err, sql.ErrNoRows)
	s.Assert().Nil(card)
}

func (s *CardRepositorySuite) TestLoadDueCards() {
	ctx := context.Background()
	asOf := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	late := s.insertCard("later today", time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC))
	overdue := s.insertCard("overdue", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	s.insertCard("tomorrow", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC))

	cards, err := s.repo.LoadDueCards(ctx, nil, asOf)
	s.Require().NoError(err)
	s.Require().Len(cards, 2)
	s.Assert().Equal(overdue, cards[0].ID)
	s.Assert().Equal(late, cards[1].ID)

	other, err := sqlite.NewDeckRepository(s.db).Insert(ctx, models.Deck{Name: "Chemistry"})
	s.Require().NoError(err)
	cards, err = s.repo.LoadDueCards(ctx, &other.ID, asOf)
	s.Require().NoError(err)
	s.Assert().Empty(cards)
}

func (s *CardRepositorySuite) TestSaveCardReview() {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	id := s.insertCard("osmosis", now)

	card, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)

	review := flashcard.Review{
		Schedule:    flashcard.NextState(flashcard.ScheduleOf(*card), 5, now),
		Rating:      flashcard.RatingPerfect,
		TimeSeconds: 4.5,
		ReviewedAt:  now,
	}
	s.Require().NoError(s.repo.SaveCardReview(ctx, id, review))

	updated, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(1, updated.RepetitionCount)
	s.Assert().Equal(1, updated.IntervalDays)
	s.Assert().InDelta(2.6, updated.EaseFactor, 1e-9)
	s.Assert().Equal(1, updated.TimesReviewed)
	s.Assert().Equal(1, updated.TimesCorrect)
	s.Assert().True(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC).Equal(updated.NextReviewDate))
	s.Require().NotNil(updated.LastReviewedAt)
	s.Assert().True(now.Equal(*updated.LastReviewedAt))

	history, err := s.reviews.ListByCard(ctx, id)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Assert().Equal(5, history[0].Rating)
	s.Assert().Equal(4.5, history[0].TimeSeconds)
}

func (s *CardRepositorySuite) TestSaveCardReview_MissingCardWritesNothing() {
	ctx := context.Background()
	err := s.repo.SaveCardReview(ctx, 424242, flashcard.Review{Rating: flashcard.RatingGood, ReviewedAt: time.Now()})
	s.Assert().ErrorIs(err, sql.ErrNoRows)

	var count int
	s.Require().NoError(s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM review_history`).Scan(&count))
	s.Assert().Zero(count)
}

func (s *CardRepositorySuite) TestSaveCardReview_StaleReviewKeepsNewerSchedule() {
	ctx := context.Background()
	first := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)
	id := s.insertCard("diffusion", first)

	card, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	forgot := flashcard.Review{
		Schedule:   flashcard.NextState(flashcard.ScheduleOf(*card), 1, first),
		Rating:     flashcard.RatingForgot,
		ReviewedAt: first,
	}
	perfect := flashcard.Review{
		Schedule:   flashcard.NextState(forgot.Schedule, 5, second),
		Rating:     flashcard.RatingPerfect,
		ReviewedAt: second,
	}

	// The newer review lands first, the older one arrives late.
	s.Require().NoError(s.repo.SaveCardReview(ctx, id, perfect))
	s.Require().NoError(s.repo.SaveCardReview(ctx, id, forgot))

	updated, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(1, updated.RepetitionCount)
	s.Require().NotNil(updated.LastReviewedAt)
	s.Assert().True(second.Equal(*updated.LastReviewedAt))
	s.Assert().Equal(2, updated.TimesReviewed)
	s.Assert().Equal(1, updated.TimesCorrect)

	history, err := s.reviews.ListByCard(ctx, id)
	s.Require().NoError(err)
	s.Assert().Len(history, 2)

	// A review at the same second as the stored one still applies.
	again := perfect
	again.Schedule.IntervalDays = 6
	s.Require().NoError(s.repo.SaveCardReview(ctx, id, again))
	updated, err = s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(6, updated.IntervalDays)
}

// flakyRecorder fails the next write, then passes through to the repository.
type flakyRecorder struct {
	repo     repository.CardRepository
	failNext bool
}

func (f *flakyRecorder) SaveCardReview(ctx context.Context, cardID int64, review flashcard.Review) error {
	if f.failNext {
		f.failNext = false
		return errors.New("database is locked")
	}
	return f.repo.SaveCardReview(ctx, cardID, review)
}

func (s *CardRepositorySuite) TestSession_RetryAfterReplayKeepsNewerSchedule() {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	id := s.insertCard("enzyme", now)
	card, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)

	rec := &flakyRecorder{repo: s.repo, failNext: true}
	clock := func() time.Time { return now }
	sess := study.New([]models.Card{*card}, study.WithRecorder(rec), study.WithClock(clock))

	out, err := sess.HandleRating(ctx, 1)
	s.Require().NoError(err)
	s.Require().Equal(study.PersistFailed, out.Persist)

	now = now.Add(time.Minute)
	replay, err := sess.Replay()
	s.Require().NoError(err)
	out, err = replay.HandleRating(ctx, 5)
	s.Require().NoError(err)
	s.Require().Equal(study.PersistOK, out.Persist)

	remaining, err := sess.RetryPending(ctx)
	s.Require().NoError(err)
	s.Assert().Zero(remaining)

	updated, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal(1, updated.RepetitionCount)
	s.Require().NotNil(updated.LastReviewedAt)
	s.Assert().True(now.Equal(*updated.LastReviewedAt))
}

func (s *CardRepositorySuite) TestStudyDays() {
	ctx := context.Background()
	id := s.insertCard("photosynthesis", time.Now())

	for _, at := range []time.Time{
		time.Date(2025, 3, 8, 10, 5, 0, 0, time.UTC),
		time.Date(2025, 3, 8, 10, 45, 0, 0, time.UTC),
		time.Date(2025, 3, 9, 18, 0, 0, 0, time.UTC),
	} {
		s.Require().NoError(s.repo.SaveCardReview(ctx, id, flashcard.Review{
			Schedule:   flashcard.Schedule{EaseFactor: 2.5, IntervalDays: 1, NextReviewDate: at},
			Rating:     flashcard.RatingGood,
			ReviewedAt: at,
		}))
	}

	days, err := s.reviews.StudyDays(ctx)
	s.Require().NoError(err)
	s.Require().Len(days, 2)

	current, longest := flashcard.DailyStreak(days, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	s.Assert().Equal(2, current)
	s.Assert().Equal(2, longest)
}

func (s *CardRepositorySuite) TestDeleteDeckCascades() {
	ctx := context.Background()
	id := s.insertCard("ribosome", time.Now())

	s.Require().NoError(sqlite.NewDeckRepository(s.db).Delete(ctx, s.deckID))

	_, err := s.repo.Get(ctx, id)
	s.Assert().ErrorIs(err, sql.ErrNoRows)
	s.Assert().ErrorIs(s.repo.Delete(ctx, id), sql.ErrNoRows)
}

func TestCardRepositorySuite(t *testing.T) {
	suite.Run(t, new(CardRepositorySuite))
}
