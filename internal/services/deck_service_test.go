package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/testutil/mocks"
)

var testNow = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func newTestDeckService() (*deckService, *mocks.MockDeckRepository, *mocks.MockCardRepository, *mocks.MockReviewRepository) {
	decks := new(mocks.MockDeckRepository)
	cards := new(mocks.MockCardRepository)
	reviews := new(mocks.MockReviewRepository)
	svc := NewDeckService(decks, cards, reviews).(*deckService)
	svc.now = func() time.Time { return testNow }
	return svc, decks, cards, reviews
}

func requireAppError(t *testing.T, err error, code string) *errors.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok, "expected *errors.AppError, got %T", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestDeckService_CreateDeck(t *testing.T) {
	svc, decks, _, _ := newTestDeckService()
	ctx := context.Background()

	_, err := svc.CreateDeck(ctx, models.Deck{Name: "   "})
	requireAppError(t, err, errors.ErrCodeValidation)

	decks.On("Insert", mock.Anything, models.Deck{Name: "Spanish", Subject: "Languages"}).
		Return(&models.Deck{ID: 1, PublicID: "abc", Name: "Spanish"}, nil)

	deck, err := svc.CreateDeck(ctx, models.Deck{Name: " Spanish ", Subject: "Languages "})
	require.NoError(t, err)
	assert.Equal(t, "abc", deck.PublicID)
	decks.AssertExpectations(t)
}

func TestDeckService_GetDeck(t *testing.T) {
	svc, decks, _, _ := newTestDeckService()
	ctx := context.Background()

	decks.On("Get", mock.Anything, int64(3)).Return(&models.Deck{ID: 3}, nil)
	decks.On("GetByPublicID", mock.Anything, "V1StGXR8_Z5j").Return(&models.Deck{ID: 4}, nil)
	decks.On("GetByPublicID", mock.Anything, "gone").Return(nil, sql.ErrNoRows)

	deck, err := svc.GetDeck(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, int64(3), deck.ID)

	deck, err = svc.GetDeck(ctx, "V1StGXR8_Z5j")
	require.NoError(t, err)
	assert.Equal(t, int64(4), deck.ID)

	_, err = svc.GetDeck(ctx, "gone")
	appErr := requireAppError(t, err, errors.ErrCodeNotFound)
	assert.Equal(t, 404, appErr.Status)
}

func TestDeckService_AddCard(t *testing.T) {
	svc, decks, cards, _ := newTestDeckService()
	ctx := context.Background()

	_, err := svc.AddCard(ctx, models.Card{DeckID: 1, Front: "q"})
	requireAppError(t, err, errors.ErrCodeValidation)
	_, err = svc.AddCard(ctx, models.Card{DeckID: 1, Front: "q", Back: "a", Difficulty: "brutal"})
	requireAppError(t, err, errors.ErrCodeValidation)

	decks.On("Get", mock.Anything, int64(1)).Return(&models.Deck{ID: 1}, nil)
	cards.On("Insert", mock.Anything, mock.MatchedBy(func(c models.Card) bool {
		return c.Front == "hola" &&
			c.Difficulty == models.DifficultyMedium &&
			c.EaseFactor == flashcard.DefaultEaseFactor &&
			c.TimesReviewed == 0 &&
			c.NextReviewDate.Equal(flashcard.StartOfDay(testNow))
	})).Return(int64(11), nil)
	cards.On("Get", mock.Anything, int64(11)).Return(&models.Card{ID: 11, Front: "hola"}, nil)

	card, err := svc.AddCard(ctx, models.Card{DeckID: 1, Front: " hola ", Back: "hello", TimesReviewed: 9, EaseFactor: 1.3})
	require.NoError(t, err)
	assert.Equal(t, int64(11), card.ID)
	cards.AssertExpectations(t)
}

func TestDeckService_AddCardUnknownDeck(t *testing.T) {
	svc, decks, cards, _ := newTestDeckService()
	decks.On("Get", mock.Anything, int64(99)).Return(nil, sql.ErrNoRows)

	_, err := svc.AddCard(context.Background(), models.Card{DeckID: 99, Front: "q", Back: "a"})
	requireAppError(t, err, errors.ErrCodeNotFound)
	cards.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestDeckService_Stats(t *testing.T) {
	svc, decks, _, reviews := newTestDeckService()

	decks.On("Stats", mock.Anything, (*int64)(nil), testNow).Return(&models.DeckStat{TotalCards: 4, CardsDue: 2}, nil)
	reviews.On("StudyDays", mock.Anything).Return([]time.Time{
		testNow.AddDate(0, 0, -5),
		testNow.AddDate(0, 0, -2),
		testNow.AddDate(0, 0, -1),
	}, nil)

	stats, err := svc.Stats(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Cards.TotalCards)
	assert.Equal(t, 2, stats.Streak.Current)
	assert.Equal(t, 2, stats.Streak.Longest)
	require.NotNil(t, stats.Streak.LastStudy)
	assert.True(t, stats.Streak.LastStudy.Equal(testNow.AddDate(0, 0, -1)))
}

func TestDeckService_DeleteDeckNotFound(t *testing.T) {
	svc, decks, _, _ := newTestDeckService()
	decks.On("Delete", mock.Anything, int64(5)).Return(sql.ErrNoRows)

	requireAppError(t, svc.DeleteDeck(context.Background(), 5), errors.ErrCodeNotFound)
}
