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
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/testutil/mocks"
)

func newTestQuizService() (*quizService, *mocks.MockQuizRepository, *mocks.MockDeckRepository) {
	quizzes := new(mocks.MockQuizRepository)
	decks := new(mocks.MockDeckRepository)
	svc := NewQuizService(quizzes, decks).(*quizService)
	svc.now = func() time.Time { return testNow }
	return svc, quizzes, decks
}

func capitalsQuiz() *models.Quiz {
	return &models.Quiz{
		ID:    5,
		Title: "Capitals",
		Questions: []models.QuizQuestion{
			{ID: 1, QuizID: 5, Type: models.QuestionShortAnswer, Prompt: "France", CorrectAnswer: "Paris"},
			{ID: 2, QuizID: 5, Type: models.QuestionTrueFalse, Prompt: "Rome is in Spain", CorrectAnswer: "false"},
		},
	}
}

func TestQuizService_CreateQuizValidation(t *testing.T) {
	svc, quizzes, _ := newTestQuizService()
	ctx := context.Background()

	_, err := svc.CreateQuiz(ctx, models.Quiz{Title: "Empty"})
	requireAppError(t, err, errors.ErrCodeValidation)

	_, err = svc.CreateQuiz(ctx, models.Quiz{Title: "Bad", Questions: []models.QuizQuestion{
		{Type: models.QuestionMultipleChoice, Prompt: "p", CorrectAnswer: "z", Options: []string{"a", "b"}},
	}})
	appErr := requireAppError(t, err, errors.ErrCodeValidation)
	assert.Contains(t, appErr.Message, "questions[0]")

	quizzes.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestQuizService_CreateQuiz(t *testing.T) {
	svc, quizzes, decks := newTestQuizService()
	ctx := context.Background()
	deckID := int64(3)

	decks.On("Get", mock.Anything, deckID).Return(&models.Deck{ID: deckID}, nil)
	quizzes.On("Insert", mock.Anything, mock.Anything).Return(int64(5), nil)
	quizzes.On("Get", mock.Anything, int64(5)).Return(capitalsQuiz(), nil)

	q := *capitalsQuiz()
	q.DeckID = &deckID
	created, err := svc.CreateQuiz(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.ID)
}

func TestQuizService_SubmitAttempt(t *testing.T) {
	svc, quizzes, _ := newTestQuizService()
	ctx := context.Background()

	quizzes.On("Get", mock.Anything, int64(5)).Return(capitalsQuiz(), nil)
	quizzes.On("SaveQuizAttempt", mock.Anything, mock.MatchedBy(func(a models.QuizAttempt) bool {
		return a.QuizID == 5 && a.Score == 2 && a.CompletedAt.Equal(testNow)
	})).Return(int64(77), nil)

	attempt, err := svc.SubmitAttempt(ctx, 5, []string{"paris", "no"}, 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(77), attempt.ID)
	assert.Equal(t, 100.0, attempt.Percentage)
	assert.Equal(t, 30, attempt.TimeSpentSeconds)

	_, err = svc.SubmitAttempt(ctx, 5, []string{"a", "b", "c"}, 0)
	requireAppError(t, err, errors.ErrCodeValidation)
}

func TestQuizService_SubmitAttemptUnknownQuiz(t *testing.T) {
	svc, quizzes, _ := newTestQuizService()
	quizzes.On("Get", mock.Anything, int64(8)).Return(nil, sql.ErrNoRows)

	_, err := svc.SubmitAttempt(context.Background(), 8, nil, 0)
	requireAppError(t, err, errors.ErrCodeNotFound)
}

func TestQuizService_GradeAnswer(t *testing.T) {
	svc, _, _ := newTestQuizService()

	g := svc.GradeAnswer(context.Background(), "the mitochondria", "Mitochondria")
	assert.True(t, g.IsCorrect)
	assert.Equal(t, 0.9, g.Similarity)

	g = svc.GradeAnswer(context.Background(), "", "Mitochondria")
	assert.False(t, g.IsCorrect)
}
