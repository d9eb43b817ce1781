package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
	"github.com/vytor/studyflash/internal/repository/sqlite"
	"github.com/vytor/studyflash/internal/testutil"
)

type QuizRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.QuizRepository
}

func (s *QuizRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewQuizRepository(s.db)
}

func (s *QuizRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *QuizRepositorySuite) TestInsertAndGet() {
	ctx := context.Background()

	id, err := s.repo.Insert(ctx, models.Quiz{
		Title:   "Planets",
		Subject: "Astronomy",
		Questions: []models.QuizQuestion{
			{Type: models.QuestionMultipleChoice, Prompt: "Largest?", CorrectAnswer: "Jupiter", Options: []string{"Mars", "Jupiter"}},
			{Type: models.QuestionShortAnswer, Prompt: "Closest star?", CorrectAnswer: "The Sun"},
		},
	})
	s.Require().NoError(err)

	quiz, err := s.repo.Get(ctx, id)
	s.Require().NoError(err)
	s.Assert().Equal("Planets", quiz.Title)
	s.Assert().Nil(quiz.DeckID)
	s.Require().Len(quiz.Questions, 2)
	s.Assert().Equal([]string{"Mars", "Jupiter"}, quiz.Questions[0].Options)
	s.Assert().Equal(0, quiz.Questions[0].Position)
	s.Assert().Nil(quiz.Questions[1].Options)
	s.Assert().Equal(id, quiz.Questions[1].QuizID)

	_, err = s.repo.Get(ctx, id+100)
	s.Assert().ErrorIs(err, sql.ErrNoRows)
}

func (s *QuizRepositorySuite) TestAttempts() {
	ctx := context.Background()

	id, err := s.repo.Insert(ctx, models.Quiz{Title: "Empty"})
	s.Require().NoError(err)

	similarity := 0.75
	first := models.QuizAttempt{
		QuizID: id, Score: 1, TotalQuestions: 2, Percentage: 50,
		Answers:     []models.QuizAnswer{{QuestionID: 1, Answer: "sun", IsCorrect: true, Similarity: &similarity}},
		CompletedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	second := first
	second.Score = 2
	second.Percentage = 100
	second.CompletedAt = first.CompletedAt.Add(time.Hour)

	_, err = s.repo.SaveQuizAttempt(ctx, first)
	s.Require().NoError(err)
	_, err = s.repo.SaveQuizAttempt(ctx, second)
	s.Require().NoError(err)

	attempts, err := s.repo.ListAttempts(ctx, id)
	s.Require().NoError(err)
	s.Require().Len(attempts, 2)
	s.Assert().Equal(2, attempts[0].Score, "newest first")
	s.Require().Len(attempts[1].Answers, 1)
	s.Require().NotNil(attempts[1].Answers[0].Similarity)
	s.Assert().Equal(0.75, *attempts[1].Answers[0].Similarity)
}

func TestQuizRepositorySuite(t *testing.T) {
	suite.Run(t, new(QuizRepositorySuite))
}
