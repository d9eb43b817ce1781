package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/metrics"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/quiz"
	"github.com/vytor/studyflash/internal/repository"
)

// QuizService handles quizzes, free text grading and attempts
type QuizService interface {
	CreateQuiz(ctx context.Context, q models.Quiz) (*models.Quiz, error)
	GetQuiz(ctx context.Context, id int64) (*models.Quiz, error)
	GradeAnswer(ctx context.Context, answer, reference string) quiz.Grade
	SubmitAttempt(ctx context.Context, quizID int64, answers []string, timeSpent time.Duration) (*models.QuizAttempt, error)
	ListAttempts(ctx context.Context, quizID int64) ([]models.QuizAttempt, error)
}

type quizService struct {
	quizRepo repository.QuizRepository
	deckRepo repository.DeckRepository
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewQuizService creates a new QuizService
func NewQuizService(quizRepo repository.QuizRepository, deckRepo repository.DeckRepository) QuizService {
	return &quizService{quizRepo: quizRepo, deckRepo: deckRepo, metrics: metrics.Get(), now: time.Now}
}

func (s *quizService) CreateQuiz(ctx context.Context, q models.Quiz) (*models.Quiz, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz")
	log.Debug("creating quiz: title=%s, questions=%d", q.Title, len(q.Questions))

	q.Title = strings.TrimSpace(q.Title)
	if q.Title == "" {
		return nil, errors.NewValidationError("title", "cannot be empty")
	}
	if len(q.Questions) == 0 {
		return nil, errors.NewValidationError("questions", "at least one question is required")
	}
	for i, question := range q.Questions {
		if err := quiz.Validate(question); err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("questions[%d]", i), err.Error())
		}
	}
	if q.DeckID != nil {
		if _, err := s.deckRepo.Get(ctx, *q.DeckID); err != nil {
			return nil, repoError(log, err, "deck", *q.DeckID)
		}
	}

	id, err := s.quizRepo.Insert(ctx, q)
	if err != nil {
		log.Error("failed to insert quiz: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return s.GetQuiz(ctx, id)
}

func (s *quizService) GetQuiz(ctx context.Context, id int64) (*models.Quiz, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz")
	log.Debug("getting quiz: id=%d", id)

	q, err := s.quizRepo.Get(ctx, id)
	if err != nil {
		return nil, repoError(log, err, "quiz", id)
	}
	return q, nil
}

func (s *quizService) GradeAnswer(ctx context.Context, answer, reference string) quiz.Grade {
	g := quiz.GradeAnswer(answer, reference)
	s.metrics.AnswersGradedTotal.WithLabelValues(strconv.FormatBool(g.IsCorrect)).Inc()
	logger.FromContext(ctx).WithPrefix("quiz").Debug("graded answer: correct=%t, similarity=%.2f", g.IsCorrect, g.Similarity)
	return g
}

func (s *quizService) SubmitAttempt(ctx context.Context, quizID int64, answers []string, timeSpent time.Duration) (*models.QuizAttempt, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz")
	log.Debug("submitting attempt: quiz_id=%d, answers=%d", quizID, len(answers))

	if timeSpent < 0 {
		return nil, errors.NewValidationError("time_spent_seconds", "cannot be negative")
	}

	q, err := s.quizRepo.Get(ctx, quizID)
	if err != nil {
		return nil, repoError(log, err, "quiz", quizID)
	}
	if len(answers) > len(q.Questions) {
		return nil, errors.NewValidationError("answers", fmt.Sprintf("quiz has only %d questions", len(q.Questions)))
	}

	attempt := quiz.Score(q.Questions, answers, timeSpent)
	attempt.QuizID = quizID
	attempt.CompletedAt = s.now()
	for _, a := range attempt.Answers {
		s.metrics.AnswersGradedTotal.WithLabelValues(strconv.FormatBool(a.IsCorrect)).Inc()
	}

	id, err := s.quizRepo.SaveQuizAttempt(ctx, attempt)
	if err != nil {
		log.Error("failed to save attempt: %v", err)
		return nil, errors.NewInternalError(err)
	}
	attempt.ID = id
	log.Info("quiz %d attempt scored %d/%d", quizID, attempt.Score, attempt.TotalQuestions)
	return &attempt, nil
}

func (s *quizService) ListAttempts(ctx context.Context, quizID int64) ([]models.QuizAttempt, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz")

	if _, err := s.quizRepo.Get(ctx, quizID); err != nil {
		return nil, repoError(log, err, "quiz", quizID)
	}
	attempts, err := s.quizRepo.ListAttempts(ctx, quizID)
	if err != nil {
		log.Error("failed to list attempts: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return attempts, nil
}
