package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

type quizRepository struct {
	db *sql.DB
}

// NewQuizRepository creates a new QuizRepository implementation
func NewQuizRepository(db *sql.DB) repository.QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) Insert(ctx context.Context, q models.Quiz) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")
	log.Debug("inserting quiz: title=%s, questions=%d", q.Title, len(q.Questions))

	var quizID int64
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		var deckID sql.NullInt64
		if q.DeckID != nil {
			deckID = sql.NullInt64{Int64: *q.DeckID, Valid: true}
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO quizzes (title, subject, deck_id) VALUES (?, ?, ?)`,
			q.Title, q.Subject, deckID)
		if err != nil {
			log.Error("failed to insert quiz: %v", err)
			return err
		}
		quizID, err = res.LastInsertId()
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO quiz_questions (quiz_id, position, type, prompt, correct_answer, options)
VALUES (?, ?, ?, ?, ?, ?)
`)
		if err != nil {
			log.Error("failed to prepare question insert: %v", err)
			return err
		}
		defer stmt.Close()

		for i, question := range q.Questions {
			options := question.Options
			if options == nil {
				options = []string{}
			}
			raw, err := json.Marshal(options)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, quizID, i, question.Type, question.Prompt, question.CorrectAnswer, string(raw)); err != nil {
				log.Error("failed to insert question %d: %v", i, err)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	log.Debug("quiz inserted: id=%d", quizID)
	return quizID, nil
}

func (r *quizRepository) Get(ctx context.Context, id int64) (*models.Quiz, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")
	log.Debug("getting quiz: id=%d", id)

	var q models.Quiz
	var deckID sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT id, title, subject, deck_id, created_at FROM quizzes WHERE id = ?`, id).
		Scan(&q.ID, &q.Title, &q.Subject, &deckID, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("quiz not found: id=%d", id)
		} else {
			log.Error("failed to get quiz: %v", err)
		}
		return nil, err
	}
	if deckID.Valid {
		q.DeckID = &deckID.Int64
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, quiz_id, position, type, prompt, correct_answer, options
FROM quiz_questions
WHERE quiz_id = ?
ORDER BY position
`, id)
	if err != nil {
		log.Error("failed to query questions: %v", err)
		return nil, err
	}
	defer rows.Close()

	q.Questions = []models.QuizQuestion{}
	for rows.Next() {
		var question models.QuizQuestion
		var options string
		if err := rows.Scan(&question.ID, &question.QuizID, &question.Position, &question.Type, &question.Prompt, &question.CorrectAnswer, &options); err != nil {
			log.Error("failed to scan question row: %v", err)
			return nil, err
		}
		if err := json.Unmarshal([]byte(options), &question.Options); err != nil {
			log.Error("failed to decode options for question %d: %v", question.ID, err)
			return nil, err
		}
		if len(question.Options) == 0 {
			question.Options = nil
		}
		q.Questions = append(q.Questions, question)
	}
	return &q, rows.Err()
}

func (r *quizRepository) SaveQuizAttempt(ctx context.Context, a models.QuizAttempt) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")
	log.Debug("saving quiz attempt: quiz_id=%d, score=%d/%d", a.QuizID, a.Score, a.TotalQuestions)

	answers := a.Answers
	if answers == nil {
		answers = []models.QuizAnswer{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO quiz_attempts (quiz_id, score, total_questions, percentage, answers, time_spent_seconds, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, a.QuizID, a.Score, a.TotalQuestions, a.Percentage, string(raw), a.TimeSpentSeconds, dbTime(a.CompletedAt))
	if err != nil {
		log.Error("failed to insert quiz attempt: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *quizRepository) ListAttempts(ctx context.Context, quizID int64) ([]models.QuizAttempt, error) {
	log := logger.FromContext(ctx).WithPrefix("quiz_repo")
	log.Debug("listing quiz attempts: quiz_id=%d", quizID)

	rows, err := r.db.QueryContext(ctx, `
SELECT id, quiz_id, score, total_questions, percentage, answers, time_spent_seconds, completed_at
FROM quiz_attempts
WHERE quiz_id = ?
ORDER BY completed_at DESC, id DESC
`, quizID)
	if err != nil {
		log.Error("failed to list quiz attempts: %v", err)
		return nil, err
	}
	defer rows.Close()

	attempts := []models.QuizAttempt{}
	for rows.Next() {
		var a models.QuizAttempt
		var answers string
		if err := rows.Scan(&a.ID, &a.QuizID, &a.Score, &a.TotalQuestions, &a.Percentage, &answers, &a.TimeSpentSeconds, &a.CompletedAt); err != nil {
			log.Error("failed to scan quiz attempt row: %v", err)
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
			log.Error("failed to decode answers for attempt %d: %v", a.ID, err)
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
