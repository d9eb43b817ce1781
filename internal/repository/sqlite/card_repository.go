package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

var cardColumns = []string{
	"id", "deck_id", "front", "back", "hint", "difficulty", "repetition_count", "ease_factor",
	"interval_days", "next_review_date", "last_reviewed_at", "times_reviewed", "times_correct", "created_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (models.Card, error) {
	var c models.Card
	var lastReviewed sql.NullTime
	err := row.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.Hint, &c.Difficulty, &c.RepetitionCount, &c.EaseFactor,
		&c.IntervalDays, &c.NextReviewDate, &lastReviewed, &c.TimesReviewed, &c.TimesCorrect, &c.CreatedAt)
	c.LastReviewedAt = timePtr(lastReviewed)
	return c, err
}

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Insert(ctx context.Context, c models.Card) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting card: deck_id=%d", c.DeckID)

	if c.EaseFactor == 0 {
		c.EaseFactor = flashcard.DefaultEaseFactor
	}
	if c.Difficulty == "" {
		c.Difficulty = models.DifficultyMedium
	}
	if c.NextReviewDate.IsZero() {
		c.NextReviewDate = time.Now()
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO cards (deck_id, front, back, hint, difficulty, repetition_count, ease_factor, interval_days,
                   next_review_date, last_reviewed_at, times_reviewed, times_correct)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, c.DeckID, c.Front, c.Back, c.Hint, c.Difficulty, c.RepetitionCount, c.EaseFactor, c.IntervalDays,
		dbTime(c.NextReviewDate), nullTime(c.LastReviewedAt), c.TimesReviewed, c.TimesCorrect)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get card id: %v", err)
		return 0, err
	}
	log.Debug("card inserted: id=%d", id)
	return id, nil
}

func (r *cardRepository) Get(ctx context.Context, id int64) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("getting card: id=%d", id)

	query, args, err := sqlBuilder.Select(cardColumns...).From("cards").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	c, err := scanCard(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found: id=%d", id)
		} else {
			log.Error("failed to get card: %v", err)
		}
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) ListByDeck(ctx context.Context, deckID int64) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing cards: deck_id=%d", deckID)

	return r.list(ctx, sqlBuilder.Select(cardColumns...).From("cards").
		Where(squirrel.Eq{"deck_id": deckID}).
		OrderBy("id"))
}

func (r *cardRepository) LoadDueCards(ctx context.Context, deckID *int64, asOf time.Time) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("loading due cards: as_of=%s", asOf.Format(time.DateOnly))

	query := sqlBuilder.Select(cardColumns...).From("cards").
		Where(squirrel.LtOrEq{"next_review_date": dbTime(flashcard.EndOfDay(asOf))})
	if deckID != nil {
		query = query.Where(squirrel.Eq{"deck_id": *deckID})
	}
	cards, err := r.list(ctx, query.OrderBy("next_review_date", "id"))
	if err != nil {
		return nil, err
	}
	log.Debug("found %d due cards", len(cards))
	return cards, nil
}

func (r *cardRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *cardRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("deleting card: id=%d", id)

	res, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete card: %v", err)
		return err
	}
	return affectedOne(res)
}

func (r *cardRepository) SaveCardReview(ctx context.Context, cardID int64, review flashcard.Review) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("saving review: card_id=%d, rating=%d, interval=%d, ease=%.2f",
		cardID, review.Rating, review.Schedule.IntervalDays, review.Schedule.EaseFactor)

	correct := 0
	if review.Rating.Passed() {
		correct = 1
	}
	reviewedAt := dbTime(review.ReviewedAt)

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		// A late retry must not roll back a schedule written by a newer review.
		res, err := tx.ExecContext(ctx, `
UPDATE cards
SET repetition_count = ?, ease_factor = ?, interval_days = ?, next_review_date = ?, last_reviewed_at = ?,
    times_reviewed = times_reviewed + 1, times_correct = times_correct + ?
WHERE id = ? AND (last_reviewed_at IS NULL OR last_reviewed_at <= ?)
`, review.Schedule.RepetitionCount, review.Schedule.EaseFactor, review.Schedule.IntervalDays,
			dbTime(review.Schedule.NextReviewDate), reviewedAt, correct, cardID, reviewedAt)
		if err != nil {
			log.Error("failed to update card schedule: %v", err)
			return err
		}
		if err := affectedOne(res); err != nil {
			// Either the card is gone or a newer review already set its
			// schedule. Stale reviews still count and stay in the history.
			res, err = tx.ExecContext(ctx, `
UPDATE cards
SET times_reviewed = times_reviewed + 1, times_correct = times_correct + ?
WHERE id = ?
`, correct, cardID)
			if err != nil {
				log.Error("failed to update card counters: %v", err)
				return err
			}
			if err := affectedOne(res); err != nil {
				log.Warn("review for missing card: card_id=%d", cardID)
				return err
			}
			log.Info("stale review for card %d kept in history only (reviewed_at=%s)", cardID, reviewedAt.Format(time.RFC3339))
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO review_history (card_id, rating, time_seconds, reviewed_at)
VALUES (?, ?, ?, ?)
`, cardID, int(review.Rating), review.TimeSeconds, reviewedAt); err != nil {
			log.Error("failed to insert review history: %v", err)
			return err
		}
		return nil
	})
}
