package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

const publicIDLength = 12

type deckRepository struct {
	db *sql.DB
}

// NewDeckRepository creates a new DeckRepository implementation
func NewDeckRepository(db *sql.DB) repository.DeckRepository {
	return &deckRepository{db: db}
}

func (r *deckRepository) Insert(ctx context.Context, d models.Deck) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("inserting deck: name=%s", d.Name)

	publicID, err := gonanoid.New(publicIDLength)
	if err != nil {
		log.Error("failed to generate public id: %v", err)
		return nil, err
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO decks (public_id, name, subject, description)
VALUES (?, ?, ?, ?)
`, publicID, d.Name, d.Subject, d.Description)
	if err != nil {
		log.Error("failed to insert deck: %v", err)
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get deck id: %v", err)
		return nil, err
	}
	log.Debug("deck inserted: id=%d, public_id=%s", id, publicID)
	return r.Get(ctx, id)
}

func deckQuery() squirrel.SelectBuilder {
	return sqlBuilder.Select(
		"d.id", "d.public_id", "d.name", "d.subject", "d.description",
		"(SELECT COUNT(*) FROM cards c WHERE c.deck_id = d.id)", "d.created_at",
	).From("decks d")
}

func scanDeck(row rowScanner) (models.Deck, error) {
	var d models.Deck
	err := row.Scan(&d.ID, &d.PublicID, &d.Name, &d.Subject, &d.Description, &d.CardCount, &d.CreatedAt)
	return d, err
}

func (r *deckRepository) getOne(ctx context.Context, where squirrel.Eq) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	query, args, err := deckQuery().Where(where).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	d, err := scanDeck(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("deck not found: %v", where)
		} else {
			log.Error("failed to get deck: %v", err)
		}
		return nil, err
	}
	return &d, nil
}

func (r *deckRepository) Get(ctx context.Context, id int64) (*models.Deck, error) {
	return r.getOne(ctx, squirrel.Eq{"d.id": id})
}

func (r *deckRepository) GetByPublicID(ctx context.Context, publicID string) (*models.Deck, error) {
	return r.getOne(ctx, squirrel.Eq{"d.public_id": publicID})
}

func (r *deckRepository) List(ctx context.Context) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("listing decks")

	query, args, err := deckQuery().OrderBy("d.name", "d.id").ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, err
	}
	defer rows.Close()

	decks := []models.Deck{}
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			log.Error("failed to scan deck row: %v", err)
			return nil, err
		}
		decks = append(decks, d)
	}
	log.Debug("found %d decks", len(decks))
	return decks, rows.Err()
}

func (r *deckRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("deleting deck: id=%d", id)

	res, err := r.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete deck: %v", err)
		return err
	}
	return affectedOne(res)
}

func (r *deckRepository) Stats(ctx context.Context, deckID *int64, asOf time.Time) (*models.DeckStat, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("fetching deck stats: deck_id=%v", deckID)

	dueBy := dbTime(flashcard.EndOfDay(asOf))
	dueSoon := dbTime(flashcard.EndOfDay(asOf.AddDate(0, 0, 7)))

	query := sqlBuilder.Select(
		"COUNT(*)",
		"COALESCE(SUM(times_reviewed), 0)",
		"COUNT(CASE WHEN ease_factor > 2.5 AND interval_days > 30 THEN 1 END)",
		"COUNT(CASE WHEN ease_factor < 2.0 AND times_reviewed > 3 THEN 1 END)",
	).
		Column(squirrel.Expr("COUNT(CASE WHEN next_review_date <= ? THEN 1 END)", dueBy)).
		Column(squirrel.Expr("COUNT(CASE WHEN next_review_date > ? AND next_review_date <= ? THEN 1 END)", dueBy, dueSoon)).
		Column(`CASE
        WHEN SUM(times_reviewed) > 0
        THEN ROUND(100.0 * SUM(times_correct) / SUM(times_reviewed), 1)
        ELSE 0
    END`).
		Column("COALESCE(AVG(ease_factor), 0)").
		Column("COALESCE(AVG(interval_days), 0)").
		From("cards")
	if deckID != nil {
		query = query.Where(squirrel.Eq{"deck_id": *deckID})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	var stat models.DeckStat
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(
		&stat.TotalCards,
		&stat.TotalReviews,
		&stat.CardsMastered,
		&stat.CardsStruggling,
		&stat.CardsDue,
		&stat.CardsDueSoon,
		&stat.OverallAccuracy,
		&stat.AvgEaseFactor,
		&stat.AvgIntervalDays,
	)
	if err != nil {
		log.Error("failed to get deck stats: %v", err)
		return nil, err
	}
	return &stat, nil
}
