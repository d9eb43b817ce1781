package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

const hourBucketLayout = "2006-01-02 15:04:05"

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new ReviewRepository implementation
func NewReviewRepository(db *sql.DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

// StudyDays buckets reviews by UTC hour so callers can fold them into
// calendar days in their own time zone.
func (r *reviewRepository) StudyDays(ctx context.Context) ([]time.Time, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("fetching study days")

	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT strftime('%Y-%m-%d %H:00:00', reviewed_at) AS bucket
FROM review_history
ORDER BY bucket
`)
	if err != nil {
		log.Error("failed to query study days: %v", err)
		return nil, err
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var bucket string
		if err := rows.Scan(&bucket); err != nil {
			log.Error("failed to scan study day: %v", err)
			return nil, err
		}
		t, err := time.ParseInLocation(hourBucketLayout, bucket, time.UTC)
		if err != nil {
			log.Warn("skipping unparseable review time %q: %v", bucket, err)
			continue
		}
		days = append(days, t)
	}
	log.Debug("found %d study buckets", len(days))
	return days, rows.Err()
}

func (r *reviewRepository) ListByCard(ctx context.Context, cardID int64) ([]models.ReviewHistory, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("listing reviews: card_id=%d", cardID)

	rows, err := r.db.QueryContext(ctx, `
SELECT id, card_id, rating, time_seconds, reviewed_at
FROM review_history
WHERE card_id = ?
ORDER BY reviewed_at, id
`, cardID)
	if err != nil {
		log.Error("failed to list reviews: %v", err)
		return nil, err
	}
	defer rows.Close()

	history := []models.ReviewHistory{}
	for rows.Next() {
		var h models.ReviewHistory
		if err := rows.Scan(&h.ID, &h.CardID, &h.Rating, &h.TimeSeconds, &h.ReviewedAt); err != nil {
			log.Error("failed to scan review row: %v", err)
			return nil, err
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
