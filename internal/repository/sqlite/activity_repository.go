package sqlite

import (
	"context"
	"database/sql"

	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

type activityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new ActivityRepository implementation
func NewActivityRepository(db *sql.DB) repository.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Insert(ctx context.Context, a models.Activity) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("activity_repo")
	log.Debug("inserting activity: date=%s, start=%s, duration=%d", a.Date, a.StartTime, a.DurationMinutes)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO activities (title, date, start_time, duration_minutes)
VALUES (?, ?, ?, ?)
`, a.Title, a.Date, a.StartTime, a.DurationMinutes)
	if err != nil {
		log.Error("failed to insert activity: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *activityRepository) ListByDate(ctx context.Context, date string) ([]models.Activity, error) {
	log := logger.FromContext(ctx).WithPrefix("activity_repo")
	log.Debug("listing activities: date=%s", date)

	// unscheduled items sort last
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, date, start_time, duration_minutes, created_at
FROM activities
WHERE date = ?
ORDER BY start_time = '', start_time, id
`, date)
	if err != nil {
		log.Error("failed to list activities: %v", err)
		return nil, err
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.Title, &a.Date, &a.StartTime, &a.DurationMinutes, &a.CreatedAt); err != nil {
			log.Error("failed to scan activity row: %v", err)
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (r *activityRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("activity_repo")
	log.Debug("deleting activity: id=%d", id)

	res, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete activity: %v", err)
		return err
	}
	return affectedOne(res)
}
