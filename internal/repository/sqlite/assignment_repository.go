package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

var assignmentColumns = []string{
	"id", "title", "subject", "due_date", "priority", "time_estimate_minutes", "completed", "completed_at", "created_at",
}

type assignmentRepository struct {
	db *sql.DB
}

// NewAssignmentRepository creates a new AssignmentRepository implementation
func NewAssignmentRepository(db *sql.DB) repository.AssignmentRepository {
	return &assignmentRepository{db: db}
}

func scanAssignment(row rowScanner) (models.Assignment, error) {
	var a models.Assignment
	var due, completedAt sql.NullTime
	err := row.Scan(&a.ID, &a.Title, &a.Subject, &due, &a.Priority, &a.TimeEstimateMinutes, &a.Completed, &completedAt, &a.CreatedAt)
	a.DueDate = timePtr(due)
	a.CompletedAt = timePtr(completedAt)
	return a, err
}

func (r *assignmentRepository) Insert(ctx context.Context, a models.Assignment) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("assignment_repo")
	log.Debug("inserting assignment: title=%s, priority=%s", a.Title, a.Priority)

	if a.Priority == "" {
		a.Priority = models.PriorityMedium
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO assignments (title, subject, due_date, priority, time_estimate_minutes, completed, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, a.Title, a.Subject, nullTime(a.DueDate), a.Priority, a.TimeEstimateMinutes, a.Completed, nullTime(a.CompletedAt))
	if err != nil {
		log.Error("failed to insert assignment: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *assignmentRepository) Get(ctx context.Context, id int64) (*models.Assignment, error) {
	log := logger.FromContext(ctx).WithPrefix("assignment_repo")
	log.Debug("getting assignment: id=%d", id)

	query, args, err := sqlBuilder.Select(assignmentColumns...).From("assignments").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	a, err := scanAssignment(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("assignment not found: id=%d", id)
		} else {
			log.Error("failed to get assignment: %v", err)
		}
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	log := logger.FromContext(ctx).WithPrefix("assignment_repo")
	log.Debug("listing assignments: subject=%s, completed=%v", filter.Subject, filter.Completed)

	query := sqlBuilder.Select(assignmentColumns...).From("assignments")
	if filter.Subject != "" {
		query = query.Where(squirrel.Eq{"subject": filter.Subject})
	}
	if filter.Completed != nil {
		query = query.Where(squirrel.Eq{"completed": *filter.Completed})
	}
	// undated assignments sort after dated ones
	query = query.OrderBy("due_date IS NULL", "due_date", "id")

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list assignments: %v", err)
		return nil, err
	}
	defer rows.Close()

	assignments := []models.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			log.Error("failed to scan assignment row: %v", err)
			return nil, err
		}
		assignments = append(assignments, a)
	}
	log.Debug("found %d assignments", len(assignments))
	return assignments, rows.Err()
}

func (r *assignmentRepository) SetCompleted(ctx context.Context, id int64, completedAt time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("assignment_repo")
	log.Debug("completing assignment: id=%d", id)

	res, err := r.db.ExecContext(ctx, `UPDATE assignments SET completed = 1, completed_at = ? WHERE id = ?`,
		dbTime(completedAt), id)
	if err != nil {
		log.Error("failed to complete assignment: %v", err)
		return err
	}
	return affectedOne(res)
}
