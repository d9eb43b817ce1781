package services

import (
	"context"
	"strings"
	"time"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/metrics"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/planner"
	"github.com/vytor/studyflash/internal/repository"
)

// AddActivityResult carries the conflict report for a new activity.
// Activity is nil when the activity was not saved because of conflicts.
type AddActivityResult struct {
	Activity *models.Activity `json:"activity,omitempty"`
	Report   planner.Report   `json:"report"`
}

// PlannerService handles calendar activities and conflict checks
type PlannerService interface {
	// AddActivity saves the activity unless it conflicts with another one on
	// the same day. force saves it regardless.
	AddActivity(ctx context.Context, activity models.Activity, force bool) (*AddActivityResult, error)
	ListActivities(ctx context.Context, date string) ([]models.Activity, error)
	CheckConflicts(ctx context.Context, activity models.Activity) (*planner.Report, error)
	DeleteActivity(ctx context.Context, id int64) error
}

type plannerService struct {
	activityRepo repository.ActivityRepository
	metrics      *metrics.Metrics
}

// NewPlannerService creates a new PlannerService
func NewPlannerService(activityRepo repository.ActivityRepository) PlannerService {
	return &plannerService{activityRepo: activityRepo, metrics: metrics.Get()}
}

func validateActivity(a *models.Activity, requireTitle bool) error {
	a.Title = strings.TrimSpace(a.Title)
	a.StartTime = strings.TrimSpace(a.StartTime)
	if requireTitle && a.Title == "" {
		return errors.NewValidationError("title", "cannot be empty")
	}
	if _, err := time.Parse(time.DateOnly, a.Date); err != nil {
		return errors.NewValidationError("date", "must be YYYY-MM-DD")
	}
	if a.StartTime != "" {
		m, err := planner.ParseClock(a.StartTime)
		if err != nil {
			return errors.NewValidationError("start_time", "must be HH:MM")
		}
		a.StartTime = planner.FormatClock(m)
	}
	if a.DurationMinutes < 0 || a.DurationMinutes > 24*60 {
		return errors.NewValidationError("duration_minutes", "must be between 0 and 1440")
	}
	return nil
}

func (s *plannerService) check(ctx context.Context, a models.Activity) (planner.Report, error) {
	log := logger.FromContext(ctx).WithPrefix("planner")

	existing, err := s.activityRepo.ListByDate(ctx, a.Date)
	if err != nil {
		log.Error("failed to list activities: %v", err)
		return planner.Report{}, errors.NewInternalError(err)
	}

	report := planner.DetectConflicts(a, existing)
	outcome := "clear"
	if report.HasConflicts() {
		outcome = "conflict"
	}
	s.metrics.ConflictChecksTotal.WithLabelValues(outcome).Inc()
	log.Debug("conflict check on %s: %d conflicts, %d suggestions", a.Date, len(report.Conflicts), len(report.Suggestions))
	return report, nil
}

func (s *plannerService) AddActivity(ctx context.Context, a models.Activity, force bool) (*AddActivityResult, error) {
	log := logger.FromContext(ctx).WithPrefix("planner")
	log.Debug("adding activity: date=%s, start=%s, force=%t", a.Date, a.StartTime, force)

	if err := validateActivity(&a, true); err != nil {
		return nil, err
	}
	a.ID = 0

	report, err := s.check(ctx, a)
	if err != nil {
		return nil, err
	}
	if report.HasConflicts() && !force {
		log.Info("activity %q on %s not saved: %d conflicts", a.Title, a.Date, len(report.Conflicts))
		return &AddActivityResult{Report: report}, nil
	}

	id, err := s.activityRepo.Insert(ctx, a)
	if err != nil {
		log.Error("failed to insert activity: %v", err)
		return nil, errors.NewInternalError(err)
	}
	a.ID = id
	a.CreatedAt = time.Now()
	return &AddActivityResult{Activity: &a, Report: report}, nil
}

func (s *plannerService) ListActivities(ctx context.Context, date string) ([]models.Activity, error) {
	log := logger.FromContext(ctx).WithPrefix("planner")

	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, errors.NewValidationError("date", "must be YYYY-MM-DD")
	}
	activities, err := s.activityRepo.ListByDate(ctx, date)
	if err != nil {
		log.Error("failed to list activities: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return activities, nil
}

func (s *plannerService) CheckConflicts(ctx context.Context, a models.Activity) (*planner.Report, error) {
	if err := validateActivity(&a, false); err != nil {
		return nil, err
	}
	report, err := s.check(ctx, a)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *plannerService) DeleteActivity(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("planner")
	log.Debug("deleting activity: id=%d", id)

	if err := s.activityRepo.Delete(ctx, id); err != nil {
		return repoError(log, err, "activity", id)
	}
	return nil
}
