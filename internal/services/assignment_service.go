package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/vytor/studyflash/internal/assignment"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/llm"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/metrics"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
)

const maxAssignmentMinutes = 7 * 24 * 60

// AssignmentService handles assignments and free text parsing
type AssignmentService interface {
	Parse(ctx context.Context, text string) (*assignment.StructuredAssignment, error)
	Create(ctx context.Context, a models.Assignment) (*models.Assignment, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	Complete(ctx context.Context, id int64) (*models.Assignment, error)
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	parser         assignment.Parser
	metrics        *metrics.Metrics
	now            func() time.Time
}

// NewAssignmentService creates a new AssignmentService. parser may be nil
// when no language model is configured; Parse then reports UNAVAILABLE.
func NewAssignmentService(assignmentRepo repository.AssignmentRepository, parser assignment.Parser) AssignmentService {
	return &assignmentService{assignmentRepo: assignmentRepo, parser: parser, metrics: metrics.Get(), now: time.Now}
}

func (s *assignmentService) Parse(ctx context.Context, text string) (*assignment.StructuredAssignment, error) {
	log := logger.FromContext(ctx).WithPrefix("assignment")
	log.Debug("parsing assignment text: %d chars", len(text))

	if s.parser == nil {
		s.metrics.AssignmentParses.WithLabelValues("disabled").Inc()
		return nil, errors.NewUnavailableError("assignment parsing is not configured", llm.ErrDisabled)
	}

	parsed, err := s.parser.Parse(ctx, text)
	if err != nil {
		status, appErr := parseError(err)
		s.metrics.AssignmentParses.WithLabelValues(status).Inc()
		log.Warn("assignment parse failed (%s): %v", status, err)
		return nil, appErr
	}
	s.metrics.AssignmentParses.WithLabelValues("ok").Inc()
	return &parsed, nil
}

func parseError(err error) (string, error) {
	var (
		rateLimit   *llm.ErrRateLimit
		unavailable *llm.ErrProviderUnavailable
		invalid     *llm.ErrInvalidResponse
		truncated   *llm.ErrMaxTokensExceeded
	)
	switch {
	case stderrors.Is(err, assignment.ErrEmptyInput):
		return "empty", errors.NewValidationError("text", "cannot be empty")
	case stderrors.Is(err, assignment.ErrNoTitle):
		return "no_title", errors.NewValidationError("text", "no assignment title could be found")
	case stderrors.As(err, &rateLimit):
		return "rate_limited", errors.NewRateLimitedError("assignment parser is rate limited, try again later")
	case stderrors.As(err, &unavailable), stderrors.Is(err, context.DeadlineExceeded):
		return "unavailable", errors.NewUnavailableError("assignment parser is unavailable", err)
	case stderrors.As(err, &invalid), stderrors.As(err, &truncated):
		return "invalid", errors.NewUnavailableError("assignment parser returned an unusable answer", err)
	}
	return "error", errors.NewInternalError(err)
}

func (s *assignmentService) Create(ctx context.Context, a models.Assignment) (*models.Assignment, error) {
	log := logger.FromContext(ctx).WithPrefix("assignment")
	log.Debug("creating assignment: title=%s", a.Title)

	a.Title = strings.TrimSpace(a.Title)
	a.Subject = strings.TrimSpace(a.Subject)
	if a.Title == "" {
		return nil, errors.NewValidationError("title", "cannot be empty")
	}
	if a.Priority == "" {
		a.Priority = models.PriorityMedium
	}
	if !a.Priority.Valid() {
		return nil, errors.NewValidationError("priority", "must be low, medium or high")
	}
	if a.TimeEstimateMinutes < 0 || a.TimeEstimateMinutes > maxAssignmentMinutes {
		return nil, errors.NewValidationError("time_estimate_minutes", "must be between 0 and 10080")
	}
	a.Completed = false
	a.CompletedAt = nil

	id, err := s.assignmentRepo.Insert(ctx, a)
	if err != nil {
		log.Error("failed to insert assignment: %v", err)
		return nil, errors.NewInternalError(err)
	}
	created, err := s.assignmentRepo.Get(ctx, id)
	if err != nil {
		return nil, repoError(log, err, "assignment", id)
	}
	return created, nil
}

func (s *assignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	log := logger.FromContext(ctx).WithPrefix("assignment")

	assignments, err := s.assignmentRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list assignments: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return assignments, nil
}

func (s *assignmentService) Complete(ctx context.Context, id int64) (*models.Assignment, error) {
	log := logger.FromContext(ctx).WithPrefix("assignment")
	log.Debug("completing assignment: id=%d", id)

	if err := s.assignmentRepo.SetCompleted(ctx, id, s.now()); err != nil {
		return nil, repoError(log, err, "assignment", id)
	}
	a, err := s.assignmentRepo.Get(ctx, id)
	if err != nil {
		return nil, repoError(log, err, "assignment", id)
	}
	return a, nil
}
