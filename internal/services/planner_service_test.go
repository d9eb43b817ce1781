package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/planner"
	"github.com/vytor/studyflash/internal/testutil/mocks"
)

func newTestPlannerService() (PlannerService, *mocks.MockActivityRepository) {
	repo := new(mocks.MockActivityRepository)
	return NewPlannerService(repo), repo
}

func lecture() models.Activity {
	return models.Activity{ID: 1, Title: "lecture", Date: "2025-03-10", StartTime: "09:00", DurationMinutes: 90}
}

func TestPlannerService_AddActivityRejectsConflicts(t *testing.T) {
	svc, repo := newTestPlannerService()
	ctx := context.Background()
	repo.On("ListByDate", mock.Anything, "2025-03-10").Return([]models.Activity{lecture()}, nil)

	res, err := svc.AddActivity(ctx, models.Activity{Title: "gym", Date: "2025-03-10", StartTime: "10:00", DurationMinutes: 60}, false)
	require.NoError(t, err)
	assert.Nil(t, res.Activity)
	require.Len(t, res.Report.Conflicts, 1)
	assert.Equal(t, planner.SeverityMajor, res.Report.Conflicts[0].Severity)
	assert.NotEmpty(t, res.Report.Suggestions)
	repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestPlannerService_AddActivityForced(t *testing.T) {
	svc, repo := newTestPlannerService()
	ctx := context.Background()
	repo.On("ListByDate", mock.Anything, "2025-03-10").Return([]models.Activity{lecture()}, nil)
	repo.On("Insert", mock.Anything, mock.MatchedBy(func(a models.Activity) bool {
		return a.Title == "gym" && a.StartTime == "09:05"
	})).Return(int64(2), nil)

	res, err := svc.AddActivity(ctx, models.Activity{Title: " gym ", Date: "2025-03-10", StartTime: "9:05"}, true)
	require.NoError(t, err)
	require.NotNil(t, res.Activity)
	assert.Equal(t, int64(2), res.Activity.ID)
	assert.True(t, res.Report.HasConflicts())
}

func TestPlannerService_Validation(t *testing.T) {
	svc, _ := newTestPlannerService()
	ctx := context.Background()

	bad := []models.Activity{
		{Date: "2025-03-10"},
		{Title: "x", Date: "10/03/2025"},
		{Title: "x", Date: "2025-03-10", StartTime: "25:00"},
		{Title: "x", Date: "2025-03-10", DurationMinutes: -5},
	}
	for _, a := range bad {
		_, err := svc.AddActivity(ctx, a, false)
		requireAppError(t, err, errors.ErrCodeValidation)
	}

	_, err := svc.ListActivities(ctx, "tomorrow")
	requireAppError(t, err, errors.ErrCodeValidation)
}

func TestPlannerService_CheckConflictsWithoutTitle(t *testing.T) {
	svc, repo := newTestPlannerService()
	repo.On("ListByDate", mock.Anything, "2025-03-10").Return([]models.Activity{lecture()}, nil)

	report, err := svc.CheckConflicts(context.Background(), models.Activity{Date: "2025-03-10", StartTime: "08:30", DurationMinutes: 60})
	require.NoError(t, err)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, 30, report.Conflicts[0].OverlapMinutes)
}

func TestPlannerService_DeleteActivityNotFound(t *testing.T) {
	svc, repo := newTestPlannerService()
	repo.On("Delete", mock.Anything, int64(9)).Return(sql.ErrNoRows)

	requireAppError(t, svc.DeleteActivity(context.Background(), 9), errors.ErrCodeNotFound)
}
