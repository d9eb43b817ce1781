package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyflash/internal/models"
)

// MockAssignmentRepository is a mock implementation of repository.AssignmentRepository
type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) Insert(ctx context.Context, assignment models.Assignment) (int64, error) {
	args := m.Called(ctx, assignment)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAssignmentRepository) Get(ctx context.Context, id int64) (*models.Assignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) SetCompleted(ctx context.Context, id int64, completedAt time.Time) error {
	args := m.Called(ctx, id, completedAt)
	return args.Error(0)
}
