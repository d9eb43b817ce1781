package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyflash/internal/assignment"
)

// MockAssignmentParser is a mock implementation of assignment.Parser
type MockAssignmentParser struct {
	mock.Mock
}

func (m *MockAssignmentParser) Parse(ctx context.Context, text string) (assignment.StructuredAssignment, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(assignment.StructuredAssignment), args.Error(1)
}
