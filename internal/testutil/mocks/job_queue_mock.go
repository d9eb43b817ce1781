package mocks

import (
	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyflash/internal/flashcard"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueReviewRetry(cardID int64, review flashcard.Review) error {
	args := m.Called(cardID, review)
	return args.Error(0)
}
