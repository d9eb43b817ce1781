package models

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Assignment struct {
	ID                  int64      `json:"id"`
	Title               string     `json:"title"`
	Subject             string     `json:"subject"`
	DueDate             *time.Time `json:"due_date,omitempty"`
	Priority            Priority   `json:"priority"`
	TimeEstimateMinutes int        `json:"time_estimate_minutes"`
	Completed           bool       `json:"completed"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

type AssignmentFilter struct {
	Subject   string
	Completed *bool
	Limit     int
	Offset    int
}
