package models

import "time"

// Activity is a schedulable block on a calendar day. StartTime is "HH:MM"
// and may be empty for all-day or unscheduled items.
type Activity struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Date            string    `json:"date"`
	StartTime       string    `json:"start_time,omitempty"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
