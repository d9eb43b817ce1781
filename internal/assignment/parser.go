package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vytor/studyflash/internal/llm"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

const (
	dateLayout = "2006-01-02"

	maxInputLength       = 2000
	maxTimeEstimate      = 7 * 24 * 60
	defaultMaxTokens     = 512
	defaultParserTimeout = 20 * time.Second
)

var (
	ErrEmptyInput = errors.New("assignment text is empty")
	ErrNoTitle    = errors.New("parsed assignment has no title")
)

// StructuredAssignment is what a Parser extracts from free text.
type StructuredAssignment struct {
	Title               string          `json:"title"`
	Subject             string          `json:"subject"`
	DueDate             *time.Time      `json:"due_date,omitempty"`
	Priority            models.Priority `json:"priority"`
	TimeEstimateMinutes int             `json:"time_estimate_minutes"`
}

// ToModel converts the parse result into an assignment ready to insert.
func (s StructuredAssignment) ToModel() models.Assignment {
	return models.Assignment{
		Title:               s.Title,
		Subject:             s.Subject,
		DueDate:             s.DueDate,
		Priority:            s.Priority,
		TimeEstimateMinutes: s.TimeEstimateMinutes,
	}
}

// Parser turns a free-form description ("essay for hist due friday, ~2h")
// into a StructuredAssignment.
type Parser interface {
	Parse(ctx context.Context, text string) (StructuredAssignment, error)
}

// rawAssignment mirrors the JSON schema sent to the model.
type rawAssignment struct {
	Title               string `json:"title"`
	Subject             string `json:"subject"`
	DueDate             string `json:"due_date"`
	Priority            string `json:"priority"`
	TimeEstimateMinutes int    `json:"time_estimate_minutes"`
}

var Schema = &llm.Schema{
	Name:        "structured-assignment",
	Description: "A homework assignment extracted from a student's note",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Short title of the task, without the due date",
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Course or subject, empty when not mentioned",
			},
			"due_date": map[string]any{
				"type":        "string",
				"description": "Due date as YYYY-MM-DD, empty when not mentioned",
			},
			"priority": map[string]any{
				"type": "string",
				"enum": []any{"low", "medium", "high"},
			},
			"time_estimate_minutes": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"description": "Estimated effort in minutes, 0 when unknown",
			},
		},
		"required":             []any{"title", "subject", "due_date", "priority", "time_estimate_minutes"},
		"additionalProperties": false,
	},
}

const systemPrompt = `You extract homework assignments from short notes written by students.
Return only the JSON object described by the schema.
Resolve relative dates ("tomorrow", "next friday") against the date given in the note header.
Use priority "high" for exams or anything due within two days, "low" for optional work, otherwise "medium".
Estimate time in minutes when the note gives a duration; use 0 when it does not.`

// LLMParser asks a language model to structure the text.
type LLMParser struct {
	provider  llm.Provider
	now       func() time.Time
	maxTokens int
	timeout   time.Duration
}

func NewLLMParser(p llm.Provider) *LLMParser {
	return &LLMParser{provider: p, now: time.Now, maxTokens: defaultMaxTokens, timeout: defaultParserTimeout}
}

func (p *LLMParser) Parse(ctx context.Context, text string) (StructuredAssignment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return StructuredAssignment{}, ErrEmptyInput
	}
	if len(text) > maxInputLength {
		text = text[:maxInputLength]
	}

	log := logger.FromContext(ctx).WithPrefix("assignment_parser")
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	today := p.now()
	prompt := fmt.Sprintf("Today is %s (%s).\n\nNote:\n%s", today.Format(dateLayout), today.Weekday(), text)
	resp, err := p.provider.Generate(ctx, llm.UserPrompt(systemPrompt, prompt, Schema, p.maxTokens))
	if err != nil {
		log.Warn("llm parse failed: %v", err)
		return StructuredAssignment{}, fmt.Errorf("parse assignment: %w", err)
	}

	var raw rawAssignment
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return StructuredAssignment{}, &llm.ErrInvalidResponse{Content: resp.Content, Err: err}
	}
	out, err := Normalize(raw.Title, raw.Subject, raw.DueDate, raw.Priority, raw.TimeEstimateMinutes, today.Location())
	if err != nil {
		return StructuredAssignment{}, err
	}
	log.Debug("parsed %q (subject=%q priority=%s)", out.Title, out.Subject, out.Priority)
	return out, nil
}

// Normalize trims and defaults parsed fields. An unknown priority becomes
// medium; an unparseable due date is dropped; the estimate is clamped to a
// week.
func Normalize(title, subject, dueDate, priority string, minutes int, loc *time.Location) (StructuredAssignment, error) {
	out := StructuredAssignment{
		Title:    strings.TrimSpace(title),
		Subject:  strings.TrimSpace(subject),
		Priority: models.Priority(strings.ToLower(strings.TrimSpace(priority))),
	}
	if out.Title == "" {
		return StructuredAssignment{}, ErrNoTitle
	}
	if !out.Priority.Valid() {
		out.Priority = models.PriorityMedium
	}
	out.TimeEstimateMinutes = min(max(minutes, 0), maxTimeEstimate)

	if loc == nil {
		loc = time.UTC
	}
	if d := strings.TrimSpace(dueDate); d != "" {
		if t, err := time.ParseInLocation(dateLayout, d, loc); err == nil {
			out.DueDate = &t
		} else if t, err := time.Parse(time.RFC3339, d); err == nil {
			out.DueDate = &t
		}
	}
	return out, nil
}
