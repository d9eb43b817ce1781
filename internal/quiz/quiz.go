package quiz

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vytor/studyflash/internal/models"
)

var ErrInvalidQuestion = errors.New("invalid question")

// AnswerResult is the verdict for one answered question. Similarity is only
// set for short answers.
type AnswerResult struct {
	IsCorrect  bool
	Similarity *float64
}

// CheckAnswer grades answer against q according to its type.
func CheckAnswer(q models.QuizQuestion, answer string) AnswerResult {
	answer = strings.TrimSpace(answer)

	switch q.Type {
	case models.QuestionMultipleChoice:
		return AnswerResult{IsCorrect: checkMultipleChoice(q, answer)}
	case models.QuestionTrueFalse:
		got, ok := parseBool(answer)
		want, wantOK := parseBool(q.CorrectAnswer)
		return AnswerResult{IsCorrect: ok && wantOK && got == want}
	default:
		g := GradeAnswer(answer, q.CorrectAnswer)
		sim := g.Similarity
		return AnswerResult{IsCorrect: g.IsCorrect, Similarity: &sim}
	}
}

func checkMultipleChoice(q models.QuizQuestion, answer string) bool {
	if answer == "" {
		return false
	}
	if idx, err := strconv.Atoi(answer); err == nil && idx >= 1 && idx <= len(q.Options) {
		return strings.EqualFold(strings.TrimSpace(q.Options[idx-1]), strings.TrimSpace(q.CorrectAnswer))
	}
	return strings.EqualFold(answer, strings.TrimSpace(q.CorrectAnswer))
}

func parseBool(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y":
		return true, true
	case "false", "f", "no", "n":
		return false, true
	default:
		return false, false
	}
}

// Score grades answers[i] against questions[i]. Missing answers count as
// wrong.
func Score(questions []models.QuizQuestion, answers []string, timeSpent time.Duration) models.QuizAttempt {
	attempt := models.QuizAttempt{
		TotalQuestions:   len(questions),
		Answers:          make([]models.QuizAnswer, 0, len(questions)),
		TimeSpentSeconds: int(timeSpent.Round(time.Second) / time.Second),
	}
	if len(questions) > 0 {
		attempt.QuizID = questions[0].QuizID
	}

	for i, q := range questions {
		var given string
		if i < len(answers) {
			given = answers[i]
		}
		res := CheckAnswer(q, given)
		if res.IsCorrect {
			attempt.Score++
		}
		attempt.Answers = append(attempt.Answers, models.QuizAnswer{
			QuestionID: q.ID,
			Answer:     given,
			IsCorrect:  res.IsCorrect,
			Similarity: res.Similarity,
		})
	}

	if attempt.TotalQuestions > 0 {
		attempt.Percentage = float64(attempt.Score) / float64(attempt.TotalQuestions) * 100
	}
	return attempt
}

// Validate checks that q can be answered and graded.
func Validate(q models.QuizQuestion) error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidQuestion)
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return fmt.Errorf("%w: correct answer is required", ErrInvalidQuestion)
	}

	switch q.Type {
	case models.QuestionMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: multiple choice needs at least 2 options", ErrInvalidQuestion)
		}
		for _, opt := range q.Options {
			if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(q.CorrectAnswer)) {
				return nil
			}
		}
		return fmt.Errorf("%w: correct answer %q is not one of the options", ErrInvalidQuestion, q.CorrectAnswer)
	case models.QuestionTrueFalse:
		if _, ok := parseBool(q.CorrectAnswer); !ok {
			return fmt.Errorf("%w: true/false answer must be true or false, got %q", ErrInvalidQuestion, q.CorrectAnswer)
		}
		return nil
	case models.QuestionShortAnswer:
		return nil
	default:
		return fmt.Errorf("%w: unknown question type %q", ErrInvalidQuestion, q.Type)
	}
}
