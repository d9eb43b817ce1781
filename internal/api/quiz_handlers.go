package api

import (
	"net/http"
	"time"

	"github.com/vytor/studyflash/internal/models"
)

type createQuizRequest struct {
	Title     string                `json:"title" validate:"required,max=200"`
	Subject   string                `json:"subject" validate:"max=100"`
	DeckID    *int64                `json:"deck_id" validate:"omitempty,min=1"`
	Questions []quizQuestionRequest `json:"questions" validate:"required,min=1,max=200,dive"`
}

type quizQuestionRequest struct {
	Type          models.QuestionType `json:"type" validate:"required,oneof=multiple_choice true_false short_answer"`
	Prompt        string              `json:"prompt" validate:"required"`
	CorrectAnswer string              `json:"correct_answer" validate:"required"`
	Options       []string            `json:"options"`
}

type submitAttemptRequest struct {
	Answers          []string `json:"answers" validate:"max=200"`
	TimeSpentSeconds int      `json:"time_spent_seconds" validate:"min=0"`
}

type gradeRequest struct {
	Answer    string `json:"answer"`
	Reference string `json:"reference" validate:"required"`
}

func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	q := models.Quiz{Title: req.Title, Subject: req.Subject, DeckID: req.DeckID}
	for _, qr := range req.Questions {
		q.Questions = append(q.Questions, models.QuizQuestion{
			Type:          qr.Type,
			Prompt:        qr.Prompt,
			CorrectAnswer: qr.CorrectAnswer,
			Options:       qr.Options,
		})
	}

	created, err := s.QuizService.CreateQuiz(r.Context(), q)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "quiz")
	if err != nil {
		handleError(w, r, err)
		return
	}
	q, err := s.QuizService.GetQuiz(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, q)
}

func (s *Server) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "quiz")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req submitAttemptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	attempt, err := s.QuizService.SubmitAttempt(r.Context(), id, req.Answers, time.Duration(req.TimeSpentSeconds)*time.Second)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, attempt)
}

func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "quiz")
	if err != nil {
		handleError(w, r, err)
		return
	}
	attempts, err := s.QuizService.ListAttempts(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, orEmpty(attempts))
}

// handleGrade grades one free-text answer against a reference without
// storing anything.
func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, s.QuizService.GradeAnswer(r.Context(), req.Answer, req.Reference))
}
