package api

import (
	"net/http"
	"time"

	"github.com/vytor/studyflash/internal/assignment"
	"github.com/vytor/studyflash/internal/models"
)

type createAssignmentRequest struct {
	Title               string          `json:"title" validate:"required,max=200"`
	Subject             string          `json:"subject" validate:"max=100"`
	DueDate             string          `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	Priority            models.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	TimeEstimateMinutes int             `json:"time_estimate_minutes" validate:"min=0,max=10080"`
}

type parseAssignmentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
	// Save stores the parsed assignment right away.
	Save bool `json:"save"`
}

type parseAssignmentResponse struct {
	Parsed     assignment.StructuredAssignment `json:"parsed"`
	Assignment *models.Assignment              `json:"assignment,omitempty"`
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	var (
		filter models.AssignmentFilter
		err    error
	)
	filter.Subject = r.URL.Query().Get("subject")
	if filter.Completed, err = queryBool(r, "completed"); err != nil {
		handleError(w, r, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		handleError(w, r, err)
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		handleError(w, r, err)
		return
	}

	list, err := s.AssignmentService.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, orEmpty(list))
}

func (s *Server) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	a := models.Assignment{
		Title:               req.Title,
		Subject:             req.Subject,
		Priority:            req.Priority,
		TimeEstimateMinutes: req.TimeEstimateMinutes,
	}
	if req.DueDate != "" {
		// Format already checked by the validator.
		due, _ := time.Parse(time.DateOnly, req.DueDate)
		a.DueDate = &due
	}

	created, err := s.AssignmentService.Create(r.Context(), a)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleParseAssignment(w http.ResponseWriter, r *http.Request) {
	var req parseAssignmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	parsed, err := s.AssignmentService.Parse(r.Context(), req.Text)
	if err != nil {
		handleError(w, r, err)
		return
	}
	resp := parseAssignmentResponse{Parsed: *parsed}
	if !req.Save {
		writeJSON(w, r, http.StatusOK, resp)
		return
	}

	created, err := s.AssignmentService.Create(r.Context(), parsed.ToModel())
	if err != nil {
		handleError(w, r, err)
		return
	}
	resp.Assignment = created
	writeJSON(w, r, http.StatusCreated, resp)
}

func (s *Server) handleCompleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "assignment")
	if err != nil {
		handleError(w, r, err)
		return
	}
	a, err := s.AssignmentService.Complete(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, a)
}
