package api

import (
	"net/http"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

type activityRequest struct {
	Title           string `json:"title" validate:"max=200"`
	Date            string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes" validate:"min=0,max=1440"`
	Force           bool   `json:"force"`
}

func (a activityRequest) toModel() models.Activity {
	return models.Activity{
		Title:           a.Title,
		Date:            a.Date,
		StartTime:       a.StartTime,
		DurationMinutes: a.DurationMinutes,
	}
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		handleError(w, r, errors.NewBadRequestError("date is required"))
		return
	}
	activities, err := s.PlannerService.ListActivities(r.Context(), date)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, orEmpty(activities))
}

// handleAddActivity saves an activity. When it conflicts with the day's
// schedule and force is not set, nothing is saved and the report comes back
// with 409 so the client can pick a suggested slot.
func (s *Server) handleAddActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	res, err := s.PlannerService.AddActivity(r.Context(), req.toModel(), req.Force)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if res.Activity == nil {
		logger.FromContext(r.Context()).Info("activity rejected with %d conflicts", len(res.Report.Conflicts))
		writeJSON(w, r, http.StatusConflict, res)
		return
	}
	writeJSON(w, r, http.StatusCreated, res)
}

func (s *Server) handleCheckConflicts(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	report, err := s.PlannerService.CheckConflicts(r.Context(), req.toModel())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "activity")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.PlannerService.DeleteActivity(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
