package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/services"
)

type startSessionRequest struct {
	DeckID *int64 `json:"deck_id" validate:"omitempty,min=1"`
	All    bool   `json:"all"`
	Limit  int    `json:"limit" validate:"min=0"`
}

type rateRequest struct {
	Rating int `json:"rating" validate:"min=1,max=5"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	view, err := s.StudyService.StartSession(r.Context(), services.StartSessionRequest{
		DeckID: req.DeckID,
		All:    req.All,
		Limit:  req.Limit,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, view)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.StudyService.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleRateCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	log := logger.FromContext(r.Context()).WithFields(map[string]any{
		"session": id,
		"rating":  req.Rating,
	})
	log.Debug("rating card")

	res, err := s.StudyService.Rate(r.Context(), id, req.Rating)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleRetryPending(w http.ResponseWriter, r *http.Request) {
	res, err := s.StudyService.RetryPending(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	view, err := s.StudyService.Replay(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, view)
}

// handleExitSession abandons the session and returns its final summary.
func (s *Server) handleExitSession(w http.ResponseWriter, r *http.Request) {
	summary, err := s.StudyService.Exit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, summary)
}
