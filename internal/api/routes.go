package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vytor/studyflash/internal/errors"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	if s.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(corsMiddleware(s.CORSOrigins))
	r.Use(metricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/decks", func(r chi.Router) {
		r.Get("/", s.handleListDecks)
		r.Post("/", s.handleCreateDeck)
		r.Get("/{id}", s.handleGetDeck)
		r.Delete("/{id}", s.handleDeleteDeck)
		r.Get("/{id}/cards", s.handleListCards)
		r.Post("/{id}/cards", s.handleAddCard)
	})
	r.Get("/cards/due", s.handleDueCards)
	r.Get("/stats", s.handleStats)

	r.Route("/study/sessions", func(r chi.Router) {
		r.Post("/", s.handleStartSession)
		r.Get("/{id}", s.handleGetSession)
		r.Delete("/{id}", s.handleExitSession)
		r.Post("/{id}/ratings", s.handleRateCard)
		r.Post("/{id}/retry", s.handleRetryPending)
		r.Post("/{id}/replay", s.handleReplay)
	})

	r.Route("/quizzes", func(r chi.Router) {
		r.Post("/", s.handleCreateQuiz)
		r.Get("/{id}", s.handleGetQuiz)
		r.Get("/{id}/attempts", s.handleListAttempts)
		r.Post("/{id}/attempts", s.handleSubmitAttempt)
	})
	r.Post("/grade", s.handleGrade)

	r.Route("/activities", func(r chi.Router) {
		r.Get("/", s.handleListActivities)
		r.Post("/", s.handleAddActivity)
		r.Post("/conflicts", s.handleCheckConflicts)
		r.Delete("/{id}", s.handleDeleteActivity)
	})

	r.Route("/assignments", func(r chi.Router) {
		r.Get("/", s.handleListAssignments)
		r.Post("/", s.handleCreateAssignment)
		r.With(rateLimitMiddleware(newClientLimiter(s.ParseRatePerMinute))).Post("/parse", s.handleParseAssignment)
		r.Post("/{id}/complete", s.handleCompleteAssignment)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errors.NewNotFoundError("route", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, &errors.AppError{
			Code:    errors.ErrCodeBadRequest,
			Message: "method not allowed",
			Status:  http.StatusMethodNotAllowed,
		})
	})
	return r
}
