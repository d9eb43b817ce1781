package api

import (
	"context"

	"github.com/vytor/studyflash/internal/services"
)

// ReadyChecker reports whether a backing store can serve requests.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

type Server struct {
	DB                 ReadyChecker
	DeckService        services.DeckService
	StudyService       services.StudyService
	QuizService        services.QuizService
	PlannerService     services.PlannerService
	AssignmentService  services.AssignmentService
	CORSOrigins        []string
	ParseRatePerMinute int
	// TrustProxyHeaders rewrites the request's remote address from proxy
	// headers before any other middleware runs.
	TrustProxyHeaders bool
}
