package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/vytor/studyflash/internal/errors"
	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/jobs"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/metrics"
	"github.com/vytor/studyflash/internal/models"
	"github.com/vytor/studyflash/internal/repository"
	"github.com/vytor/studyflash/internal/study"
)

// StartSessionRequest selects the cards for a new session. Without a deck
// every due card is used. All includes cards that are not due yet and
// requires a deck.
type StartSessionRequest struct {
	DeckID *int64
	All    bool
	Limit  int
}

// SessionView is the externally visible state of a live session.
type SessionView struct {
	ID        string        `json:"id"`
	State     study.State   `json:"state"`
	Index     int           `json:"index"`
	Total     int           `json:"total"`
	Current   *models.Card  `json:"current,omitempty"`
	CanReplay bool          `json:"can_replay"`
	Summary   study.Summary `json:"summary"`
}

// RatingResult is the outcome of rating the current card.
type RatingResult struct {
	Outcome study.Outcome `json:"outcome"`
	Session SessionView   `json:"session"`
}

// RetryResult reports what happened to pending writes.
type RetryResult struct {
	Remaining int         `json:"remaining"`
	Session   SessionView `json:"session"`
}

// StudyService drives study sessions held in memory
type StudyService interface {
	StartSession(ctx context.Context, req StartSessionRequest) (*SessionView, error)
	GetSession(ctx context.Context, id string) (*SessionView, error)
	Rate(ctx context.Context, id string, rating int) (*RatingResult, error)
	RetryPending(ctx context.Context, id string) (*RetryResult, error)
	Replay(ctx context.Context, id string) (*SessionView, error)
	Exit(ctx context.Context, id string) (*study.Summary, error)
}

type studyService struct {
	cardRepo repository.CardRepository
	deckRepo repository.DeckRepository
	store    *study.Store
	queue    jobs.JobQueue
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewStudyService creates a new StudyService. queue may be nil, in which case
// failed review writes stay on the session until RetryPending is called.
func NewStudyService(cardRepo repository.CardRepository, deckRepo repository.DeckRepository, store *study.Store, queue jobs.JobQueue) StudyService {
	s := &studyService{
		cardRepo: cardRepo,
		deckRepo: deckRepo,
		store:    store,
		queue:    queue,
		metrics:  metrics.Get(),
		now:      time.Now,
	}
	store.OnEvict(s.evicted)
	return s
}

// evicted accounts for a session the store dropped for being idle. Reviews
// that never reached the database are lost with it.
func (s *studyService) evicted(id string, sess *study.Session) {
	if n := len(sess.PendingWrites()); n > 0 {
		s.metrics.ReviewWriteFailures.WithLabelValues("dropped").Add(float64(n))
	}
	s.metrics.ActiveSessions.Set(float64(s.store.Len()))
}

func (s *studyService) StartSession(ctx context.Context, req StartSessionRequest) (*SessionView, error) {
	log := logger.FromContext(ctx).WithPrefix("study")
	log.Debug("starting session: deck_id=%v, all=%t, limit=%d", req.DeckID, req.All, req.Limit)

	if req.Limit < 0 {
		return nil, errors.NewValidationError("limit", "cannot be negative")
	}
	if req.All && req.DeckID == nil {
		return nil, errors.NewValidationError("deck_id", "required when studying all cards")
	}
	if req.DeckID != nil {
		if _, err := s.deckRepo.Get(ctx, *req.DeckID); err != nil {
			return nil, repoError(log, err, "deck", *req.DeckID)
		}
	}

	var (
		cards []models.Card
		err   error
	)
	if req.All {
		cards, err = s.cardRepo.ListByDeck(ctx, *req.DeckID)
	} else {
		cards, err = s.cardRepo.LoadDueCards(ctx, req.DeckID, s.now())
	}
	if err != nil {
		log.Error("failed to load cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if req.Limit > 0 && len(cards) > req.Limit {
		cards = cards[:req.Limit]
	}

	sess := study.New(cards, study.WithRecorder(s.cardRepo), study.WithClock(s.now))
	id := s.store.Put(sess)
	s.metrics.ActiveSessions.Set(float64(s.store.Len()))
	log.Info("session %s started with %d cards", id, len(cards))

	view := viewOf(id, sess)
	return &view, nil
}

func (s *studyService) GetSession(ctx context.Context, id string) (*SessionView, error) {
	var view SessionView
	err := s.store.With(id, func(sess *study.Session) error {
		view = viewOf(id, sess)
		return nil
	})
	if err != nil {
		return nil, s.sessionError(ctx, err, id)
	}
	return &view, nil
}

func (s *studyService) Rate(ctx context.Context, id string, rating int) (*RatingResult, error) {
	log := logger.FromContext(ctx).WithPrefix("study")
	log.Debug("rating card: session=%s, rating=%d", id, rating)

	if rating < int(flashcard.RatingForgot) || rating > int(flashcard.RatingPerfect) {
		return nil, errors.NewValidationError("rating", "must be between 1 and 5")
	}

	var res RatingResult
	err := s.store.With(id, func(sess *study.Session) error {
		out, err := sess.HandleRating(ctx, rating)
		if err != nil {
			return err
		}
		s.metrics.ReviewsTotal.WithLabelValues(string(out.Result)).Inc()
		if out.Persist == study.PersistFailed {
			s.metrics.ReviewWriteFailures.WithLabelValues("inline").Inc()
			s.handOff(ctx, sess)
		}
		res = RatingResult{Outcome: out, Session: viewOf(id, sess)}
		return nil
	})
	if err != nil {
		return nil, s.sessionError(ctx, err, id)
	}
	return &res, nil
}

// handOff moves failed writes to the background queue. Writes the queue
// refuses stay on the session for a manual retry.
func (s *studyService) handOff(ctx context.Context, sess *study.Session) {
	if s.queue == nil {
		return
	}
	log := logger.FromContext(ctx).WithPrefix("study")

	var kept []study.PendingWrite
	for _, p := range sess.TakePendingWrites() {
		if err := s.queue.EnqueueReviewRetry(p.CardID, p.Review); err != nil {
			log.Warn("could not queue retry for card %d: %v", p.CardID, err)
			kept = append(kept, p)
			continue
		}
		log.Debug("queued retry for card %d", p.CardID)
	}
	sess.KeepPending(kept...)
}

func (s *studyService) RetryPending(ctx context.Context, id string) (*RetryResult, error) {
	log := logger.FromContext(ctx).WithPrefix("study")
	log.Debug("retrying pending writes: session=%s", id)

	var res RetryResult
	err := s.store.With(id, func(sess *study.Session) error {
		remaining, err := sess.RetryPending(ctx)
		if err != nil && !stderrors.Is(err, study.ErrNoRecorder) {
			log.Warn("%d writes still failing: %v", remaining, err)
			s.metrics.ReviewWriteFailures.WithLabelValues("retry").Add(float64(remaining))
		}
		res = RetryResult{Remaining: remaining, Session: viewOf(id, sess)}
		return nil
	})
	if err != nil {
		return nil, s.sessionError(ctx, err, id)
	}
	return &res, nil
}

func (s *studyService) Replay(ctx context.Context, id string) (*SessionView, error) {
	log := logger.FromContext(ctx).WithPrefix("study")
	log.Debug("replaying missed cards: session=%s", id)

	var replay *study.Session
	err := s.store.With(id, func(sess *study.Session) error {
		var err error
		replay, err = sess.Replay()
		return err
	})
	if err != nil {
		return nil, s.sessionError(ctx, err, id)
	}

	newID := s.store.Put(replay)
	s.metrics.ActiveSessions.Set(float64(s.store.Len()))
	_, total := replay.Position()
	log.Info("replay session %s started from %s with %d cards", newID, id, total)

	view := viewOf(newID, replay)
	return &view, nil
}

func (s *studyService) Exit(ctx context.Context, id string) (*study.Summary, error) {
	log := logger.FromContext(ctx).WithPrefix("study")
	log.Debug("exiting session: session=%s", id)

	var summary study.Summary
	err := s.store.With(id, func(sess *study.Session) error {
		sess.Exit()
		summary = sess.Summary()
		if summary.Pending > 0 {
			log.Warn("session %s exited with %d unsaved reviews", id, summary.Pending)
			s.metrics.ReviewWriteFailures.WithLabelValues("dropped").Add(float64(summary.Pending))
		}
		return nil
	})
	if err != nil {
		return nil, s.sessionError(ctx, err, id)
	}
	s.store.Delete(id)
	s.metrics.ActiveSessions.Set(float64(s.store.Len()))
	return &summary, nil
}

func (s *studyService) sessionError(ctx context.Context, err error, id string) error {
	switch {
	case stderrors.Is(err, study.ErrSessionNotFound):
		return errors.NewNotFoundError("study session", id)
	case stderrors.Is(err, study.ErrNotActive):
		return errors.NewConflictError("session is not active", err)
	case stderrors.Is(err, study.ErrNothingToReplay):
		return errors.NewConflictError("no missed cards to replay", err)
	}
	logger.FromContext(ctx).WithPrefix("study").Error("session %s failed: %v", id, err)
	return errors.NewInternalError(err)
}

func viewOf(id string, sess *study.Session) SessionView {
	index, total := sess.Position()
	view := SessionView{
		ID:        id,
		State:     sess.State(),
		Index:     index,
		Total:     total,
		CanReplay: sess.CanReplay(),
		Summary:   sess.Summary(),
	}
	if card, ok := sess.Current(); ok {
		view.Current = &card
	}
	return view
}
