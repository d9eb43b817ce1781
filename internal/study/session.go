package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vytor/studyflash/internal/flashcard"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/models"
)

var (
	ErrNotActive       = errors.New("study: session is not active")
	ErrNothingToReplay = errors.New("study: no missed cards to replay")
	ErrNoRecorder      = errors.New("study: session has no recorder")
)

// State is the lifecycle position of a session.
type State int

const (
	StateActive State = iota
	StateComplete
	StateExited
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateComplete:
		return "complete"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "active":
		*s = StateActive
	case "complete":
		*s = StateComplete
	case "exited":
		*s = StateExited
	default:
		return fmt.Errorf("study: unknown state %q", b)
	}
	return nil
}

// Result buckets a single reviewed card.
type Result string

const (
	ResultMastered  Result = "mastered"
	ResultNeedsWork Result = "needs_work"
)

// PersistStatus reports what happened to the review write for one card.
type PersistStatus string

const (
	PersistOK      PersistStatus = "ok"
	PersistFailed  PersistStatus = "failed"
	PersistSkipped PersistStatus = "skipped"
)

const (
	masteredRating = flashcard.RatingGood
	missedRating   = flashcard.RatingStruggled
)

// Recorder persists the outcome of a card review.
type Recorder interface {
	SaveCardReview(ctx context.Context, cardID int64, review flashcard.Review) error
}

// Outcome describes one HandleRating call.
type Outcome struct {
	CardID    int64              `json:"card_id"`
	Rating    flashcard.Rating   `json:"rating"`
	Result    Result             `json:"result"`
	Schedule  flashcard.Schedule `json:"schedule"`
	Elapsed   time.Duration      `json:"-"`
	Persist   PersistStatus      `json:"persist"`
	Err       error              `json:"-"`
	Completed bool               `json:"completed"`
}

// PendingWrite is a review whose persistence failed and is waiting for a retry.
type PendingWrite struct {
	CardID int64            `json:"card_id"`
	Review flashcard.Review `json:"review"`
	Err    error            `json:"-"`
}

// Summary aggregates the counters of a session.
type Summary struct {
	Total          int           `json:"total"`
	Reviewed       int           `json:"reviewed"`
	Mastered       int           `json:"mastered"`
	NeedsWork      int           `json:"needs_work"`
	Missed         int           `json:"missed"`
	Streak         int           `json:"streak"`
	BestStreak     int           `json:"best_streak"`
	Accuracy       float64       `json:"accuracy"`
	AverageSeconds float64       `json:"average_seconds"`
	Duration       time.Duration `json:"-"`
	Pending        int           `json:"pending_writes"`
	State          State         `json:"state"`
}

// Option configures a Session.
type Option func(*Session)

// WithRecorder sets where per-card reviews are persisted. Without one every
// outcome reports PersistSkipped.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// Session drives one pass over a list of cards. It is not safe for
// concurrent use; Store serialises access per session.
type Session struct {
	cards    []models.Card
	index    int
	state    State
	recorder Recorder
	now      func() time.Time

	startedAt time.Time
	endedAt   time.Time
	shownAt   time.Time
	elapsed   []time.Duration
	results   []Result

	mastered   int
	needsWork  int
	streak     int
	bestStreak int
	missed     []models.Card
	pending    []PendingWrite
}

// New starts a session over cards. An empty list yields a session that is
// already complete.
func New(cards []models.Card, opts ...Option) *Session {
	s := &Session{
		cards: append([]models.Card(nil), cards...),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.startedAt = s.now()
	s.shownAt = s.startedAt
	if len(s.cards) == 0 {
		s.state = StateComplete
		s.endedAt = s.startedAt
	}
	return s
}

func (s *Session) State() State { return s.state }

// Current returns the card being shown. ok is false outside the active state.
func (s *Session) Current() (card models.Card, ok bool) {
	if s.state != StateActive {
		return models.Card{}, false
	}
	return s.cards[s.index], true
}

// Position returns the zero-based index of the current card and the number
// of cards in the session.
func (s *Session) Position() (index, total int) {
	return s.index, len(s.cards)
}

// HandleRating grades the current card, hands the new schedule to the
// recorder and advances. A recorder failure does not stop the session: it
// is reported in the outcome and kept as a pending write.
func (s *Session) HandleRating(ctx context.Context, rating int) (Outcome, error) {
	if s.state != StateActive {
		return Outcome{}, ErrNotActive
	}

	log := logger.FromContext(ctx).WithPrefix("study")
	now := s.now()
	card := s.cards[s.index]
	elapsed := now.Sub(s.shownAt)
	if elapsed < 0 {
		elapsed = 0
	}

	q := flashcard.ClampRating(rating)
	updated := flashcard.ApplyReview(card, int(q), now)
	review := flashcard.Review{
		Schedule:    flashcard.ScheduleOf(updated),
		Rating:      q,
		TimeSeconds: elapsed.Seconds(),
		ReviewedAt:  now,
	}

	out := Outcome{
		CardID:   card.ID,
		Rating:   q,
		Schedule: review.Schedule,
		Elapsed:  elapsed,
		Persist:  PersistSkipped,
	}

	if s.recorder != nil {
		if err := s.recorder.SaveCardReview(ctx, card.ID, review); err != nil {
			log.Error("failed to save review for card %d: %v", card.ID, err)
			out.Persist = PersistFailed
			out.Err = err
			s.pending = append(s.pending, PendingWrite{CardID: card.ID, Review: review, Err: err})
		} else {
			out.Persist = PersistOK
		}
	}

	s.elapsed = append(s.elapsed, elapsed)
	if q >= masteredRating {
		out.Result = ResultMastered
		s.mastered++
		s.streak++
		if s.streak > s.bestStreak {
			s.bestStreak = s.streak
		}
	} else {
		out.Result = ResultNeedsWork
		s.needsWork++
		s.streak = 0
	}
	s.results = append(s.results, out.Result)
	if q <= missedRating {
		s.missed = append(s.missed, updated)
	}

	s.cards[s.index] = updated
	if s.index == len(s.cards)-1 {
		s.state = StateComplete
		s.endedAt = now
		out.Completed = true
		log.Debug("session complete: %d mastered, %d need work", s.mastered, s.needsWork)
	} else {
		s.index++
		s.shownAt = now
	}
	return out, nil
}

// PendingWrites returns a copy of the reviews that failed to persist.
func (s *Session) PendingWrites() []PendingWrite {
	return append([]PendingWrite(nil), s.pending...)
}

// TakePendingWrites hands the failed writes to the caller and forgets them,
// so that only one party retries them.
func (s *Session) TakePendingWrites() []PendingWrite {
	p := s.pending
	s.pending = nil
	return p
}

// KeepPending puts writes back on the session, for when a caller that took
// them could not hand them off.
func (s *Session) KeepPending(writes ...PendingWrite) {
	s.pending = append(s.pending, writes...)
}

// RetryPending re-submits pending writes through the recorder and returns
// how many are still failing.
func (s *Session) RetryPending(ctx context.Context) (int, error) {
	if len(s.pending) == 0 {
		return 0, nil
	}
	if s.recorder == nil {
		return len(s.pending), ErrNoRecorder
	}

	log := logger.FromContext(ctx).WithPrefix("study")
	var remaining []PendingWrite
	var errs []error
	for _, p := range s.pending {
		if err := s.recorder.SaveCardReview(ctx, p.CardID, p.Review); err != nil {
			p.Err = err
			remaining = append(remaining, p)
			errs = append(errs, err)
			continue
		}
		log.Info("pending review for card %d saved on retry", p.CardID)
	}
	s.pending = remaining
	return len(remaining), errors.Join(errs...)
}

// Missed returns the cards rated 2 or lower, with their updated schedule.
func (s *Session) Missed() []models.Card {
	return append([]models.Card(nil), s.missed...)
}

// CanReplay reports whether a replay of the missed cards is available.
func (s *Session) CanReplay() bool {
	return s.state == StateComplete && len(s.missed) > 0
}

// Replay starts a new session over the missed cards with fresh counters.
func (s *Session) Replay() (*Session, error) {
	if !s.CanReplay() {
		return nil, ErrNothingToReplay
	}
	return New(s.missed, WithRecorder(s.recorder), WithClock(s.now)), nil
}

// Exit abandons the session. Reviews already recorded stay recorded.
func (s *Session) Exit() {
	if s.state == StateActive {
		s.endedAt = s.now()
	}
	s.state = StateExited
}

func (s *Session) Summary() Summary {
	reviewed := len(s.results)
	sum := Summary{
		Total:      len(s.cards),
		Reviewed:   reviewed,
		Mastered:   s.mastered,
		NeedsWork:  s.needsWork,
		Missed:     len(s.missed),
		Streak:     s.streak,
		BestStreak: s.bestStreak,
		Pending:    len(s.pending),
		State:      s.state,
	}
	if reviewed > 0 {
		sum.Accuracy = float64(s.mastered) / float64(reviewed)
		var total time.Duration
		for _, e := range s.elapsed {
			total += e
		}
		sum.AverageSeconds = total.Seconds() / float64(reviewed)
	}

	end := s.endedAt
	if s.state == StateActive {
		end = s.now()
	}
	sum.Duration = end.Sub(s.startedAt)
	return sum
}
