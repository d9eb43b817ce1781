package study

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/studyflash/internal/logger"
)

var ErrSessionNotFound = errors.New("study: session not found")

type storeEntry struct {
	mu       sync.Mutex
	session  *Session
	lastUsed time.Time
}

// Store keeps live sessions in memory, keyed by an opaque id. Sessions idle
// for longer than the TTL are evicted by Sweep.
type Store struct {
	mu      sync.Mutex
	entries map[string]*storeEntry
	ttl     time.Duration
	now     func() time.Time
	log     *logger.Logger
	onEvict []func(id string, sess *Session)
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{
		entries: make(map[string]*storeEntry),
		ttl:     ttl,
		now:     time.Now,
		log:     logger.Default().WithPrefix("session-store"),
	}
}

// OnEvict registers fn to run for every session Sweep removes. Hooks run
// after the store lock is released, with the session locked.
func (s *Store) OnEvict(fn func(id string, sess *Session)) {
	s.mu.Lock()
	s.onEvict = append(s.onEvict, fn)
	s.mu.Unlock()
}

// Put registers a session and returns its id.
func (s *Store) Put(sess *Session) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.entries[id] = &storeEntry{session: sess, lastUsed: s.now()}
	s.mu.Unlock()
	return id
}

// With runs fn with exclusive access to the session.
func (s *Store) With(id string, fn func(*Session) error) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		e.lastUsed = s.now()
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Delete removes a session. It reports whether the id was known.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep evicts idle sessions and returns how many were removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)
	evicted := make(map[string]*storeEntry)

	s.mu.Lock()
	for id, e := range s.entries {
		if e.lastUsed.Before(cutoff) {
			delete(s.entries, id)
			evicted[id] = e
		}
	}
	hooks := append(([]func(string, *Session))(nil), s.onEvict...)
	s.mu.Unlock()

	for id, e := range evicted {
		e.mu.Lock()
		if n := len(e.session.pending); n > 0 {
			s.log.Warn("evicting idle session %s with %d unsaved reviews", id, n)
		}
		for _, fn := range hooks {
			fn(id, e.session)
		}
		e.mu.Unlock()
	}
	if len(evicted) > 0 {
		s.log.Debug("evicted %d idle sessions", len(evicted))
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
