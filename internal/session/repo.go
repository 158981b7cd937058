// Package session holds in-flight assessment sessions: the answer set
// and profile facts a user has supplied so far, keyed by session token,
// plus a bounded history of evaluated reports. Sessions that stay idle
// longer than the TTL are removed by a background sweep.
package session

import (
	"sync"
	"time"

	"readiness/internal/engine"
	"readiness/internal/schema"
	"readiness/internal/utils"
)

type state struct {
	mu      sync.Mutex
	answers engine.AnswerSet
	profile engine.ProfileFacts
	history *utils.RingBuffer[*engine.Report]
}

// Repository is a thread-safe in-memory store of sessions with automatic
// cleanup of stale entries.
//
// Example:
//
//	repo := session.NewRepository(10, 30*time.Minute)
//	go repo.Serve()
//	repo.SetAnswer("token-123", "1.1.A.1", schema.TokenYes)
type Repository struct {
	historyLength int
	ttl           time.Duration

	sessions map[string]*state
	updates  map[string]time.Time

	cleanTicker *time.Ticker
	mu          sync.RWMutex
}

// NewRepository creates a session repository. historyLength bounds the
// number of retained reports per session; ttl is the idle time after
// which a session is swept. Call Serve in a goroutine to start sweeping.
func NewRepository(historyLength int, ttl time.Duration) *Repository {
	return &Repository{
		historyLength: historyLength,
		ttl:           ttl,
		sessions:      make(map[string]*state),
		updates:       make(map[string]time.Time),
	}
}

// getOrCreate returns the session for token, creating it on first touch.
func (r *Repository) getOrCreate(token string) *state {
	r.mu.RLock()
	s, found := r.sessions[token]
	r.mu.RUnlock()

	if !found {
		r.mu.Lock()
		// Re-check under the write lock.
		if s, found = r.sessions[token]; !found {
			s = &state{
				answers: make(engine.AnswerSet),
				profile: make(engine.ProfileFacts),
				history: utils.NewRingBuffer[*engine.Report](r.historyLength),
			}
			r.sessions[token] = s
		}
		r.mu.Unlock()
	}

	r.mu.Lock()
	r.updates[token] = time.Now()
	r.mu.Unlock()
	return s
}

// SetAnswer records one answer for the session, creating the session if
// needed.
func (r *Repository) SetAnswer(token, questionID string, value schema.Token) {
	s := r.getOrCreate(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[questionID] = value
}

// SetProfile merges profile facts into the session.
func (r *Repository) SetProfile(token string, facts map[string]bool) {
	s := r.getOrCreate(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	for field, value := range facts {
		s.profile[field] = value
	}
}

// Snapshot returns independent copies of the session's answers and
// profile facts, or false when the session does not exist.
func (r *Repository) Snapshot(token string) (engine.AnswerSet, engine.ProfileFacts, bool) {
	r.mu.RLock()
	s, found := r.sessions[token]
	r.mu.RUnlock()
	if !found {
		return nil, nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Clone(), s.profile.Clone(), true
}

// AppendReport records an evaluated report in the session's history.
func (r *Repository) AppendReport(token string, report *engine.Report) {
	s := r.getOrCreate(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Push(report)
}

// History returns the session's retained reports from oldest to newest.
func (r *Repository) History(token string) ([]*engine.Report, bool) {
	r.mu.RLock()
	s, found := r.sessions[token]
	r.mu.RUnlock()
	if !found {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.ToSlice(), true
}

// Serve sweeps idle sessions once a minute. It blocks and should run in
// its own goroutine; use Stop to terminate.
func (r *Repository) Serve() {
	r.cleanTicker = time.NewTicker(time.Minute)
	for range r.cleanTicker.C {
		var stale []string

		r.mu.RLock()
		now := time.Now()
		for token, ts := range r.updates {
			if now.Sub(ts) > r.ttl {
				stale = append(stale, token)
			}
		}
		r.mu.RUnlock()

		if len(stale) > 0 {
			r.mu.Lock()
			for _, token := range stale {
				delete(r.sessions, token)
				delete(r.updates, token)
			}
			r.mu.Unlock()
		}
	}
}

// Stop cancels the background sweep. Safe to call even when Serve never
// ran.
func (r *Repository) Stop() {
	if r.cleanTicker != nil {
		r.cleanTicker.Stop()
	}
}
