// Package session keeps the per-call state that webhooks need between
// callbacks. Each callback is an independent HTTP request; the opaque token
// embedded in callback URLs is the only thread tying them together.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vathakkar/ai-voice-concierge/internal/screening"
	"github.com/vathakkar/ai-voice-concierge/pkg/logger"
	"go.uber.org/zap"
)

// DefaultIdleTimeout is how long a session may sit untouched before the
// janitor evicts it. Calls that end normally are dropped explicitly; the
// timeout catches carriers that abandon a call mid-flow.
const DefaultIdleTimeout = 10 * time.Minute

// Session is the mutable state of one in-progress call.
type Session struct {
	Token         string
	CallID        string
	CallerID      string
	TurnIndex     int
	History       []screening.Message
	Decision      screening.Decision
	PendingSpeech string
	HasPending    bool
	Terminal      bool
	CreatedAt     time.Time
	LastActive    time.Time
}

type entry struct {
	mu   sync.Mutex
	sess Session
}

// Registry is an in-memory arena of sessions keyed by token. The outer map
// is guarded by an RWMutex; each session carries its own lock so concurrent
// webhooks for distinct calls never serialize each other.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]*entry
	idleTimeout time.Duration
}

// NewRegistry creates an empty registry. A non-positive idleTimeout falls
// back to DefaultIdleTimeout.
func NewRegistry(idleTimeout time.Duration) *Registry {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Registry{
		sessions:    make(map[string]*entry),
		idleTimeout: idleTimeout,
	}
}

// Create registers a new session for a call and returns its token. Tokens
// are never reused.
func (r *Registry) Create(callID, callerID string) string {
	token := uuid.New().String()
	now := time.Now()
	e := &entry{sess: Session{
		Token:      token,
		CallID:     callID,
		CallerID:   callerID,
		CreatedAt:  now,
		LastActive: now,
	}}

	r.mu.Lock()
	r.sessions[token] = e
	r.mu.Unlock()
	return token
}

// Get returns a snapshot of the session, or false when the token is unknown.
// The history slice is cloned so callers cannot race later mutations.
func (r *Registry) Get(token string) (Session, bool) {
	r.mu.RLock()
	e, ok := r.sessions[token]
	r.mu.RUnlock()
	if !ok {
		return Session{}, false
	}

	e.mu.Lock()
	snapshot := e.sess
	snapshot.History = append([]screening.Message(nil), e.sess.History...)
	e.mu.Unlock()
	return snapshot, true
}

// Mutate applies fn to the session under its lock, making the whole
// read-modify-write atomic relative to other operations on the same token.
// Returns false when the token is unknown.
func (r *Registry) Mutate(token string, fn func(*Session)) bool {
	r.mu.RLock()
	e, ok := r.sessions[token]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	fn(&e.sess)
	e.sess.LastActive = time.Now()
	e.mu.Unlock()
	return true
}

// Drop removes the session. Dropping an unknown token is a no-op.
func (r *Registry) Drop(token string) {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StartJanitor runs a sweep loop until the context is cancelled. The sweep
// evicts idle sessions so abandoned calls do not accumulate forever.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
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
			if evicted := r.sweep(time.Now()); evicted > 0 {
				logger.Base().Info("evicted idle sessions",
					zap.Int("evicted", evicted),
					zap.Int("remaining", r.Len()),
				)
			}
		}
	}
}

func (r *Registry) sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for token, e := range r.sessions {
		e.mu.Lock()
		idle := now.Sub(e.sess.LastActive) > r.idleTimeout
		e.mu.Unlock()
		if idle {
			delete(r.sessions, token)
			evicted++
		}
	}
	return evicted
}
