package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/AvaWorks/TaskAssist/internal/models"
)

// Registry maps session ids to owned trackers. Each session is guarded by
// its own lock so distinct sessions process turns concurrently while one
// session's turns stay strictly sequential.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	mu      sync.Mutex
	tracker *Tracker
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*entry)}
}

// NewSessionID mints an opaque session identifier.
func NewSessionID() string {
	return uuid.New().String()
}

// ShortID returns the 8-character prefix used in log output. Persisted
// records always carry the full id.
func ShortID(sessionID string) string {
	if len(sessionID) <= 8 {
		return sessionID
	}
	return sessionID[:8]
}

// Acquire returns the tracker for a session with its per-session lock held,
// creating the session on first message. The returned release function must
// be called when the turn completes.
func (r *Registry) Acquire(sessionID string) (*Tracker, func()) {
	r.mu.Lock()
	e, ok := r.sessions[sessionID]
	if !ok {
		e = &entry{tracker: NewTracker(sessionID)}
		r.sessions[sessionID] = e
		slog.Debug("Registry.Acquire: created session", "sessionID", ShortID(sessionID))
	}
	r.mu.Unlock()

	e.mu.Lock()
	return e.tracker, e.mu.Unlock
}

// Reset archives a session: the old tracker is removed and returned for
// persistence, and a fresh session id is minted. The old tracker's lock is
// held briefly to let any in-flight turn finish first.
func (r *Registry) Reset(sessionID string) (newID string, old *Tracker) {
	r.mu.Lock()
	e, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
	}
	newID = NewSessionID()
	r.sessions[newID] = &entry{tracker: NewTracker(newID)}
	r.mu.Unlock()

	if ok {
		e.mu.Lock()
		old = e.tracker
		e.mu.Unlock()
	}
	slog.Info("Registry.Reset: new session started", "old", ShortID(sessionID), "new", ShortID(newID))
	return newID, old
}

// StateOf returns a cloned point-in-time dialogue state for an existing
// session. The clone happens under the session's own lock, so a read never
// observes a turn in progress.
func (r *Registry) StateOf(sessionID string) (models.DialogueState, bool) {
	r.mu.Lock()
	e, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok {
		return models.DialogueState{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.State(), true
}

// All returns the trackers of every live session.
func (r *Registry) All() []*Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	trackers := make([]*Tracker, 0, len(r.sessions))
	for _, e := range r.sessions {
		trackers = append(trackers, e.tracker)
	}
	return trackers
}
