// Package store provides persistence backends for TaskAssist.
//
// Two logical streams are persisted: conversation turns keyed by session id
// and executed actions. SQLite and PostgreSQL implementations share the
// Store interface; an in-memory implementation backs tests.
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/AvaWorks/TaskAssist/internal/models"
)

// Store is the persistence sink contract for turns and actions.
type Store interface {
	// SaveTurn appends one completed exchange to the session's stream.
	SaveTurn(rec models.TurnRecord) error

	// GetTurnHistory returns the most recent turns for a session in
	// chronological order, at most limit entries (limit <= 0: all).
	GetTurnHistory(sessionID string, limit int) ([]models.TurnRecord, error)

	// SaveAction appends an executed action to the all-actions log.
	SaveAction(rec models.ActionRecord) error

	// GetActions returns the executed actions for a session in order.
	GetActions(sessionID string) ([]models.ActionRecord, error)

	// Close releases the backend.
	Close() error
}

// Opts holds configuration applied via Option.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithDSN sets the database connection string (file path for SQLite).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType reports "postgres" for PostgreSQL connection strings and
// "sqlite" for anything else, which is treated as a file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// InMemoryStore is a simple in-memory store used by tests.
type InMemoryStore struct {
	mu      sync.Mutex
	turns   []models.TurnRecord
	actions []models.ActionRecord

	// FailWrites makes every write error, for sink failure tests.
	FailWrites bool
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) SaveTurn(rec models.TurnRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errSimulatedWrite
	}
	s.turns = append(s.turns, rec)
	return nil
}

func (s *InMemoryStore) GetTurnHistory(sessionID string, limit int) ([]models.TurnRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TurnRecord
	for _, rec := range s.turns {
		if rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *InMemoryStore) SaveAction(rec models.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errSimulatedWrite
	}
	s.actions = append(s.actions, rec)
	return nil
}

func (s *InMemoryStore) GetActions(sessionID string) ([]models.ActionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ActionRecord
	for _, rec := range s.actions {
		if rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
