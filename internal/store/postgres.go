// Package store provides persistence backends for TaskAssist.
//
// This file implements the PostgreSQL-backed store for turns and actions.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/AvaWorks/TaskAssist/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveTurn(rec models.TurnRecord) error {
	slotsJSON, err := json.Marshal(rec.Slots)
	if err != nil {
		return fmt.Errorf("failed to marshal slots: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO conversation_turns (session_id, user_message, assistant_response, intent, slots, awaiting_confirmation, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.SessionID, rec.UserMessage, rec.AssistantResponse, string(rec.Intent), string(slotsJSON), rec.AwaitingConfirm, rec.Timestamp,
	)
	if err != nil {
		slog.Error("PostgresStore SaveTurn failed", "error", err, "sessionID", rec.SessionID)
		return fmt.Errorf("failed to insert turn for %s: %w", rec.SessionID, err)
	}
	return nil
}

func (s *PostgresStore) GetTurnHistory(sessionID string, limit int) ([]models.TurnRecord, error) {
	query := `SELECT session_id, user_message, assistant_response, intent, slots, awaiting_confirmation, created_at
		FROM conversation_turns WHERE session_id = $1 ORDER BY id`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		query = `SELECT session_id, user_message, assistant_response, intent, slots, awaiting_confirmation, created_at FROM (
			SELECT id, session_id, user_message, assistant_response, intent, slots, awaiting_confirmation, created_at
			FROM conversation_turns WHERE session_id = $1 ORDER BY id DESC LIMIT $2
		) recent ORDER BY id`
		rows, err = s.db.Query(query, sessionID, limit)
	} else {
		rows, err = s.db.Query(query, sessionID)
	}
	if err != nil {
		slog.Error("PostgresStore GetTurnHistory query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

func (s *PostgresStore) SaveAction(rec models.ActionRecord) error {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal action fields: %w", err)
	}
	// ON CONFLICT keeps the exactly-once handoff idempotent on retries.
	_, err = s.db.Exec(
		`INSERT INTO actions (id, session_id, action_type, fields, created_at) VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.SessionID, string(rec.Type), string(fieldsJSON), rec.CreatedAt,
	)
	if err != nil {
		slog.Error("PostgresStore SaveAction failed", "error", err, "actionID", rec.ID)
		return fmt.Errorf("failed to insert action %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) GetActions(sessionID string) ([]models.ActionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, action_type, fields, created_at FROM actions WHERE session_id = $1 ORDER BY created_at`,
		sessionID,
	)
	if err != nil {
		slog.Error("PostgresStore GetActions query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()
	return scanActions(rows)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
