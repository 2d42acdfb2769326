// Package store provides persistence backends for TaskAssist.
//
// This file implements the SQLite-backed store for turns and actions.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/AvaWorks/TaskAssist/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN is a file path to the SQLite database file; the containing
// directory is created when absent.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveTurn(rec models.TurnRecord) error {
	slotsJSON, err := json.Marshal(rec.Slots)
	if err != nil {
		return fmt.Errorf("failed to marshal slots: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO conversation_turns (session_id, user_message, assistant_response, intent, slots, awaiting_confirmation, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.UserMessage, rec.AssistantResponse, string(rec.Intent), string(slotsJSON), rec.AwaitingConfirm, rec.Timestamp,
	)
	if err != nil {
		slog.Error("SQLiteStore SaveTurn failed", "error", err, "sessionID", rec.SessionID)
		return fmt.Errorf("failed to insert turn for %s: %w", rec.SessionID, err)
	}
	slog.Debug("SQLiteStore SaveTurn succeeded", "sessionID", rec.SessionID)
	return nil
}

func (s *SQLiteStore) GetTurnHistory(sessionID string, limit int) ([]models.TurnRecord, error) {
	query := `SELECT session_id, user_message, assistant_response, intent, slots, awaiting_confirmation, created_at
		FROM conversation_turns WHERE session_id = ? ORDER BY id`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		// Take the newest N, then restore chronological order.
		query = `SELECT session_id, user_message, assistant_response, intent, slots, awaiting_confirmation, created_at FROM (
			SELECT id, session_id, user_message, assistant_response, intent, slots, awaiting_confirmation, created_at
			FROM conversation_turns WHERE session_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id`
		rows, err = s.db.Query(query, sessionID, limit)
	} else {
		rows, err = s.db.Query(query, sessionID)
	}
	if err != nil {
		slog.Error("SQLiteStore GetTurnHistory query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()
	return scanTurns(rows)
}

func (s *SQLiteStore) SaveAction(rec models.ActionRecord) error {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal action fields: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO actions (id, session_id, action_type, fields, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, string(rec.Type), string(fieldsJSON), rec.CreatedAt,
	)
	if err != nil {
		slog.Error("SQLiteStore SaveAction failed", "error", err, "actionID", rec.ID)
		return fmt.Errorf("failed to insert action %s: %w", rec.ID, err)
	}
	slog.Debug("SQLiteStore SaveAction succeeded", "actionID", rec.ID, "type", rec.Type)
	return nil
}

func (s *SQLiteStore) GetActions(sessionID string) ([]models.ActionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, action_type, fields, created_at FROM actions WHERE session_id = ? ORDER BY created_at`,
		sessionID,
	)
	if err != nil {
		slog.Error("SQLiteStore GetActions query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()
	return scanActions(rows)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
