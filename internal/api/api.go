// Package api exposes the HTTP surface of TaskAssist: a chat endpoint plus
// session inspection and reset endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/AvaWorks/TaskAssist/internal/dialogue"
	"github.com/AvaWorks/TaskAssist/internal/models"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8080"

// DefaultHistoryLimit bounds GET /api/sessions/{id}/history when no limit
// query parameter is given.
const DefaultHistoryLimit = 50

// Opts holds configuration options for the API server.
type Opts struct {
	Addr         string
	HistoryLimit int
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithHistoryLimit sets the default number of turns returned by the
// history endpoint when no limit parameter is given.
func WithHistoryLimit(limit int) Option {
	return func(o *Opts) {
		o.HistoryLimit = limit
	}
}

// Server hosts the HTTP endpoints and delegates every turn to the
// dialogue orchestrator.
type Server struct {
	orchestrator *dialogue.Orchestrator
	httpServer   *http.Server
	historyLimit int
}

// NewServer creates the API server around an orchestrator.
func NewServer(orchestrator *dialogue.Orchestrator, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}

	s := &Server{orchestrator: orchestrator, historyLimit: cfg.HistoryLimit}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route table. Exposed separately so tests can drive
// the mux without a listener.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)
	r.Route("/api", func(api chi.Router) {
		api.Post("/messages", s.messageHandler)
		api.Route("/sessions", func(sessions chi.Router) {
			sessions.Post("/reset", s.resetHandler)
			sessions.Get("/{sessionID}/state", s.stateHandler)
			sessions.Get("/{sessionID}/history", s.historyHandler)
		})
	})
	return r
}

// Start begins serving. It blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	slog.Info("Server.Start: listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]interface{}{
		"state":           "healthy",
		"active_sessions": s.orchestrator.ActiveSessions(),
	}))
}

// messageHandler handles POST /api/messages: one user turn in, one
// assistant reply out.
func (s *Server) messageHandler(w http.ResponseWriter, r *http.Request) {
	var req models.ChatMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.messageHandler: invalid JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.messageHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	reply, err := s.orchestrator.ProcessMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		slog.Error("Server.messageHandler: turn failed", "error", err, "sessionID", req.SessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}

	state, err := s.orchestrator.SessionState(req.SessionID)
	if err != nil {
		slog.Error("Server.messageHandler: state lookup failed", "error", err, "sessionID", req.SessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to read session state"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.Success(models.ChatMessageResponse{
		SessionID: req.SessionID,
		Response:  reply,
		Stage:     state.Stage,
		Intent:    state.Intent,
	}))
}

// resetHandler handles POST /api/sessions/reset and returns the
// replacement session id.
func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	var req models.SessionResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.SessionID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrEmptySessionID.Error()))
		return
	}

	newID, err := s.orchestrator.ResetSession(r.Context(), req.SessionID)
	if err != nil {
		slog.Error("Server.resetHandler: reset failed", "error", err, "sessionID", req.SessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to reset session"))
		return
	}

	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Session reset",
		models.SessionResetResponse{SessionID: newID}))
}

// stateHandler handles GET /api/sessions/{sessionID}/state.
func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	state, err := s.orchestrator.SessionState(sessionID)
	if err != nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Session not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(state))
}

// historyHandler handles GET /api/sessions/{sessionID}/history with an
// optional limit query parameter.
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	limit := s.historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid limit parameter"))
			return
		}
		limit = parsed
	}

	turns, err := s.orchestrator.SessionHistory(sessionID, limit)
	if err != nil {
		slog.Error("Server.historyHandler: history lookup failed", "error", err, "sessionID", sessionID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to read session history"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(turns))
}
