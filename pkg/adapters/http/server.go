// Package http exposes a Bot over a JSON HTTP API.
//
// Routes:
//
//	POST   /conversations/{id}/messages  {"user_id", "text"} -> {"replies"}
//	POST   /conversations/{id}/members   {"user_id", "name"} -> {"replies"} (welcome)
//	GET    /conversations/{id}           persisted session
//	DELETE /conversations/{id}           forget the session
//	POST   /conversations/{id}/restart   fresh root dialog
//	GET    /conversations/{id}/events    SSE stream of session diffs
//	GET    /health, /info
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/bartender"
	"github.com/aretw0/bartender/internal/logging"
	"github.com/aretw0/bartender/pkg/domain"
	"github.com/aretw0/bartender/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Bot is the part of bartender.Bot the API needs.
type Bot interface {
	ProcessTurn(ctx context.Context, conversationID, userID, text string) ([]domain.Reply, error)
	Inspect(ctx context.Context, conversationID string) (*domain.Session, error)
	Restart(ctx context.Context, conversationID, userID string) (*domain.Session, error)
	Delete(ctx context.Context, conversationID string) error
	Welcome(name string) domain.Reply
}

var _ Bot = (*bartender.Bot)(nil)

// Server holds the handlers of the API.
type Server struct {
	Bot     Bot
	Streams *StreamManager
	logger  *slog.Logger
}

// Option configures the handler built by NewHandler.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	metrics http.Handler
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(c *config) { c.metrics = h }
}

// NewHandler creates the HTTP handler for bot.
func NewHandler(bot Bot, opts ...Option) http.Handler {
	cfg := &config{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}
	server := &Server{
		Bot:     bot,
		Streams: NewStreamManager(cfg.logger),
		logger:  cfg.logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	if cfg.metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metrics)
	}

	r.Route("/conversations/{id}", func(r chi.Router) {
		r.Get("/", server.GetConversation)
		r.Delete("/", server.DeleteConversation)
		r.Post("/messages", server.PostMessage)
		r.Post("/members", server.PostMember)
		r.Post("/restart", server.PostRestart)
		r.Get("/events", server.SubscribeEvents)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MessageRequest is the body of POST /conversations/{id}/messages.
type MessageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// MemberRequest is the body of POST /conversations/{id}/members.
type MemberRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// RestartRequest is the optional body of POST /conversations/{id}/restart.
type RestartRequest struct {
	UserID string `json:"user_id"`
}

// RepliesResponse carries the bot's answers to one request.
type RepliesResponse struct {
	ConversationID string         `json:"conversation_id"`
	Replies        []domain.Reply `json:"replies"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Replies []domain.Reply `json:"replies,omitempty"`
}

// PostMessage handles POST /conversations/{id}/messages.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		s.logger.Warn("PostMessage: Invalid request body", "err", err)
		return
	}

	// Sanitize Input (Global Policy)
	text, err := runner.SanitizeInput(body.Text)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid input: %v", err), nil)
		s.logger.Warn("PostMessage: Input rejected", "err", err, "size", len(body.Text))
		return
	}

	// The snapshot before the turn only feeds subscribers.
	var before *domain.Session
	if s.Streams.Subscribers(id) > 0 {
		before, _ = s.Bot.Inspect(r.Context(), id)
	}

	replies, err := s.Bot.ProcessTurn(r.Context(), id, body.UserID, text)
	if err != nil {
		s.fail(w, "PostMessage", id, err, replies)
		return
	}

	s.broadcast(r.Context(), id, before, replies)
	s.writeJSON(w, http.StatusOK, RepliesResponse{ConversationID: id, Replies: replies})
}

// PostMember handles POST /conversations/{id}/members: a user joined the conversation.
func (s *Server) PostMember(w http.ResponseWriter, r *http.Request) {
	var body MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = body.UserID
	}
	s.writeJSON(w, http.StatusOK, RepliesResponse{
		ConversationID: chi.URLParam(r, "id"),
		Replies:        []domain.Reply{s.Bot.Welcome(name)},
	})
}

// GetConversation handles GET /conversations/{id}.
func (s *Server) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := s.Bot.Inspect(r.Context(), id)
	if err != nil {
		s.fail(w, "GetConversation", id, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

// DeleteConversation handles DELETE /conversations/{id}.
func (s *Server) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Bot.Delete(r.Context(), id); err != nil {
		s.fail(w, "DeleteConversation", id, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostRestart handles POST /conversations/{id}/restart.
func (s *Server) PostRestart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body RestartRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid request body", nil)
			return
		}
	}
	if body.UserID == "" {
		if old, err := s.Bot.Inspect(r.Context(), id); err == nil {
			body.UserID = old.UserID
		}
	}

	session, err := s.Bot.Restart(r.Context(), id, body.UserID)
	if err != nil {
		s.fail(w, "PostRestart", id, err, nil)
		return
	}
	s.broadcast(r.Context(), id, nil, nil)
	s.writeJSON(w, http.StatusOK, session)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "bartender-http",
		"version": strings.TrimSpace(bartender.Version),
	})
}

// SubscribeEvents handles GET /conversations/{id}/events (SSE).
// Every event carries a JSON domain.SessionDiff.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "Streaming not supported", nil)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")
	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	s.logger.Info("SSE: Subscribing to conversation updates", "conversation_id", id)
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "conversation_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// broadcast sends the diff between before and the persisted session to the
// conversation's subscribers.
func (s *Server) broadcast(ctx context.Context, id string, before *domain.Session, replies []domain.Reply) {
	if s.Streams.Subscribers(id) == 0 {
		return
	}
	after, err := s.Bot.Inspect(ctx, id)
	if err != nil {
		s.logger.Warn("SSE: failed to load session for diff", "conversation_id", id, "err", err)
		return
	}
	diff := domain.Diff(before, after, replies)
	if diff == nil {
		return
	}
	b, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("SSE: failed to encode diff", "conversation_id", id, "err", err)
		return
	}
	s.Streams.Broadcast(id, string(b))
}

// StatusFor maps bot errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSessionDone):
		return http.StatusConflict
	case errors.Is(err, runner.ErrInputTooLarge), errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, bartender.ErrTurnTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, op, id string, err error, replies []domain.Reply) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "conversation_id", id, "err", err)
	} else {
		s.logger.Debug(op+" rejected", "conversation_id", id, "err", err)
	}
	s.writeError(w, status, err.Error(), replies)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, replies []domain.Reply) {
	s.writeJSON(w, status, ErrorResponse{Error: msg, Replies: replies})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
