// Package server exposes chat sessions over HTTP. Each session owns its own
// conversation store and client; replies can be replayed with the typing
// animation over a WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/leofalp/chatwidget/core/attachment"
	"github.com/leofalp/chatwidget/core/client"
	"github.com/leofalp/chatwidget/core/conversation"
	"github.com/leofalp/chatwidget/core/format"
	"github.com/leofalp/chatwidget/core/reveal"
	"github.com/leofalp/chatwidget/providers/ai"
	"github.com/leofalp/chatwidget/providers/memory"
	"github.com/leofalp/chatwidget/providers/memory/inmemory"
	"github.com/leofalp/chatwidget/providers/observability"
)

// ErrSessionNotFound is returned for unknown or deleted session ids.
var ErrSessionNotFound = errors.New("session not found")

// BackendFactory creates the turn storage for a new session.
type BackendFactory func(ctx context.Context, sessionID string) (memory.Provider, error)

// Server routes widget requests to per-session clients.
type Server struct {
	provider     ai.Provider
	backends     BackendFactory
	formatter    *format.Formatter
	loader       *attachment.Loader
	revealer     *reveal.Revealer
	maxTurns     int
	systemPrompt string
	model        string
	greeting     string
	rateLimit    rate.Limit
	rateBurst    int
	middlewares  []client.Middleware
	observer     observability.Provider
	logger       *slog.Logger
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	id      string
	client  *client.Client
	limiter *rate.Limiter

	mu        sync.Mutex
	lastReply string
	lastSeen  time.Time
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// Option configures a Server.
type Option func(*Server)

// WithBackend sets how session storage is created. Defaults to in-memory.
func WithBackend(factory BackendFactory) Option {
	return func(s *Server) { s.backends = factory }
}

// WithFormatter sets the reply formatter shared by all sessions. Defaults to plain mode.
func WithFormatter(f *format.Formatter) Option {
	return func(s *Server) { s.formatter = f }
}

// WithLoader sets the attachment loader. Defaults to the 8 MB image-only limit.
func WithLoader(l *attachment.Loader) Option {
	return func(s *Server) { s.loader = l }
}

// WithRevealer sets the pace of the reveal stream.
func WithRevealer(r *reveal.Revealer) Option {
	return func(s *Server) { s.revealer = r }
}

// WithMaxTurns sets the number of exchanges kept per session.
func WithMaxTurns(n int) Option {
	return func(s *Server) { s.maxTurns = n }
}

// WithSystemPrompt pins prompt at the head of every session.
func WithSystemPrompt(prompt string) Option {
	return func(s *Server) { s.systemPrompt = prompt }
}

// WithModel sets the model name sent with every request.
func WithModel(model string) Option {
	return func(s *Server) { s.model = model }
}

// WithGreeting sets the text revealed before the first reply.
func WithGreeting(greeting string) Option {
	return func(s *Server) { s.greeting = greeting }
}

// WithRateLimit limits submissions per session to limit per second with the
// given burst.
func WithRateLimit(limit float64, burst int) Option {
	return func(s *Server) {
		s.rateLimit = rate.Limit(limit)
		s.rateBurst = burst
	}
}

// WithMiddleware adds client middlewares to every session.
func WithMiddleware(middlewares ...client.Middleware) Option {
	return func(s *Server) { s.middlewares = append(s.middlewares, middlewares...) }
}

// WithObserver enables tracing, metrics and logging for every session client.
func WithObserver(observer observability.Provider) Option {
	return func(s *Server) { s.observer = observer }
}

// WithLogger sets the logger for server events. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a Server that sends every session's history to provider.
func New(provider ai.Provider, opts ...Option) *Server {
	s := &Server{
		provider:  provider,
		maxTurns:  conversation.DefaultMaxTurns,
		rateLimit: rate.Limit(1),
		rateBurst: 3,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.backends == nil {
		s.backends = func(context.Context, string) (memory.Provider, error) { return inmemory.New(), nil }
	}
	if s.formatter == nil {
		s.formatter = format.NewFormatter()
	}
	if s.loader == nil {
		s.loader = attachment.NewLoader(attachment.DefaultMaxSizeMB)
	}
	if s.revealer == nil {
		s.revealer = reveal.New(reveal.DefaultInterval)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Handler returns the HTTP routes of the widget API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("POST /api/sessions/{id}/messages", s.handleMessage)
	mux.HandleFunc("GET /api/sessions/{id}/history", s.handleHistory)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("GET /api/sessions/{id}/reveal", s.handleReveal)
	return mux
}

// CreateSession starts a new conversation and returns its id.
func (s *Server) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()

	backend, err := s.backends(ctx, id)
	if err != nil {
		return "", err
	}
	if _, err := s.addSession(id, backend); err != nil {
		return "", err
	}
	return id, nil
}

// addSession registers a session over backend. When another caller
// registered the same id first, that session wins.
func (s *Server) addSession(id string, backend memory.Provider) (*session, error) {
	store := conversation.New(backend,
		conversation.WithMaxTurns(s.maxTurns),
		conversation.WithSystemPrompt(s.systemPrompt),
	)

	opts := []client.Option{
		client.WithFormatter(s.formatter),
		client.WithModel(s.model),
		client.WithMiddleware(s.middlewares...),
	}
	if s.observer != nil {
		opts = append(opts, client.WithObserver(s.observer))
	}
	c, err := client.New(store, s.provider, opts...)
	if err != nil {
		return nil, err
	}

	sess := &session{
		id:       id,
		client:   c,
		limiter:  rate.NewLimiter(s.rateLimit, s.rateBurst),
		lastSeen: s.now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		return existing, nil
	}
	s.sessions[id] = sess
	return sess, nil
}

// lookup returns a live session. An id missing from the session map is
// restored when its backend already holds turns, which is the case for
// persistent backends after eviction or a restart.
func (s *Server) lookup(ctx context.Context, id string) (*session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		restored, err := s.restore(ctx, id)
		if err != nil {
			return nil, err
		}
		sess = restored
	}
	sess.touch(s.now())
	return sess, nil
}

func (s *Server) restore(ctx context.Context, id string) (*session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	backend, err := s.backends(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("opening session %s: %w", id, err)
	}
	turns, err := backend.AllTurns(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening session %s: %w", id, err)
	}
	if len(turns) == 0 {
		return nil, ErrSessionNotFound
	}

	sess, err := s.addSession(id, backend)
	if err != nil {
		return nil, err
	}
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == ai.RoleModel {
			sess.mu.Lock()
			if sess.lastReply == "" {
				sess.lastReply = turns[i].Text()
			}
			sess.mu.Unlock()
			break
		}
	}
	s.logger.DebugContext(ctx, "session restored", slog.String("session", id), slog.Int("turns", len(turns)))
	return sess, nil
}

// DeleteSession clears the stored history and forgets the session. An
// evicted session with persisted turns is restored first so its rows go too.
func (s *Server) DeleteSession(ctx context.Context, id string) error {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return sess.client.Store().Reset(ctx)
}

// EvictIdle forgets sessions not used for longer than idle and returns how
// many were dropped. Persistent history is left in place and the session is
// restored from it on its next request.
func (s *Server) EvictIdle(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		stale := sess.lastSeen.Before(cutoff) && !sess.client.Busy()
		sess.mu.Unlock()
		if stale {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// SessionCount returns the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sessionFor resolves the {id} path value, writing the error response when
// the session cannot be used.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, err := s.lookup(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	case err != nil:
		s.logger.ErrorContext(r.Context(), "session lookup failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "could not open session")
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
