package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/logging"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/keys"
	"github.com/aretw0/abacus/pkg/ports"
	"github.com/aretw0/abacus/pkg/runner"
	"github.com/aretw0/abacus/pkg/session"
	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodySize bounds request bodies; key scripts are tiny.
const maxBodySize = 64 << 10

// Server exposes calculator sessions over HTTP.
type Server struct {
	Engine   ports.StatelessEngine
	Sessions *session.Manager
	Streams  *StreamManager

	logger  *slog.Logger
	metrics http.Handler
	newID   func() string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler serves h on /metrics instead of the default Prometheus handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithIDGenerator overrides how session IDs are minted (default: random UUIDs).
func WithIDGenerator(fn func() string) Option {
	return func(s *Server) {
		s.newID = fn
	}
}

// NewServer wires a Server. Call Handler to obtain the router.
func NewServer(engine ports.StatelessEngine, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Engine:   engine,
		Sessions: sessions,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
		metrics:  promhttp.Handler(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.StatelessEngine, sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(engine, sessions, opts...).Handler()
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Handle("/metrics", s.metrics)
	r.Post("/evaluate", s.Evaluate)

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/keys", s.PressKeys)
			r.Post("/history/{index}", s.SelectHistory)
			r.Delete("/history", s.ClearHistory)
			r.Get("/events", s.SubscribeEvents)
			r.Get("/ws", s.Socket)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match")
		w.Header().Set("Access-Control-Expose-Headers", "ETag")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// KeysRequest is the body of POST /sessions/{id}/keys.
// Keys is a compact key script ("12+3×sin="); KeyList holds one button label per item.
// Exactly one of them should be set; when both are, KeyList wins.
type KeysRequest struct {
	Keys    string   `json:"keys,omitempty"`
	KeyList []string `json:"key_list,omitempty"`
}

// EvaluateRequest is the body of POST /evaluate.
type EvaluateRequest struct {
	Expression string `json:"expression"`
}

// EvaluateResponse is returned by POST /evaluate.
type EvaluateResponse struct {
	Expression string `json:"expression"`
	Result     string `json:"result"`
}

// CreateSessionRequest is the optional body of POST /sessions.
type CreateSessionRequest struct {
	ID string `json:"id,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "abacus-http",
		"version": abacus.Version,
	})
}

// Evaluate handles POST /evaluate, a one-off calculation outside any session.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	var body EvaluateRequest
	if !s.decode(w, r, &body) {
		return
	}
	expr, err := runner.SanitizeInput(body.Expression)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := s.Engine.Evaluate(expr)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EvaluateResponse{Expression: expr, Result: result})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// CreateSession handles POST /sessions. An existing ID is returned as is.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if r.ContentLength != 0 && !s.decode(w, r, &body) {
		return
	}
	id := body.ID
	if id == "" {
		id = s.newID()
	}

	state, err := s.Sessions.LoadOrStart(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+id)
	writeJSON(w, http.StatusCreated, state)
}

// GetSession handles GET /sessions/{id}, honoring If-None-Match.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	data, err := json.Marshal(state)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tag := ETag(state)
	w.Header().Set("ETag", tag)
	if match := r.Header.Get("If-None-Match"); match == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(data, '\n'))
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PressKeys handles POST /sessions/{id}/keys.
func (s *Server) PressKeys(w http.ResponseWriter, r *http.Request) {
	var body KeysRequest
	if !s.decode(w, r, &body) {
		return
	}
	ks, err := parseKeys(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	state, err := s.apply(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, st *domain.State) (*domain.State, error) {
		return s.Engine.Press(ctx, st, ks...)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// SelectHistory handles POST /sessions/{id}/history/{index}.
func (s *Server) SelectHistory(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %q", domain.ErrHistoryIndex, chi.URLParam(r, "index")))
		return
	}

	state, err := s.apply(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, st *domain.State) (*domain.State, error) {
		return s.Engine.SelectHistory(ctx, st, index)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// ClearHistory handles DELETE /sessions/{id}/history.
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	state, err := s.apply(r.Context(), chi.URLParam(r, "id"), s.Engine.ClearHistory)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// apply runs fn under the session lock and broadcasts the resulting diff.
func (s *Server) apply(ctx context.Context, id string, fn func(context.Context, *domain.State) (*domain.State, error)) (*domain.State, error) {
	var before *domain.State
	next, err := s.Sessions.Modify(ctx, id, func(ctx context.Context, st *domain.State) (*domain.State, error) {
		before = st.Snapshot()
		return fn(ctx, st)
	})
	if err != nil {
		return nil, err
	}

	if diff := domain.Diff(before, next); diff != nil {
		if data, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(id, string(data))
		}
	}
	return next, nil
}

func parseKeys(body KeysRequest) ([]domain.Key, error) {
	if len(body.KeyList) > 0 {
		ks := make([]domain.Key, 0, len(body.KeyList))
		for _, label := range body.KeyList {
			k, err := domain.ParseKey(label)
			if err != nil {
				return nil, err
			}
			ks = append(ks, k)
		}
		return ks, nil
	}

	script, err := runner.SanitizeInput(body.Keys)
	if err != nil {
		return nil, err
	}
	return keys.Parse(script)
}

// ETag derives a strong entity tag from the visible session fields.
// UpdatedAt is left out, so a no-op key-press keeps the tag stable.
func ETag(state *domain.State) string {
	h := xxhash.New()
	_, _ = h.WriteString(state.SessionID)
	_, _ = h.WriteString("\x00" + state.Buffer)
	_, _ = h.WriteString("\x00" + state.Preview)
	_, _ = h.WriteString("\x00" + strconv.FormatBool(state.Pending))
	for _, e := range state.History {
		_, _ = h.WriteString("\x00" + e.Expression + "=" + e.Result)
	}
	return fmt.Sprintf("%q", strconv.FormatUint(h.Sum64(), 16))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownKey),
		errors.Is(err, domain.ErrHistoryIndex),
		errors.Is(err, runner.ErrInputTooLarge),
		errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidExpression),
		errors.Is(err, domain.ErrInvalidResult):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}
