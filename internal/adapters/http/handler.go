package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PabloGalante/sweep-agent/internal/app/conversation"
	"github.com/PabloGalante/sweep-agent/internal/domain"
	"github.com/PabloGalante/sweep-agent/internal/observability"
)

// maxBodyBytes caps JSON request bodies at 100kb.
const maxBodyBytes = 100 << 10

type Server struct {
	svc       *conversation.Service
	metrics   *observability.Metrics
	staticDir string
	now       func() time.Time
}

type Option func(*Server)

// WithMetrics records per-route metrics and exposes GET /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithStaticDir serves the browser UI from dir at /.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// WithClock sets the clock used by /api/season.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(svc *conversation.Service, opts ...Option) http.Handler {
	s := &Server{
		svc: svc,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()

	s.route(mux, "POST /api/session", s.handleCreateSession)
	s.route(mux, "GET /api/sessions", s.handleListSessions)
	s.route(mux, "GET /api/chat/{sessionId}", s.handleGetHistory)
	s.route(mux, "POST /api/chat/{sessionId}", s.handleSendMessage)
	s.route(mux, "DELETE /api/chat/{sessionId}", s.handleDeleteSession)
	s.route(mux, "GET /api/season", s.handleSeason)
	s.route(mux, "GET /healthz", s.handleHealthz)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}

	return chainMiddlewares(mux,
		withLogging,
		withCORS,
		withRequestID,
	)
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, withMetrics(s.metrics, pattern, h))
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
}

type sessionSummaryResponse struct {
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
	Date      string `json:"date"`
}

type turnResponse struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type sendMessageResponse struct {
	Response string `json:"response"`
}

type deleteSessionResponse struct {
	Success bool `json:"success"`
}

type seasonResponse struct {
	Season string `json:"season"`
	Icon   string `json:"icon"`
	Theme  string `json:"theme"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.svc.StartSession(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, createSessionResponse{SessionID: string(id)})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	infos, err := s.svc.ListSessions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionSummaries(infos))
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("sessionId"))

	turns, err := s.svc.History(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTurnsResponse(turns))
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("sessionId"))

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req sendMessageRequest
	// An empty body is treated as a missing message.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": "request entity too large",
			})
			return
		}
		badRequest(w, "invalid JSON body")
		return
	}

	reply, err := s.svc.Converse(r.Context(), id, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{Response: reply})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := domain.SessionID(r.PathValue("sessionId"))

	if err := s.svc.DeleteSession(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteSessionResponse{Success: true})
}

func (s *Server) handleSeason(w http.ResponseWriter, r *http.Request) {
	season := domain.SeasonAt(s.now())

	writeJSON(w, http.StatusOK, seasonResponse{
		Season: string(season),
		Icon:   season.Icon(),
		Theme:  season.Theme(),
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

// sessionDateLayout renders listing dates as "M/D/YYYY, h:mm:ss PM".
const sessionDateLayout = "1/2/2006, 3:04:05 PM"

func toSessionSummaries(infos []domain.SessionInfo) []sessionSummaryResponse {
	out := make([]sessionSummaryResponse, 0, len(infos))
	for _, in := range infos {
		var date string
		if !in.CreatedAt.IsZero() {
			date = in.CreatedAt.Local().Format(sessionDateLayout)
		}
		out = append(out, sessionSummaryResponse{
			SessionID: string(in.ID),
			Timestamp: in.Timestamp,
			Date:      date,
		})
	}
	return out
}

func toTurnsResponse(turns []domain.Turn) []turnResponse {
	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnResponse{
			Role:    string(t.Role),
			Content: t.Content,
		})
	}
	return out
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "Failed to process your request",
	})
}

// writeError maps domain error kinds to a status and a short message.
// Internal details are logged, never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		badRequest(w, validationMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		notFound(w, "Session not found")
	default:
		observability.LoggerFromContext(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		internalError(w)
	}
}

func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
	if msg == "message is required" {
		return "Message is required"
	}
	return msg
}
