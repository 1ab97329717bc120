package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PabloGalante/sweep-agent/internal/domain"
	"github.com/PabloGalante/sweep-agent/internal/observability"
)

// DefaultGenerationParams are sent with every completion request.
var DefaultGenerationParams = domain.GenerationParams{
	Temperature:     0.7,
	MaxOutputTokens: 1024,
}

// errEmptyReply is returned for a completion with no text; nothing is stored.
var errEmptyReply = errors.New("empty reply")

type Service struct {
	llm     domain.LLMClient
	store   domain.SessionStore
	metrics *observability.Metrics
	now     func() time.Time

	// nil when same-session turns are not serialized
	locks           *sessionLocks
	upstreamTimeout time.Duration
}

type Option func(*Service)

// WithClock sets the clock used for the date and season in the prompt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSerializedTurns makes Converse calls for the same session run one at a
// time. Without it concurrent turns on one session are last-write-wins.
func WithSerializedTurns(enabled bool) Option {
	return func(s *Service) {
		if enabled {
			s.locks = newSessionLocks()
		} else {
			s.locks = nil
		}
	}
}

// WithUpstreamTimeout bounds each completion call. Zero means no bound.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(s *Service) { s.upstreamTimeout = d }
}

func NewService(llm domain.LLMClient, store domain.SessionStore, opts ...Option) *Service {
	s := &Service{
		llm:   llm,
		store: store,
		now:   time.Now,
		locks: newSessionLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) StartSession(ctx context.Context) (domain.SessionID, error) {
	log := observability.LoggerFromContext(ctx)

	id, err := s.store.CreateSession(ctx)
	if err != nil {
		log.Error("failed to create session", "error", err)
		return "", err
	}

	s.metrics.SessionCreated()
	log.Info("session started", "session_id", id)
	return id, nil
}

func (s *Service) ListSessions(ctx context.Context) ([]domain.SessionInfo, error) {
	infos, err := s.store.ListSessions(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list sessions", "error", err)
		return nil, err
	}
	return infos, nil
}

// History returns the stored turns of a session, empty if it is unknown.
func (s *Service) History(ctx context.Context, id domain.SessionID) ([]domain.Turn, error) {
	turns, err := s.store.LoadTurns(ctx, id)
	if err != nil {
		logFailure(observability.LoggerFromContext(ctx).With("session_id", id), "failed to load history", err)
		return nil, err
	}
	return turns, nil
}

// DeleteSession removes a session. Unknown ids yield domain.ErrNotFound.
func (s *Service) DeleteSession(ctx context.Context, id domain.SessionID) error {
	log := observability.LoggerFromContext(ctx).With("session_id", id)

	removed, err := s.store.DeleteSession(ctx, id)
	if err != nil {
		logFailure(log, "failed to delete session", err)
		return err
	}
	if !removed {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, id)
	}

	s.metrics.SessionDeleted()
	log.Info("session deleted")
	return nil
}

// Converse runs one exchange: load history, ask the model, then append the
// user message and the reply. The store is left untouched unless the model
// call succeeds.
func (s *Service) Converse(ctx context.Context, id domain.SessionID, userMessage string) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		s.metrics.ObserveTurn(observability.OutcomeInvalid)
		return "", fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	if !id.Valid() {
		s.metrics.ObserveTurn(observability.OutcomeInvalid)
		return "", fmt.Errorf("%w: invalid session id %q", domain.ErrValidation, id)
	}

	log := observability.LoggerFromContext(ctx).With("session_id", id)
	log.Info("conversation turn", "message_len", len(userMessage))

	if s.locks != nil {
		unlock := s.locks.lock(id)
		defer unlock()
	}

	history, err := s.store.LoadTurns(ctx, id)
	if err != nil {
		logFailure(log, "failed to load history", err)
		s.metrics.ObserveTurn(outcomeFor(err))
		return "", err
	}

	prompt := BuildPrompt(s.now(), history, userMessage)

	reply, err := s.generate(ctx, prompt)
	if err == nil && reply == "" {
		err = errEmptyReply
	}
	if err != nil {
		log.Error("completion failed", "error", err)
		s.metrics.ObserveTurn(observability.OutcomeUpstream)
		return "", fmt.Errorf("%w: %w", domain.ErrUpstream, err)
	}

	if err := s.store.AppendTurns(ctx, id, domain.UserTurn(userMessage), domain.AssistantTurn(reply)); err != nil {
		logFailure(log, "failed to append turns", err)
		s.metrics.ObserveTurn(outcomeFor(err))
		return "", err
	}

	s.metrics.ObserveTurn(observability.OutcomeOK)
	log.Info("conversation turn completed", "history_len", len(history)+2)
	return reply, nil
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	if s.upstreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.upstreamTimeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := s.llm.GenerateReply(ctx, prompt, DefaultGenerationParams)
	elapsed := time.Since(start)

	s.metrics.ObserveUpstream(elapsed)
	observability.LoggerFromContext(ctx).Debug("completion call", "elapsed_ms", elapsed.Milliseconds())
	return reply, err
}

// logFailure logs storage faults at error level and anything else, such as
// a rejected id, at warn.
func logFailure(log *slog.Logger, msg string, err error) {
	if errors.Is(err, domain.ErrStorage) {
		log.Error(msg, "error", err)
		return
	}
	log.Warn(msg, "error", err)
}

func outcomeFor(err error) string {
	if errors.Is(err, domain.ErrValidation) {
		return observability.OutcomeInvalid
	}
	return observability.OutcomeStorage
}
