package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PabloGalante/sweep-agent/internal/domain"
)

// SessionStore is an in-memory domain.SessionStore.
// It is NOT persistent and is only suitable for development / tests.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID][]domain.Turn
	now      func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.SessionID][]domain.Turn),
		now:      time.Now,
	}
}

func (s *SessionStore) CreateSession(_ context.Context) (domain.SessionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Same collision rule as the file store: bump by a millisecond.
	ts := s.now()
	id := domain.NewSessionID(ts)
	for {
		if _, exists := s.sessions[id]; !exists {
			break
		}
		ts = ts.Add(time.Millisecond)
		id = domain.NewSessionID(ts)
	}

	s.sessions[id] = []domain.Turn{}
	return id, nil
}

func (s *SessionStore) AppendTurns(_ context.Context, id domain.SessionID, turns ...domain.Turn) error {
	if !id.Valid() {
		return fmt.Errorf("%w: invalid session id %q", domain.ErrValidation, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// copy so callers holding an earlier LoadTurns result never see the append
	prev := s.sessions[id]
	next := make([]domain.Turn, 0, len(prev)+len(turns))
	next = append(next, prev...)
	next = append(next, turns...)
	s.sessions[id] = next
	return nil
}

func (s *SessionStore) LoadTurns(_ context.Context, id domain.SessionID) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[id]
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *SessionStore) ListSessions(_ context.Context) ([]domain.SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SessionInfo, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, domain.NewSessionInfo(id))
	}

	domain.SortNewestFirst(out)
	return out, nil
}

func (s *SessionStore) DeleteSession(_ context.Context, id domain.SessionID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; !exists {
		return false, nil
	}
	delete(s.sessions, id)
	return true, nil
}
