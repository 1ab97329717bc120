// Package jsonfile stores each session as a single JSON array file named
// <session id>.json inside one directory.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PabloGalante/sweep-agent/internal/domain"
)

const (
	fileExt = ".json"

	// maxCreateAttempts bounds the id bump loop in CreateSession.
	maxCreateAttempts = 16
)

// Store is a domain.SessionStore over a flat directory. It keeps nothing in
// memory: every call reads or rewrites the whole file.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a store rooted at dir. The directory must already exist;
// see EnsureDir.
func NewStore(dir string) *Store {
	return &Store{
		dir: dir,
		now: time.Now,
	}
}

// EnsureDir creates the history directory if it is missing. Called once at
// startup.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir %s: %w", dir, err)
	}
	return nil
}

func (s *Store) path(id domain.SessionID) string {
	return filepath.Join(s.dir, string(id)+fileExt)
}

// CreateSession writes an empty sequence under a fresh timestamp id. An
// existing file is never overwritten: if the id is taken, the next
// millisecond is tried.
func (s *Store) CreateSession(_ context.Context) (domain.SessionID, error) {
	base := s.now()

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		id := domain.NewSessionID(base.Add(time.Duration(attempt) * time.Millisecond))

		f, err := os.OpenFile(s.path(id), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return "", fmt.Errorf("%w: create session %s: %v", domain.ErrStorage, id, err)
		}

		_, werr := f.Write([]byte("[]"))
		cerr := f.Close()
		if werr != nil || cerr != nil {
			os.Remove(s.path(id))
			return "", fmt.Errorf("%w: create session %s: %v", domain.ErrStorage, id, errors.Join(werr, cerr))
		}
		return id, nil
	}

	return "", fmt.Errorf("%w: create session: no free id after %d attempts", domain.ErrStorage, maxCreateAttempts)
}

func (s *Store) AppendTurns(_ context.Context, id domain.SessionID, turns ...domain.Turn) error {
	if !id.Valid() {
		return fmt.Errorf("%w: invalid session id %q", domain.ErrValidation, id)
	}

	history, err := s.read(id)
	if err != nil {
		return err
	}
	history = append(history, turns...)

	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("%w: encode session %s: %v", domain.ErrStorage, id, err)
	}

	return s.writeAtomic(id, data)
}

// LoadTurns returns the turns of id. An id that cannot name a file here is
// reported as an empty session.
func (s *Store) LoadTurns(_ context.Context, id domain.SessionID) ([]domain.Turn, error) {
	if !id.Valid() {
		return []domain.Turn{}, nil
	}
	return s.read(id)
}

func (s *Store) ListSessions(_ context.Context) ([]domain.SessionInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.SessionInfo{}, nil
		}
		return nil, fmt.Errorf("%w: list sessions: %v", domain.ErrStorage, err)
	}

	out := make([]domain.SessionInfo, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}

		id := domain.SessionID(strings.TrimSuffix(name, fileExt))
		if !id.Valid() {
			continue
		}
		out = append(out, domain.NewSessionInfo(id))
	}

	domain.SortNewestFirst(out)
	return out, nil
}

func (s *Store) DeleteSession(_ context.Context, id domain.SessionID) (bool, error) {
	if !id.Valid() {
		return false, nil
	}

	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: delete session %s: %v", domain.ErrStorage, id, err)
	}
	return true, nil
}

func (s *Store) read(id domain.SessionID) ([]domain.Turn, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.Turn{}, nil
		}
		return nil, fmt.Errorf("%w: read session %s: %v", domain.ErrStorage, id, err)
	}

	// A file caught between O_CREATE and its first write reads as empty.
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.Turn{}, nil
	}

	var turns []domain.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("%w: decode session %s: %v", domain.ErrStorage, id, err)
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	return turns, nil
}

// writeAtomic replaces the session file through a temp file and rename so
// readers never observe a partial write.
func (s *Store) writeAtomic(id domain.SessionID, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: write session %s: %v", domain.ErrStorage, id, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write session %s: %v", domain.ErrStorage, id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: write session %s: %v", domain.ErrStorage, id, err)
	}

	if err := os.Rename(tmpName, s.path(id)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: write session %s: %v", domain.ErrStorage, id, err)
	}
	return nil
}
