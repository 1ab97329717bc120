package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/sweep-agent/internal/domain"
)

const (
	DefaultCollection = "sessions"

	maxCreateAttempts = 16
)

// Store keeps one document per session, holding the full turn sequence.
type Store struct {
	client     *firestore.Client
	collection string
	now        func() time.Time
}

// NewStore creates a Firestore store for projectID.
// An empty collection falls back to DefaultCollection.
func NewStore(ctx context.Context, projectID, collection string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	if collection == "" {
		collection = DefaultCollection
	}

	return &Store{
		client:     client,
		collection: collection,
		now:        time.Now,
	}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

func (s *Store) sessionDoc(id domain.SessionID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type sessionDoc struct {
	Turns     []turnDoc `firestore:"turns"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type turnDoc struct {
	Role    string `firestore:"role"`
	Content string `firestore:"content"`
}

func toTurnDocs(turns []domain.Turn) []turnDoc {
	out := make([]turnDoc, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnDoc{Role: string(t.Role), Content: t.Content})
	}
	return out
}

func fromTurnDocs(docs []turnDoc) []domain.Turn {
	out := make([]domain.Turn, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.Turn{Role: domain.Role(d.Role), Content: d.Content})
	}
	return out
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateSession(ctx context.Context) (domain.SessionID, error) {
	base := s.now()

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		id := domain.NewSessionID(base.Add(time.Duration(attempt) * time.Millisecond))

		_, err := s.sessionDoc(id).Create(ctx, sessionDoc{
			Turns:     []turnDoc{},
			UpdatedAt: base,
		})
		if err == nil {
			return id, nil
		}
		if status.Code(err) == codes.AlreadyExists {
			continue
		}
		return "", fmt.Errorf("%w: firestore CreateSession: %v", domain.ErrStorage, err)
	}

	return "", fmt.Errorf("%w: firestore CreateSession: no free id after %d attempts", domain.ErrStorage, maxCreateAttempts)
}

func (s *Store) AppendTurns(ctx context.Context, id domain.SessionID, turns ...domain.Turn) error {
	if !id.Valid() {
		return fmt.Errorf("%w: invalid session id %q", domain.ErrValidation, id)
	}

	history, err := s.LoadTurns(ctx, id)
	if err != nil {
		return err
	}
	history = append(history, turns...)

	doc := sessionDoc{
		Turns:     toTurnDocs(history),
		UpdatedAt: s.now(),
	}

	if _, err := s.sessionDoc(id).Set(ctx, doc); err != nil {
		return fmt.Errorf("%w: firestore AppendTurns: %v", domain.ErrStorage, err)
	}
	return nil
}

// LoadTurns returns an empty sequence for ids that are not valid document
// names, the same as for a missing document.
func (s *Store) LoadTurns(ctx context.Context, id domain.SessionID) ([]domain.Turn, error) {
	if !id.Valid() {
		return []domain.Turn{}, nil
	}

	snap, err := s.sessionDoc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return []domain.Turn{}, nil
		}
		return nil, fmt.Errorf("%w: firestore LoadTurns: %v", domain.ErrStorage, err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("%w: firestore LoadTurns decode: %v", domain.ErrStorage, err)
	}

	return fromTurnDocs(doc.Turns), nil
}

func (s *Store) ListSessions(ctx context.Context) ([]domain.SessionInfo, error) {
	// Only document names are needed; the order comes from the ids.
	iter := s.sessionsCol().Select().Documents(ctx)
	defer iter.Stop()

	out := []domain.SessionInfo{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, fmt.Errorf("%w: firestore ListSessions: %v", domain.ErrStorage, err)
		}

		id := domain.SessionID(snap.Ref.ID)
		if !id.Valid() {
			continue
		}
		out = append(out, domain.NewSessionInfo(id))
	}

	domain.SortNewestFirst(out)
	return out, nil
}

func (s *Store) DeleteSession(ctx context.Context, id domain.SessionID) (bool, error) {
	if !id.Valid() {
		return false, nil
	}

	_, err := s.sessionDoc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("%w: firestore DeleteSession: %v", domain.ErrStorage, err)
	}
	return true, nil
}
