package firestore

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/sweep-agent/internal/domain"
)

// These tests talk to the Firestore emulator and are skipped without it.
func newEmulatorStore(t *testing.T) *Store {
	t.Helper()

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	collection := "sessions_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	s, err := NewStore(context.Background(), "sweep-test", collection)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewStoreRequiresProject(t *testing.T) {
	_, err := NewStore(context.Background(), "", "")
	assert.Error(t, err)
}

// Invalid ids never reach the client.
func TestInvalidIDWithoutClient(t *testing.T) {
	ctx := context.Background()
	s := &Store{collection: DefaultCollection, now: time.Now}

	turns, err := s.LoadTurns(ctx, "a/b")
	require.NoError(t, err)
	assert.Empty(t, turns)

	removed, err := s.DeleteSession(ctx, "a.b")
	require.NoError(t, err)
	assert.False(t, removed)

	err = s.AppendTurns(ctx, "a/b", domain.UserTurn("x"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newEmulatorStore(t)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	a, err := s.CreateSession(ctx)
	require.NoError(t, err)
	b, err := s.CreateSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionID("1700000000000"), a)
	assert.Equal(t, domain.SessionID("1700000000001"), b)

	require.NoError(t, s.AppendTurns(ctx, a, domain.UserTurn("x"), domain.AssistantTurn("y")))

	turns, err := s.LoadTurns(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []domain.Turn{domain.UserTurn("x"), domain.AssistantTurn("y")}, turns)

	infos, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, b, infos[0].ID)

	removed, err := s.DeleteSession(ctx, a)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.DeleteSession(ctx, a)
	require.NoError(t, err)
	assert.False(t, removed)

	turns, err = s.LoadTurns(ctx, a)
	require.NoError(t, err)
	assert.Empty(t, turns)
}
