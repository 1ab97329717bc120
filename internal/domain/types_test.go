package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/sweep-agent/internal/domain"
)

func TestNewSessionIDRoundTrip(t *testing.T) {
	now := time.UnixMilli(1760612400123)

	id := domain.NewSessionID(now)
	assert.Equal(t, domain.SessionID("1760612400123"), id)
	assert.True(t, id.Valid())

	ts, ok := id.CreatedAt()
	require.True(t, ok)
	assert.Equal(t, now.UnixMilli(), ts.UnixMilli())
}

func TestSessionIDValid(t *testing.T) {
	assert.True(t, domain.SessionID("abc_DEF-123").Valid())
	assert.False(t, domain.SessionID("").Valid())
	assert.False(t, domain.SessionID("../etc/passwd").Valid())
	assert.False(t, domain.SessionID("a/b").Valid())
	assert.False(t, domain.SessionID("1.json").Valid())
}

func TestSortNewestFirst(t *testing.T) {
	infos := []domain.SessionInfo{
		domain.NewSessionInfo("1000"),
		domain.NewSessionInfo("notes"),
		domain.NewSessionInfo("3000"),
		domain.NewSessionInfo("2000"),
		domain.NewSessionInfo("archive"),
	}

	domain.SortNewestFirst(infos)

	var got []domain.SessionID
	for _, in := range infos {
		got = append(got, in.ID)
	}
	assert.Equal(t, []domain.SessionID{"3000", "2000", "1000", "notes", "archive"}, got)
	assert.Equal(t, int64(3000), infos[0].Timestamp)
	assert.Zero(t, infos[3].Timestamp)
}
