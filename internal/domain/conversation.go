package domain

import (
	"cmp"
	"slices"
)

// Turn is one message of a session, tagged with its speaker.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// SessionInfo is the listing view of a session.
type SessionInfo struct {
	ID        SessionID
	Timestamp int64 // creation instant in Unix ms, 0 if the id carries none
	CreatedAt Timestamp
}

// NewSessionInfo builds the listing entry for id.
func NewSessionInfo(id SessionID) SessionInfo {
	info := SessionInfo{ID: id}
	if ts, ok := id.CreatedAt(); ok {
		info.Timestamp = ts.UnixMilli()
		info.CreatedAt = ts
	}
	return info
}

// SortNewestFirst orders sessions by creation instant, most recent first.
// Equal timestamps fall back to the id so the order is stable across calls.
func SortNewestFirst(infos []SessionInfo) {
	slices.SortFunc(infos, func(a, b SessionInfo) int {
		if c := cmp.Compare(b.Timestamp, a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
