package domain

import (
	"regexp"
	"strconv"
	"time"
)

type SessionID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Timestamp = time.Time

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// NewSessionID derives a session id from the creation instant (Unix ms).
func NewSessionID(t time.Time) SessionID {
	return SessionID(strconv.FormatInt(t.UnixMilli(), 10))
}

// Valid reports whether id is safe to use as a storage key.
func (id SessionID) Valid() bool {
	return sessionIDPattern.MatchString(string(id))
}

// CreatedAt decodes the creation instant embedded in the id.
// ok is false for ids that were not produced by NewSessionID.
func (id SessionID) CreatedAt() (ts time.Time, ok bool) {
	ms, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || ms < 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
