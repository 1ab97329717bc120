package domain

import "context"

// GenerationParams are passed through unchanged to the completion API.
type GenerationParams struct {
	Temperature     float32
	MaxOutputTokens int32
}

// LLMClient turns a single prompt text into a completion.
type LLMClient interface {
	GenerateReply(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// SessionStore persists one ordered turn sequence per session.
//
// Absence is not an error: LoadTurns returns an empty sequence and
// DeleteSession returns false for unknown ids. I/O failures wrap ErrStorage,
// malformed ids wrap ErrValidation.
type SessionStore interface {
	CreateSession(ctx context.Context) (SessionID, error)
	AppendTurns(ctx context.Context, id SessionID, turns ...Turn) error
	LoadTurns(ctx context.Context, id SessionID) ([]Turn, error)
	ListSessions(ctx context.Context) ([]SessionInfo, error)
	DeleteSession(ctx context.Context, id SessionID) (bool, error)
}
