package domain

import "errors"

// Error kinds surfaced by the store and the conversation service.
// Concrete errors wrap one of these; match with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrStorage    = errors.New("storage error")
	ErrUpstream   = errors.New("upstream error")
)
