package engine

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNoCandidates means provider assignment was called with an empty set.
	ErrNoCandidates = errors.New("no candidate providers")
	// ErrSlotUnavailable means no provider is free for the requested window.
	ErrSlotUnavailable = errors.New("slot unavailable")
)
