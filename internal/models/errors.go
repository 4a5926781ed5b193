package models

import "errors"

var (
	// ErrInvalidConfig rejects malformed report or session configuration
	// before any state is created or started.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidTransition guards the forward-only session lifecycle.
	// State and counters must be left untouched when it is returned.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNotFound is returned by stores when a document does not exist.
	ErrNotFound = errors.New("not found")
)
