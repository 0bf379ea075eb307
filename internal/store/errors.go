package store

import "errors"

// Error taxonomy shared by every backend. Handlers and callers branch on
// these with errors.Is; backends wrap them with context where useful.
var (
	// ErrDuplicateEmail is returned by CreateUser when the email is already
	// registered. The match is case-sensitive and exact in every backend,
	// which is a documented limitation, not a feature.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned by Login when the email/password
	// pair does not match exactly.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotFound is returned when a referenced user, wallet or
	// transaction does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDocument is returned when an import document fails
	// validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrStorageFailure wraps underlying read/write errors.
	ErrStorageFailure = errors.New("storage failure")
)
