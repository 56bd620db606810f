package service

import "errors"

// Error kinds surfaced by the services.  Handlers match them with errors.Is
// and translate them into HTTP status codes; anything else is internal.
var (
	// ErrValidation marks a missing or malformed input field.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateUser is returned when the email is already registered,
	// whether caught by the pre-check or by the unique index.
	ErrDuplicateUser = errors.New("User already exists")
	// ErrInvalidCredentials is identical for unknown email and wrong password.
	ErrInvalidCredentials = errors.New("Invalid credentials")
	// ErrMissingToken means no bearer token was presented.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken covers malformed, expired and badly signed tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNotFound is returned when a caller's own record no longer exists.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when an authenticated caller lacks access.
	ErrForbidden = errors.New("forbidden")
)
