// Package apperr defines the error taxonomy shared by services and handlers.
// Services return these sentinels (possibly wrapped); the HTTP layer maps
// them to status codes with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed or missing user input. Detected before
	// any mutation, so state is untouched when it is returned.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateFilename marks a sound upload or rename colliding with an
	// existing filename.
	ErrDuplicateFilename = errors.New("filename already in use")

	// ErrDuplicateThreshold marks a milestone whose click-count threshold
	// already exists.
	ErrDuplicateThreshold = errors.New("milestone threshold already exists")

	// ErrNotFound marks a reference to an unknown id or filename.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat marks an audio payload that is not an MP3.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrInvalidRange marks a statistics query with from > to, a future
	// date, or over > under.
	ErrInvalidRange = errors.New("invalid range")

	// ErrStorageFailure marks a durable-write or file-I/O failure. Callers
	// see it as an opaque internal error; the cause is logged server-side.
	ErrStorageFailure = errors.New("storage failure")

	// ErrUnauthorized marks a bad admin secret or session.
	ErrUnauthorized = errors.New("unauthorized")
)

// Invalid returns an ErrInvalidInput with a user-facing message.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Storage wraps a low-level storage error so handlers can report it
// opaquely while the full cause stays available for logging.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrStorageFailure, err)
}
