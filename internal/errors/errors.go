// Package errors provides structured error handling for the engine: every
// failure surfaced to observers carries a category from the taxonomy below.
package errors

import (
	"errors"
	"fmt"

	"github.com/chihung93/kotlinconf-app/internal/domain"
)

// ErrorType represents the category of error for metrics and user messaging.
type ErrorType string

const (
	// TypeUnauthorized indicates a mutating call without a user identity.
	TypeUnauthorized ErrorType = "unauthorized"
	// TypeNotFound indicates a lookup of an unknown session/speaker/room id.
	TypeNotFound ErrorType = "not_found"
	// TypeTooEarly indicates the server rejected a vote before the window opened.
	TypeTooEarly ErrorType = "too_early"
	// TypeTooLate indicates the server rejected a vote after the window closed.
	TypeTooLate ErrorType = "too_late"
	// TypeUnavailable indicates the backend or feed is temporarily unreachable.
	TypeUnavailable ErrorType = "unavailable"
	// TypeTransport indicates a generic transport failure.
	TypeTransport ErrorType = "transport"
)

// Error is a categorized error with optional context fields.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds a context field to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func UnauthorizedError(message string) *Error {
	return &Error{Type: TypeUnauthorized, Message: message, Cause: domain.ErrUnauthorized}
}

func NotFoundError(message string, cause error) *Error {
	return &Error{Type: TypeNotFound, Message: message, Cause: cause}
}

func TooEarlyError(message string) *Error {
	return &Error{Type: TypeTooEarly, Message: message, Cause: domain.ErrTooEarlyVote}
}

func TooLateError(message string) *Error {
	return &Error{Type: TypeTooLate, Message: message, Cause: domain.ErrTooLateVote}
}

func UnavailableError(message string, cause error) *Error {
	if cause == nil {
		cause = domain.ErrUnavailable
	}
	return &Error{Type: TypeUnavailable, Message: message, Cause: cause}
}

func TransportError(message string, cause error) *Error {
	return &Error{Type: TypeTransport, Message: message, Cause: cause}
}

// AsStructuredError converts any error into a categorized *Error. Known
// domain sentinels map onto their taxonomy entry; anything else becomes a
// transport error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return UnauthorizedError(err.Error())
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSpeakerNotFound),
		errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrNoRoomAssigned):
		return NotFoundError(err.Error(), err)
	case errors.Is(err, domain.ErrTooEarlyVote):
		return TooEarlyError(err.Error())
	case errors.Is(err, domain.ErrTooLateVote):
		return TooLateError(err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		return UnavailableError(err.Error(), err)
	default:
		return TransportError(err.Error(), err)
	}
}
