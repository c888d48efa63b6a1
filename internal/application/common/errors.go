package common

import (
	"errors"
	"time"
)

// Sentinels returned (wrapped) by every application service. The HTTP layer
// maps them to status codes.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("too many requests")
	ErrUpstream     = errors.New("upstream error")
	ErrUnavailable  = errors.New("service unavailable")
)

// Error carries a client-facing message alongside its sentinel kind.
type Error struct {
	Kind    error
	Message string
	// RetryAfter is set on rate limit errors.
	RetryAfter time.Duration
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func InvalidInput(msg string) error { return newError(ErrInvalidInput, msg) }
func Unauthorized(msg string) error { return newError(ErrUnauthorized, msg) }
func Forbidden(msg string) error    { return newError(ErrForbidden, msg) }
func NotFound(msg string) error     { return newError(ErrNotFound, msg) }
func Conflict(msg string) error     { return newError(ErrConflict, msg) }
func RateLimited(msg string) error  { return newError(ErrRateLimited, msg) }
func Upstream(msg string) error     { return newError(ErrUpstream, msg) }
func Unavailable(msg string) error  { return newError(ErrUnavailable, msg) }

func RateLimitedFor(msg string, retryAfter time.Duration) error {
	return &Error{Kind: ErrRateLimited, Message: msg, RetryAfter: retryAfter}
}
