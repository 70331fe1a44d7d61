package service

import (
	"errors"
	"net/http"
)

// Kind classifies a service error for the request boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindNotFound
	KindConflict
	KindThrottled
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindThrottled:
		return "throttled"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind onto a response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindThrottled:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is the error type returned by the services. Message is safe to show
// to clients; Err carries the underlying cause for server-side logs only.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Authentication failures share one kind so that callers can fold every
// session problem into a 401, while tests and logs can still tell them apart.
var (
	ErrInvalidCredentials = &Error{Kind: KindAuthentication, Code: "invalid_credentials", Message: "invalid username or password"}
	ErrNoSession          = &Error{Kind: KindAuthentication, Code: "no_session", Message: "no session"}
	ErrSessionNotFound    = &Error{Kind: KindAuthentication, Code: "session_not_found", Message: "session not found"}
	ErrSessionExpired     = &Error{Kind: KindAuthentication, Code: "session_expired", Message: "session expired"}
	ErrLoginThrottled     = &Error{Kind: KindThrottled, Code: "login_throttled", Message: "too many login attempts"}
)

// KindOf returns the Kind of err, or KindInternal for errors that did not
// originate from a service.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the client-safe message for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Code: "invalid_request", Message: msg}
}

func notFoundError(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: "not_found", Message: msg}
}

func conflictError(msg string) *Error {
	return &Error{Kind: KindConflict, Code: "conflict", Message: msg}
}

func internalError(err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: "internal server error", Err: err}
}
