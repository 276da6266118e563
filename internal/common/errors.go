// Package common defines shared constants and sentinel errors used across
// vidtube layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level error kinds. Each maps to one HTTP status class at the boundary.
	ErrorValidation   = errors.New("validation error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorInternal     = errors.New("internal error")

	// Token verification errors.
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
	ErrWrongTokenClass = errors.New("wrong token class")
	ErrIdentityMissing = errors.New("identity missing")
	ErrStaleToken      = errors.New("stale token")

	// Collaborator errors.
	ErrUploadFailed = errors.New("upload failed")
)

// Error is a failure that is safe to show to a caller. Kind is one of the
// service-level sentinels (ErrorValidation, ErrorUnauthorized, ErrorNotFound,
// ErrorConflict, ErrorInternal); Message is human readable and never carries
// storage or crypto details.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// NewError builds a caller-safe error of the given kind.
func NewError(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) error   { return NewError(ErrorValidation, message) }
func Unauthorized(message string) error { return NewError(ErrorUnauthorized, message) }
func NotFound(message string) error     { return NewError(ErrorNotFound, message) }
func Conflict(message string) error     { return NewError(ErrorConflict, message) }
func Internal(message string) error     { return NewError(ErrorInternal, message) }

// PublicMessage returns the caller-safe message for err. Anything that is not
// a *Error is reported with the generic internal message.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrorInternal.Error()
}
