// Package apperr defines the error taxonomy shared by the domain services and
// the HTTP layer.
package apperr

import (
	"net/http"

	"github.com/go-faster/errors"
)

// Kind classifies an error for propagation to callers.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error with a stable machine-readable code.
//
// Two errors are considered equal by errors.Is when their kind and code match,
// so sentinel values keep matching after being re-created with a more
// specific message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same kind and code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// WithMessage returns a copy of e carrying msg.
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

// New returns a classified error.
func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func NotFound(code, msg string) *Error     { return New(KindNotFound, code, msg) }
func Validation(code, msg string) *Error   { return New(KindValidation, code, msg) }
func Conflict(code, msg string) *Error     { return New(KindConflict, code, msg) }
func Unauthorized(code, msg string) *Error { return New(KindUnauthorized, code, msg) }

// Internal wraps err as an internal error that keeps the original message.
func Internal(code string, err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{Kind: KindInternal, Code: code, Message: msg, Err: err}
}

// From extracts the first *Error in err's chain.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := From(err); ok {
		return e.Kind
	}
	return KindInternal
}

// IsClassified reports whether err carries a non-internal classification.
func IsClassified(err error) bool {
	e, ok := From(err)
	return ok && e.Kind != KindInternal
}
