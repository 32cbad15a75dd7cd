package service

import (
	"errors"
	"fmt"

	"github.com/kolah/apilens/internal/loader"
	"github.com/kolah/apilens/internal/render"
	"github.com/kolah/apilens/internal/session"
)

type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindParseError      Kind = "parse_error"
	KindInvalidArgument Kind = "invalid_argument"
	KindInternal        Kind = "internal"
)

// Error is the only error type operations return. Message is safe to show to
// the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidArgument(err error) *Error {
	return &Error{Kind: KindInvalidArgument, Message: err.Error(), Err: err}
}

func internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf("%s: %v", msg, err), Err: err}
}

func sessionError(id string, err error) *Error {
	if errors.Is(err, session.ErrNotFound) {
		return &Error{Kind: KindNotFound, Message: "Session not found: " + id, Err: err}
	}
	return internal("session lookup failed", err)
}

func loadError(err error) *Error {
	var pe *loader.ParseError
	if errors.As(err, &pe) {
		return &Error{Kind: KindParseError, Message: pe.Error(), Err: err}
	}
	return internal("loading specification", err)
}

// KindOf reports the kind of an operation error, internal for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// Payload renders err as the {"error": true, "message": ...} JSON document.
func Payload(err error) string {
	return render.Raw{}.Error(err.Error())
}

// Safe runs fn and turns a panic into an internal error.
func Safe(fn func() (string, error)) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = &Error{Kind: KindInternal, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()
	return fn()
}
