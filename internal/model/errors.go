package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure raised by the service layer wraps exactly one
// of these so the transport can map it without inspecting messages.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a classified failure with a caller-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

// Errorf builds an Error of the given kind.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind wrapped by err, or nil if err is unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrNotFound, ErrConflict, ErrBadRequest, ErrForbidden, ErrUnauthorized} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
