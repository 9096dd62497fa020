// Package derror classifies failures crossing the backend boundary.
package derror

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"

	"jdcrawler-dashboard/internal/domain"
)

type Kind string

const (
	KindNetwork    Kind = "NETWORK"
	KindNotFound   Kind = "NOT_FOUND"
	KindValidation Kind = "VALIDATION"
	KindServer     Kind = "SERVER"
	KindClient     Kind = "CLIENT"
	KindDecode     Kind = "DECODE"
	KindInternal   Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers match the taxonomy against domain sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.Kind == KindNotFound
	case domain.ErrInvalidArgument:
		return e.Kind == KindValidation
	}
	return false
}

func (e *Error) StackTrace() []byte { return e.Stack }

// Retriable reports whether repeating the same call may succeed.
func (e *Error) Retriable() bool {
	return e.Kind == KindNetwork || e.Kind == KindServer
}

func New(kind Kind, op, message string, err error) *Error {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}
	return &Error{Kind: kind, Op: op, Message: message, Err: err, Stack: stack}
}

func Network(op string, err error) *Error { return New(KindNetwork, op, "request failed", err) }

func NotFound(op, message string) *Error { return New(KindNotFound, op, message, nil) }

func Validation(op, message string) *Error { return New(KindValidation, op, message, nil) }

func Internal(op, message string, err error) *Error { return New(KindInternal, op, message, err) }

func Decode(op string, err error) *Error { return New(KindDecode, op, "decode response", err) }

// FromStatus maps a non-2xx HTTP response to the taxonomy.
func FromStatus(op string, status int, message string) *Error {
	kind := KindClient
	switch {
	case status == 404:
		kind = KindNotFound
	case status == 400 || status == 422:
		kind = KindValidation
	case status == 408 || status == 429:
		kind = KindNetwork
	case status >= 500:
		kind = KindServer
	}
	e := New(kind, op, message, nil)
	e.Status = status
	return e
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsRetriable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retriable()
}
