package storage

import (
	"errors"
	"fmt"
)

// ErrorCode is the category of a storage error.
//
// The service layer translates codes into protocol status: NotFound and
// TypeMismatch become invalid-argument failures, IO becomes an internal error.
// InvalidPath and NotADirectory only occur while building and abort startup.
type ErrorCode int

const (
	// ErrNotFound indicates the id is outside the arena.
	ErrNotFound ErrorCode = iota

	// ErrTypeMismatch indicates the id names a file where a directory was
	// expected, or the other way around.
	ErrTypeMismatch

	// ErrInvalidPath indicates the index root does not exist.
	ErrInvalidPath

	// ErrNotADirectory indicates the index root is not a directory.
	ErrNotADirectory

	// ErrIO indicates listing a directory or reading a file failed.
	ErrIO
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "NotFound"
	case ErrTypeMismatch:
		return "TypeMismatch"
	case ErrInvalidPath:
		return "InvalidPath"
	case ErrNotADirectory:
		return "NotADirectory"
	case ErrIO:
		return "IO"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// Error is returned by every fallible storage operation.
type Error struct {
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the root-relative path involved, if any.
	Path string

	// Err is the underlying filesystem error for ErrIO and ErrInvalidPath.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

func notFound(id uint64, n int) error {
	return &Error{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("handle %d out of range (%d handles)", id, n),
	}
}

func typeMismatch(id uint64, got, want Kind) error {
	return &Error{
		Code:    ErrTypeMismatch,
		Message: fmt.Sprintf("handle %d is a %s, not a %s", id, got, want),
	}
}
