package commitlog

import (
	"errors"
	"fmt"
)

// ErrorKind classifies log errors so callers can branch on them without
// matching strings.
type ErrorKind int

const (
	// KindUnknown is reported for errors that did not originate in a log.
	KindUnknown ErrorKind = iota
	// KindOffsetNotFound means the requested offset has not been assigned yet.
	KindOffsetNotFound
	// KindIOFailure means a durable backend failed to write or read a record.
	KindIOFailure
	// KindClosed means the log was closed before the call.
	KindClosed
)

var (
	// ErrOffsetNotFound matches every error of kind KindOffsetNotFound.
	ErrOffsetNotFound = errors.New("offset not found")
	// ErrIOFailure matches every error of kind KindIOFailure.
	ErrIOFailure = errors.New("io failure")
	// ErrClosed matches every error of kind KindClosed.
	ErrClosed = errors.New("log is closed")
)

// String returns the name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindOffsetNotFound:
		return "offset_not_found"
	case KindIOFailure:
		return "io_failure"
	case KindClosed:
		return "closed"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindOffsetNotFound:
		return ErrOffsetNotFound
	case KindIOFailure:
		return ErrIOFailure
	case KindClosed:
		return ErrClosed
	default:
		return nil
	}
}

// Error is returned by log operations.
// Use errors.Is with the Err* sentinels, or KindOf, to classify it.
type Error struct {
	Kind   ErrorKind
	Op     string // "append" or "read"
	Offset uint64
	Err    error // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Kind != KindClosed {
		msg = fmt.Sprintf("%s offset %d", e.Op, e.Offset)
	}
	if s := e.Kind.sentinel(); s != nil {
		msg += ": " + s.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// OffsetNotFound builds the error Read returns for an unassigned offset.
func OffsetNotFound(op string, offset uint64) error {
	return &Error{Kind: KindOffsetNotFound, Op: op, Offset: offset}
}

// IOFailure wraps a storage error raised while handling offset.
func IOFailure(op string, offset uint64, err error) error {
	return &Error{Kind: KindIOFailure, Op: op, Offset: offset, Err: err}
}

// Closed builds the error returned by operations on a closed log.
func Closed(op string) error {
	return &Error{Kind: KindClosed, Op: op}
}

// KindOf classifies err. Wrapped errors and bare sentinels are recognised.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	switch {
	case errors.Is(err, ErrOffsetNotFound):
		return KindOffsetNotFound
	case errors.Is(err, ErrIOFailure):
		return KindIOFailure
	case errors.Is(err, ErrClosed):
		return KindClosed
	}
	return KindUnknown
}
