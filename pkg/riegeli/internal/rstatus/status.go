// Package rstatus defines the small set of error kinds used throughout the
// reader pipeline. It plays the role that absl::Status's canonical codes play
// in the original riegeli implementation, trimmed to the four kinds the
// reader actually distinguishes.
package rstatus

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// Unknown is the zero value; it should never be attached to a returned
	// error, and exists only to make an unset Kind easy to spot in tests.
	Unknown Kind = iota

	// DataLoss means corruption was detected: a hash mismatch, an impossible
	// declared length, a malformed varint, a failed decompression, or a
	// message that failed to parse outside of partial mode.
	DataLoss

	// InvalidArgument means the caller violated a precondition, such as
	// seeking to a negative position or calling ReadMetadata mid-stream.
	InvalidArgument

	// Unavailable wraps an error propagated verbatim from the underlying byte
	// source (I/O errors). It is never recoverable by this package; the
	// caller must repair the source first.
	Unavailable

	// Internal marks an assertion-level invariant violation: a bug in this
	// library rather than a malformed file or a caller mistake.
	Internal
)

func (k Kind) String() string {
	switch k {
	case DataLoss:
		return "DataLoss"
	case InvalidArgument:
		return "InvalidArgument"
	case Unavailable:
		return "Unavailable"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is a Kind-tagged error. It wraps an underlying error (if any) so that
// errors.Is/errors.As keep working against whatever the byte source returned.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind that wraps err.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and Unknown
// otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// IsDataLoss reports whether err is a DataLoss-kind Error.
func IsDataLoss(err error) bool { return KindOf(err) == DataLoss }
