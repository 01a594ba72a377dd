// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package slferr defines the error taxonomy shared by every codec and
// router package: a closed set of kinds (InvalidArg, Format, Unsupported,
// Io, Cancelled, Internal) layered on top of github.com/pkg/errors so
// callers keep a stack trace and a wrapped cause while still being able
// to branch on the kind with Is/As.
package slferr

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why an operation failed.
type Kind string

const (
	// InvalidArg: caller passed a null/empty/negative value where forbidden.
	InvalidArg Kind = "invalid_arg"
	// Format: bytes on the wire violate the grammar.
	Format Kind = "format"
	// Unsupported: structural mismatch (wrong identity literal, wrong record count, ...).
	Unsupported Kind = "unsupported"
	// Io: propagated from the filesystem or a stream.
	Io Kind = "io"
	// Cancelled: cooperative cancellation.
	Cancelled Kind = "cancelled"
	// Internal: an invariant was violated; indicates a bug.
	Internal Kind = "internal"
)

// Error wraps a Kind, a message and an optional cause.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

// Unwrap lets errors.Is/errors.As reach the cause.
func (e *Error) Unwrap() error { return e.cause }

// KindOf returns the error kind, or "" if err is not (or does not wrap) a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// New builds a bare *Error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg}
}

// Newf builds a bare *Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to cause, preserving it as the Unwrap
// target and recording a stack trace via github.com/pkg/errors.
func Wrap(kind Kind, cause error, msg string) error {
	if cause == nil {
		return nil
	}
	return &Error{kind: kind, msg: msg, cause: errors.WithStack(cause)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, cause error, format string, args ...interface{}) error {
	if cause == nil {
		return nil
	}
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), cause: errors.WithStack(cause)}
}

// CheckCancelled turns ctx.Err() into a Cancelled *Error when ctx is done,
// otherwise returns nil. Callers check this at the suspension points
// spec.md §5 enumerates.
func CheckCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return Wrap(Cancelled, ctx.Err(), "operation cancelled")
	default:
		return nil
	}
}
