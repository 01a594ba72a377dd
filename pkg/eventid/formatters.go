// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package eventid

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/cbrgm/slf/internal/slferr"
	"github.com/cbrgm/slf/pkg/binarydump"
)

// MessageFormatter returns a detail's message text unchanged (CR and LF
// preserved); it is the simplest of the built-in formatters.
type MessageFormatter struct{}

func (MessageFormatter) ID() string { return "message" }

func (MessageFormatter) Supports(v Variant) bool { return v == VariantMessage }

func (f MessageFormatter) Format(d Detail) (string, error) {
	if d.Variant != VariantMessage {
		return "", slferr.Newf(slferr.Unsupported, "%s: cannot format variant %q", f.ID(), d.Variant)
	}
	return d.Message, nil
}

// BinaryFormatterOptions configures the hex+transcript layout a
// BinaryFormatter produces.
type BinaryFormatterOptions struct {
	Dump binarydump.Options
}

// DefaultBinaryFormatterOptions mirrors binarydump.DefaultOptions.
func DefaultBinaryFormatterOptions() BinaryFormatterOptions {
	return BinaryFormatterOptions{Dump: binarydump.DefaultOptions()}
}

// BinaryFormatter renders "Hex dump:" followed by a binarydump, with any
// backtick quote mark in the transcript column replaced by the dump's
// substitute character so the result is always safe to backtick-quote.
type BinaryFormatter struct {
	opts BinaryFormatterOptions
}

func NewBinaryFormatter(opts BinaryFormatterOptions) BinaryFormatter {
	return BinaryFormatter{opts: opts}
}

func (BinaryFormatter) ID() string { return "binary" }

func (BinaryFormatter) Supports(v Variant) bool { return v == VariantBinary }

func (f BinaryFormatter) Format(d Detail) (string, error) {
	if d.Variant != VariantBinary {
		return "", slferr.Newf(slferr.Unsupported, "%s: cannot format variant %q", f.ID(), d.Variant)
	}
	if d.Binary == nil {
		return "", slferr.New(slferr.InvalidArg, "binary detail has nil payload")
	}
	if len(d.Binary) == 0 {
		return "Hex dump:\n", nil
	}
	dump, err := binarydump.Dump(d.Binary, 0, len(d.Binary), f.opts.Dump)
	if err != nil {
		return "", err
	}
	sub := f.opts.Dump.Substitute
	if sub == 0 {
		sub = '.'
	}
	dump = strings.ReplaceAll(dump, "`", string(sub))
	return "Hex dump:\n" + dump, nil
}

// EventIDFormatter renders the JSON projection of an event-id detail.
type EventIDFormatter struct{}

func (EventIDFormatter) ID() string { return "event-id" }

func (EventIDFormatter) Supports(v Variant) bool { return v == VariantEventID }

func (f EventIDFormatter) Format(d Detail) (string, error) {
	if d.Variant != VariantEventID {
		return "", slferr.Newf(slferr.Unsupported, "%s: cannot format variant %q", f.ID(), d.Variant)
	}
	if d.EventID == nil {
		return "", slferr.New(slferr.InvalidArg, "event-id detail has nil payload")
	}
	bs, err := d.EventID.ToJSON()
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// ExceptionFormatter recursively walks the causal chain (via
// errors.Unwrap) rendering each cause's type name, message and (when the
// cause satisfies an interface exposing a stack) its frames, each cause
// starting on a new line.
type ExceptionFormatter struct{}

func (ExceptionFormatter) ID() string { return "exception" }

func (ExceptionFormatter) Supports(v Variant) bool { return v == VariantException }

func (f ExceptionFormatter) Format(d Detail) (string, error) {
	if d.Variant != VariantException {
		return "", slferr.Newf(slferr.Unsupported, "%s: cannot format variant %q", f.ID(), d.Variant)
	}
	if d.Err == nil {
		return "", slferr.New(slferr.InvalidArg, "exception detail has nil payload")
	}
	var lines []string
	for err := d.Err; err != nil; err = errors.Unwrap(err) {
		lines = append(lines, formatCause(err))
	}
	return strings.Join(lines, "\n"), nil
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

func formatCause(err error) string {
	line := fmt.Sprintf("%T: %s", err, err.Error())
	if st, ok := err.(stackTracer); ok {
		for _, frame := range st.StackTrace() {
			line += fmt.Sprintf("\n  at %+v", frame)
		}
	}
	return line
}
