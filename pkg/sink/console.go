// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package sink

import (
	"context"
	"io"
)

// Console mirrors entity text to an io.Writer (typically os.Stdout or a
// debug stream). It never closes w: the Router does not own the
// process's standard streams.
type Console struct {
	w          io.Writer
	beautified bool
}

// NewConsole returns a Console writing to w. When beautified is true,
// ES/RS control bytes are stripped before writing (spec.md's
// console-beautified option); otherwise the raw wire text is written
// unchanged.
func NewConsole(w io.Writer, beautified bool) *Console {
	return &Console{w: w, beautified: beautified}
}

func (c *Console) Write(_ context.Context, text string) error {
	if c.beautified {
		text = Beautify(text)
	}
	_, err := io.WriteString(c.w, text)
	return err
}

// Flush is a no-op: io.Writer carries no flush contract of its own, and
// the streams this Console targets (stdout, a debug pipe) are
// unbuffered from the caller's perspective.
func (c *Console) Flush(context.Context) error { return nil }

// Close is a no-op; see the Console doc comment.
func (c *Console) Close() error { return nil }
