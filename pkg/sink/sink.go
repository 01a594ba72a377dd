// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package sink implements the text-writer capability a Router forwards
// serialised entities to: the console mirror, an optional Redis mirror,
// and a rate-limiting wrapper any sink can be dressed in.
package sink

import "context"

// Sink is the capability a Router forwards entity text to. Write and
// Flush are both allowed to fail; a failing sink never aborts a batch —
// the caller (Router.Forward) swallows non-cancellation errors and
// keeps going. Close must not close an underlying stream the sink did
// not itself open (e.g. a Console over os.Stdout must not close it).
type Sink interface {
	Write(ctx context.Context, text string) error
	Flush(ctx context.Context) error
	Close() error
}

// Beautify strips the control bytes ES and RS from text, the
// console-only rendering spec.md's console-beautified option asks for.
func Beautify(text string) string {
	out := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case 0x1E, 0x1F:
			continue
		default:
			out = append(out, text[i])
		}
	}
	return string(out)
}
