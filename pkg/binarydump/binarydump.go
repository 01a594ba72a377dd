// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package binarydump renders a byte slice as a multi-line hex+transcript
// dump per spec.md §4.3: an optional offset header, one row per
// configured width with an optional address column, the row's hex pairs
// padded to a uniform column, and a transcript column substituting a
// configured character for control bytes.
package binarydump

import (
	"strconv"
	"strings"

	"github.com/cbrgm/slf/internal/slferr"
)

// Options configures a dump.
type Options struct {
	// BytesPerRow is the number of bytes rendered per row. Defaults to 16.
	BytesPerRow int
	// ShowAddress enables the leading address column.
	ShowAddress bool
	// ShowHeader enables the per-column offset header line.
	ShowHeader bool
	// Substitute replaces any control byte (and, by convention, any byte a
	// caller wants hidden from the transcript column, e.g. a quote mark
	// that would break quoting) in the transcript column.
	Substitute byte
}

// DefaultOptions mirrors a conventional hex-editor layout.
func DefaultOptions() Options {
	return Options{BytesPerRow: 16, ShowAddress: true, ShowHeader: true, Substitute: '.'}
}

// Dump renders data[offset : offset+length] (length clamped silently to
// len(data)-offset) using opts. Fails slferr.InvalidArg on nil data,
// negative offset, an offset past the end of data, or non-positive
// length.
func Dump(data []byte, offset, length int, opts Options) (string, error) {
	if data == nil {
		return "", slferr.New(slferr.InvalidArg, "nil data")
	}
	if offset < 0 || offset > len(data) {
		return "", slferr.Newf(slferr.InvalidArg, "offset %d out of range [0,%d]", offset, len(data))
	}
	if length <= 0 {
		return "", slferr.Newf(slferr.InvalidArg, "non-positive length %d", length)
	}
	if opts.BytesPerRow <= 0 {
		opts.BytesPerRow = 16
	}
	if length > len(data)-offset {
		length = len(data) - offset
	}
	view := data[offset : offset+length]

	addrWidth := addressWidth(offset + length)
	var b strings.Builder

	if opts.ShowHeader {
		if opts.ShowAddress {
			b.WriteString(strings.Repeat(" ", addrWidth+2))
		}
		for i := 0; i < opts.BytesPerRow; i++ {
			b.WriteString(strconv.FormatInt(int64(i), 16))
			if i < opts.BytesPerRow-1 {
				b.WriteByte(' ')
			}
		}
		b.WriteByte('\n')
	}

	for rowStart := 0; rowStart < len(view); rowStart += opts.BytesPerRow {
		rowEnd := rowStart + opts.BytesPerRow
		if rowEnd > len(view) {
			rowEnd = len(view)
		}
		row := view[rowStart:rowEnd]

		if opts.ShowAddress {
			addr := offset + rowStart
			b.WriteString(padHex(addr, addrWidth))
			b.WriteString(": ")
		}

		hexCols := opts.BytesPerRow*3 - 1
		var hexPart strings.Builder
		for i, c := range row {
			if i > 0 {
				hexPart.WriteByte(' ')
			}
			hexPart.WriteByte(hexDigit(c >> 4))
			hexPart.WriteByte(hexDigit(c & 0x0F))
		}
		b.WriteString(hexPart.String())
		b.WriteString(strings.Repeat(" ", hexCols-hexPart.Len()))
		b.WriteString("  ")

		for _, c := range row {
			if isControl(c) {
				b.WriteByte(opts.Substitute)
				continue
			}
			b.WriteByte(c)
		}
		if rowEnd < len(view) {
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func isControl(b byte) bool {
	return b < 0x20 || b == 0x7F
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'a' + (n - 10)
}

// addressWidth returns the number of hex nibbles needed to render
// addresses up to maxAddr-1, rounded up to an even count.
func addressWidth(maxAddr int) int {
	if maxAddr <= 0 {
		maxAddr = 1
	}
	n := 0
	v := maxAddr - 1
	for v > 0 || n == 0 {
		n++
		v >>= 4
	}
	if n%2 != 0 {
		n++
	}
	return n
}

func padHex(v, width int) string {
	s := strconv.FormatInt(int64(v), 16)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}
