// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package timecodec implements the round-trip ISO-8601 formatting spec.md
// §4.2 requires: seven-digit fractional seconds, an explicit zone kind
// (UTC, local-offset, or unspecified), and UNIX-second conversion.
package timecodec

import (
	"strings"
	"time"

	"github.com/cbrgm/slf/internal/slferr"
)

// Kind records which zone convention produced or should be used to parse
// an instant: a trailing "Z" (UTC), a numeric offset (local), or no zone
// marker at all (unspecified).
type Kind int

const (
	// KindUnspecified: no zone marker; the raw wall-clock fields are all
	// that is known.
	KindUnspecified Kind = iota
	// KindUTC: the instant carries a "Z" designator.
	KindUTC
	// KindLocal: the instant carries a "+HH:MM"/"-HH:MM" designator.
	KindLocal
)

const layout = "2006-01-02T15:04:05.0000000"

// ToISO8601 renders t with seven-digit fractional seconds and the zone
// suffix implied by kind: "Z" for KindUTC, "±HH:MM" for KindLocal (using
// t's own offset), nothing for KindUnspecified.
func ToISO8601(t time.Time, kind Kind) string {
	base := t.Format(layout)
	switch kind {
	case KindUTC:
		return base + "Z"
	case KindLocal:
		_, offset := t.Zone()
		return base + formatOffset(offset)
	default:
		return base
	}
}

func formatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	return sign + pad2(h) + ":" + pad2(m)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [4]byte{}
	i := len(digits)
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits[i:])
}

// ParseISO8601 parses text and reports which Kind it carried: a trailing
// "Z" yields KindUTC, a numeric offset yields KindLocal, bare
// wall-clock fields yield KindUnspecified. Fails slferr.Format on
// malformed input and slferr.InvalidArg on an empty string.
func ParseISO8601(text string) (time.Time, Kind, error) {
	if text == "" {
		return time.Time{}, KindUnspecified, slferr.New(slferr.InvalidArg, "empty ISO-8601 text")
	}
	switch {
	case strings.HasSuffix(text, "Z"):
		t, err := time.Parse(layout+"Z", text)
		if err != nil {
			return time.Time{}, KindUnspecified, slferr.Wrapf(slferr.Format, err, "invalid ISO-8601 UTC instant %q", text)
		}
		return t.UTC(), KindUTC, nil
	case hasNumericOffset(text):
		t, err := time.Parse(layout+"-07:00", text)
		if err != nil {
			return time.Time{}, KindUnspecified, slferr.Wrapf(slferr.Format, err, "invalid ISO-8601 local instant %q", text)
		}
		return t, KindLocal, nil
	default:
		t, err := time.Parse(layout, text)
		if err != nil {
			return time.Time{}, KindUnspecified, slferr.Wrapf(slferr.Format, err, "invalid ISO-8601 instant %q", text)
		}
		return t, KindUnspecified, nil
	}
}

// hasNumericOffset reports whether text ends in a "+HH:MM" or "-HH:MM"
// suffix rather than a bare fractional-seconds tail.
func hasNumericOffset(text string) bool {
	if len(text) < 6 {
		return false
	}
	tail := text[len(text)-6:]
	return (tail[0] == '+' || tail[0] == '-') && tail[3] == ':'
}

// ParseISO8601Offset parses text into a zoned time.Time. Input with no
// zone marker is interpreted in loc (time.Local when loc is nil).
func ParseISO8601Offset(text string, loc *time.Location) (time.Time, error) {
	t, kind, err := ParseISO8601(text)
	if err != nil {
		return time.Time{}, err
	}
	if kind != KindUnspecified {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc), nil
}

// UnixSecondsFromInstant returns t's UNIX-second offset from the 1970
// epoch; pre-epoch values are negative.
func UnixSecondsFromInstant(t time.Time) int64 {
	return t.Unix()
}

// InstantFromUnixSeconds is the inverse of UnixSecondsFromInstant.
func InstantFromUnixSeconds(seconds int64) time.Time {
	return time.Unix(seconds, 0).UTC()
}
