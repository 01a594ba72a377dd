// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package timecodec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbrgm/slf/internal/slferr"
)

func TestRoundTripUTC(t *testing.T) {
	input := "2000-01-02T12:34:56.7890000Z"
	parsed, kind, err := ParseISO8601(input)
	require.NoError(t, err)
	assert.Equal(t, KindUTC, kind)
	assert.Equal(t, 2000, parsed.Year())
	assert.Equal(t, time.Month(1), parsed.Month())
	assert.Equal(t, 2, parsed.Day())
	assert.Equal(t, 12, parsed.Hour())
	assert.Equal(t, 34, parsed.Minute())
	assert.Equal(t, 56, parsed.Second())
	assert.Equal(t, 789, parsed.Nanosecond()/int(time.Millisecond))

	assert.Equal(t, input, ToISO8601(parsed, KindUTC))
}

func TestRoundTripLocal(t *testing.T) {
	loc := time.FixedZone("TEST", 3*3600+30*60)
	now := time.Date(2026, 7, 31, 10, 0, 0, 0, loc)
	serialised := ToISO8601(now, KindLocal)
	assert.Contains(t, serialised, "+03:30")

	parsed, kind, err := ParseISO8601(serialised)
	require.NoError(t, err)
	assert.Equal(t, KindLocal, kind)
	assert.True(t, now.Equal(parsed))
}

func TestUnspecifiedUsesGivenLocation(t *testing.T) {
	loc := time.FixedZone("TEST", -5*3600)
	parsed, err := ParseISO8601Offset("2026-07-31T10:00:00.0000000", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, parsed.Location())
}

func TestUnixSecondsRoundTrip(t *testing.T) {
	instant := time.Date(1969, 12, 31, 23, 0, 0, 0, time.UTC)
	seconds := UnixSecondsFromInstant(instant)
	assert.Less(t, seconds, int64(0))
	assert.True(t, instant.Equal(InstantFromUnixSeconds(seconds)))
}

func TestParseISO8601InvalidArg(t *testing.T) {
	_, _, err := ParseISO8601("")
	require.Error(t, err)
	assert.Equal(t, slferr.InvalidArg, slferr.KindOf(err))
}
