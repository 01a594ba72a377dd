// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package header

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbrgm/slf/internal/slferr"
)

func TestSerialiseParseRoundTrip(t *testing.T) {
	h := Header{
		App:     "my app",
		StartUp: time.Date(2000, 1, 2, 12, 34, 56, 789000000, time.UTC),
		SeqNo:   3,
		Misc:    []KV{{Key: "region", Value: "eu-west"}, {Key: "pid", Value: "4242"}},
	}
	data := Serialise(h)

	needMore, compatible := Identify(data)
	require.False(t, needMore)
	require.True(t, compatible)

	needMore, consumed, parsed, err := Parse(data, nil)
	require.NoError(t, err)
	require.False(t, needMore)
	assert.Equal(t, len(data), consumed)
	require.NotNil(t, parsed)
	assert.Equal(t, h.App, parsed.App)
	assert.True(t, h.StartUp.Equal(parsed.StartUp))
	assert.Equal(t, h.SeqNo, parsed.SeqNo)
	assert.Equal(t, h.Misc, parsed.Misc)
}

func TestIdentifyNeedsMoreBytes(t *testing.T) {
	needMore, compatible := Identify([]byte("SLF"))
	assert.True(t, needMore)
	assert.False(t, compatible)

	needMore, compatible = Identify([]byte("SLF.1"))
	assert.True(t, needMore)
	assert.False(t, compatible)
}

func TestIdentifyIncompatible(t *testing.T) {
	data := append([]byte("NOTSLF"), 0x1F)
	needMore, compatible := Identify(data)
	assert.False(t, needMore)
	assert.False(t, compatible)
}

func TestParseNeedsMoreRecords(t *testing.T) {
	h := Header{App: "a", StartUp: time.Now().UTC(), SeqNo: 1}
	data := Serialise(h)
	needMore, _, parsed, err := Parse(data[:len(data)-1], nil)
	require.NoError(t, err)
	assert.True(t, needMore)
	assert.Nil(t, parsed)
}

func TestParseRejectsTooFewRecords(t *testing.T) {
	data := append([]byte("SLF.1"), 0x1F, 0x1E)
	_, _, _, err := Parse(data, nil)
	require.Error(t, err)
	assert.Equal(t, slferr.Unsupported, slferr.KindOf(err))
}

func TestParseRejectsWrongIdentity(t *testing.T) {
	data := []byte("WRONG" + string(rune(0x1F)) + "app=`x`" + string(rune(0x1F)) +
		"start-up=`2020-01-01T00:00:00.0000000Z`" + string(rune(0x1F)) + "seq-no=1" + string(rune(0x1E)))
	_, _, _, err := Parse(data, nil)
	require.Error(t, err)
	assert.Equal(t, slferr.Unsupported, slferr.KindOf(err))
}

func TestParseUnspecifiedZoneUsesGivenLocation(t *testing.T) {
	loc := time.FixedZone("TEST", 3*3600)
	data := []byte("SLF.1" + string(rune(0x1F)) + "app=`a`" + string(rune(0x1F)) +
		"start-up=`2020-06-15T10:00:00.0000000`" + string(rune(0x1F)) + "seq-no=1" + string(rune(0x1E)))
	_, _, parsed, err := Parse(data, loc)
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.Equal(t, 7, parsed.StartUp.Hour())
}
