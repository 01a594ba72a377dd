// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package event

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbrgm/slf/pkg/encoding"
	"github.com/cbrgm/slf/pkg/eventid"
	"github.com/cbrgm/slf/pkg/timecodec"
)

func registry() *eventid.Registry {
	return eventid.DefaultRegistry(eventid.DefaultBinaryFormatterOptions())
}

func TestSerialiseSimpleMessage(t *testing.T) {
	ev := Event{
		Timestamp:     time.Date(2000, 1, 2, 12, 0, 0, 0, time.UTC),
		TimestampKind: timecodec.KindUTC,
		Level:         "Info",
		Details: []eventid.Detail{
			{Key: "Message", Variant: eventid.VariantMessage, Message: "hello"},
		},
	}
	out, err := Serialise(ev, registry(), nil)
	require.NoError(t, err)
	text := string(out)
	assert.True(t, strings.HasPrefix(text, "EVENT"))
	assert.Contains(t, text, "Info")
	assert.Contains(t, text, "Message")
	assert.Contains(t, text, "hello")
	assert.Equal(t, byte(encoding.ES), out[len(out)-1])
}

func TestSerialiseNoValueRecordsEndsWithNewlineThenES(t *testing.T) {
	ev := Event{Timestamp: time.Now().UTC(), TimestampKind: timecodec.KindUTC, Level: "Info"}
	out, err := Serialise(ev, registry(), nil)
	require.NoError(t, err)
	require.True(t, len(out) >= 2)
	assert.Equal(t, byte(encoding.NL), out[len(out)-2])
	assert.Equal(t, byte(encoding.ES), out[len(out)-1])
}

func TestSerialiseEventIDInlineAndArgsValueRecord(t *testing.T) {
	id := &eventid.ID{
		Numeric: []int64{1},
		Textual: []string{"TestEvent", "One"},
		Args:    []eventid.Arg{{Name: "count", Value: "3"}},
	}
	ev := Event{
		Timestamp:     time.Now().UTC(),
		TimestampKind: timecodec.KindUTC,
		Level:         "Info",
		Details: []eventid.Detail{
			{Key: "EventID", Variant: eventid.VariantEventID, EventID: id},
		},
	}
	out, err := Serialise(ev, registry(), nil)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, id.HumanForm())
	assert.Contains(t, text, "EventID")
	assert.Contains(t, text, `"en"`)
}

func TestSerialiseEventIDWithoutArgsOmitsValueRecord(t *testing.T) {
	id := &eventid.ID{Numeric: []int64{1}, Textual: []string{"TestEvent", "One"}}
	ev := Event{
		Timestamp:     time.Now().UTC(),
		TimestampKind: timecodec.KindUTC,
		Level:         "Info",
		Details: []eventid.Detail{
			{Variant: eventid.VariantEventID, EventID: id},
		},
	}
	out, err := Serialise(ev, registry(), nil)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "1 TestEvent.One")
	assert.NotContains(t, text, `"en"`)
}

func TestSerialiseHierarchyOmittedFromValueRecords(t *testing.T) {
	ev := Event{
		Timestamp:     time.Now().UTC(),
		TimestampKind: timecodec.KindUTC,
		Level:         "Info",
		Details: []eventid.Detail{
			{Variant: eventid.VariantHierarchy, Hierarchy: []string{"root", "child"}},
			{Key: "Message", Variant: eventid.VariantMessage, Message: "hi"},
		},
	}
	out, err := Serialise(ev, registry(), nil)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "root.child")
	assert.Equal(t, 1, strings.Count(text, "root.child"))
}

func TestSerialiseHierarchySegmentSpaceIsEscaped(t *testing.T) {
	ev := Event{
		Timestamp:     time.Now().UTC(),
		TimestampKind: timecodec.KindUTC,
		Level:         "Info",
		Details: []eventid.Detail{
			{Variant: eventid.VariantHierarchy, Hierarchy: []string{"My App"}},
		},
	}
	out, err := Serialise(ev, registry(), nil)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "My%20App")
	assert.NotContains(t, text, "My App")
}

func TestSerialiseDevFlag(t *testing.T) {
	ev := Event{Timestamp: time.Now().UTC(), TimestampKind: timecodec.KindUTC, Level: "Info", Dev: true}
	out, err := Serialise(ev, registry(), nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Dev")
}

type base64Cipher struct{}

func (base64Cipher) Encrypt(plaintext []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(plaintext), nil
}

type failingCipher struct{}

func (failingCipher) Encrypt(plaintext []byte) (string, error) {
	return "", assertErr
}

var assertErr = assertError("boom")

type assertError string

func (e assertError) Error() string { return string(e) }

func TestSerialiseSensitiveBlockEncrypted(t *testing.T) {
	ev := Event{
		Timestamp:     time.Now().UTC(),
		TimestampKind: timecodec.KindUTC,
		Level:         "Info",
		Details: []eventid.Detail{
			{Key: "Secret", Variant: eventid.VariantSensitiveBegin},
			{Key: "Message", Variant: eventid.VariantMessage, Message: "top secret"},
			{Variant: eventid.VariantSensitiveEnd},
		},
	}
	out, err := Serialise(ev, registry(), base64Cipher{})
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "Secret")
	assert.NotContains(t, text, "top secret")
}

func TestSerialiseSensitiveBlockDroppedOnEncryptFailure(t *testing.T) {
	ev := Event{
		Timestamp:     time.Now().UTC(),
		TimestampKind: timecodec.KindUTC,
		Level:         "Info",
		Details: []eventid.Detail{
			{Key: "Secret", Variant: eventid.VariantSensitiveBegin},
			{Key: "Message", Variant: eventid.VariantMessage, Message: "top secret"},
			{Variant: eventid.VariantSensitiveEnd},
			{Key: "Message2", Variant: eventid.VariantMessage, Message: "public"},
		},
	}
	out, err := Serialise(ev, registry(), failingCipher{})
	require.NoError(t, err)
	text := string(out)
	assert.NotContains(t, text, "Secret")
	assert.Contains(t, text, "public")
}

func TestSerialiseSensitiveBlockDroppedWhenNoCipherConfigured(t *testing.T) {
	ev := Event{
		Timestamp:     time.Now().UTC(),
		TimestampKind: timecodec.KindUTC,
		Level:         "Info",
		Details: []eventid.Detail{
			{Key: "Secret", Variant: eventid.VariantSensitiveBegin},
			{Key: "Message", Variant: eventid.VariantMessage, Message: "top secret"},
			{Variant: eventid.VariantSensitiveEnd},
		},
	}
	out, err := Serialise(ev, registry(), nil)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "top secret")
}

func TestSerialiseUnmatchedSensitiveEndFails(t *testing.T) {
	ev := Event{
		Timestamp: time.Now().UTC(), TimestampKind: timecodec.KindUTC, Level: "Info",
		Details: []eventid.Detail{{Variant: eventid.VariantSensitiveEnd}},
	}
	_, err := Serialise(ev, registry(), nil)
	require.Error(t, err)
}
