// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package sink

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeautifyStripsControlBytes(t *testing.T) {
	text := "EVENT\x1f == Info\x1e"
	assert.Equal(t, "EVENT == Info", Beautify(text))
}

func TestConsoleWritesRawByDefault(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)
	require.NoError(t, c.Write(context.Background(), "EVENT\x1f == Info\x1e"))
	assert.Equal(t, "EVENT\x1f == Info\x1e", buf.String())
}

func TestConsoleBeautifiesWhenConfigured(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)
	require.NoError(t, c.Write(context.Background(), "EVENT\x1f == Info\x1e"))
	assert.Equal(t, "EVENT == Info", buf.String())
}

func TestConsoleCloseIsNoop(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)
	assert.NoError(t, c.Close())
}

type recordingSink struct {
	writes []string
}

func (r *recordingSink) Write(_ context.Context, text string) error {
	r.writes = append(r.writes, text)
	return nil
}
func (r *recordingSink) Flush(context.Context) error { return nil }
func (r *recordingSink) Close() error                { return nil }

func TestRateLimitedForwardsToInner(t *testing.T) {
	inner := &recordingSink{}
	limited := NewRateLimited(inner, 0, 0)
	require.NoError(t, limited.Write(context.Background(), "hello"))
	assert.Equal(t, []string{"hello"}, inner.writes)
}

func TestRateLimitedRejectsWriteLargerThanBurst(t *testing.T) {
	inner := &recordingSink{}
	limited := NewRateLimited(inner, 1, 1)
	err := limited.Write(context.Background(), "far too many bytes for this burst")
	require.Error(t, err)
	assert.Empty(t, inner.writes)
}

func TestRateLimitedHonoursContextCancellation(t *testing.T) {
	inner := &recordingSink{}
	limited := NewRateLimited(inner, 1, 1)
	require.NoError(t, limited.Write(context.Background(), "x"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	err := limited.Write(ctx, "y")
	require.Error(t, err)
}
