// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package router

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbrgm/slf/pkg/config"
	"github.com/cbrgm/slf/pkg/event"
	"github.com/cbrgm/slf/pkg/eventid"
	"github.com/cbrgm/slf/pkg/sink"
	"github.com/cbrgm/slf/pkg/timecodec"
)

func registry() *eventid.Registry {
	return eventid.DefaultRegistry(eventid.DefaultBinaryFormatterOptions())
}

func messageEvent(msg string) event.Event {
	return event.Event{
		Timestamp:     time.Now().UTC(),
		TimestampKind: timecodec.KindUTC,
		Level:         "Info",
		Details: []eventid.Detail{
			{Key: "Message", Variant: eventid.VariantMessage, Message: msg},
		},
	}
}

func newTestConfig(t *testing.T, keep int) config.Config {
	t.Helper()
	dir := t.TempDir()
	k := keep
	return config.Config{
		AppName:            "testapp",
		WriteToDisk:        true,
		Path:               dir,
		FileNameFormat:     "{seq-no}.slf.log",
		MaximumLogfileSize: 256,
		KeepLogfiles:       &k,
	}
}

func TestForwardWritesHeaderThenEvent(t *testing.T) {
	cfg := newTestConfig(t, 5)
	r, err := New(cfg, registry(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, r.Forward(ctx, []event.Event{messageEvent("hello")}))
	require.NoError(t, r.Flush(ctx))

	entries, err := os.ReadDir(cfg.Path)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	bs, err := os.ReadFile(filepath.Join(cfg.Path, entries[0].Name()))
	require.NoError(t, err)
	text := string(bs)
	assert.True(t, bytes.HasPrefix(bs, []byte("SLF.1")))
	assert.Contains(t, text, "EVENT")
	assert.Contains(t, text, "hello")
}

func TestForwardRejectsNilBatch(t *testing.T) {
	cfg := newTestConfig(t, 5)
	r, err := New(cfg, registry(), nil)
	require.NoError(t, err)
	err = r.Forward(context.Background(), nil)
	require.Error(t, err)
}

func TestForwardRotatesOnMaximumLogfileSize(t *testing.T) {
	cfg := newTestConfig(t, 0)
	r, err := New(cfg, registry(), nil)
	require.NoError(t, err)

	ctx := context.Background()
	big := make([]byte, 300)
	for i := range big {
		big[i] = 'a'
	}
	batch := []event.Event{messageEvent(string(big)), messageEvent("second file now")}
	require.NoError(t, r.Forward(ctx, batch))
	require.NoError(t, r.Flush(ctx))

	entries, err := os.ReadDir(cfg.Path)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 1)
	// keep=0 lets retention delete 1.slf.log when the rollover opens the
	// second file, so only that second file remains.
	require.Len(t, entries, 1)
	assert.Equal(t, "2.slf.log", entries[0].Name())
}

func TestRetentionKeepsOnlyConfiguredCount(t *testing.T) {
	cfg := newTestConfig(t, 1)
	r, err := New(cfg, registry(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	// Force several rollovers by forwarding oversized events one at a time.
	big := make([]byte, 300)
	for i := range big {
		big[i] = 'b'
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, r.Forward(ctx, []event.Event{messageEvent(string(big))}))
	}
	require.NoError(t, r.Flush(ctx))

	entries, err := os.ReadDir(cfg.Path)
	require.NoError(t, err)
	// keep=1 retains 1 historical file plus whatever is currently open.
	assert.LessOrEqual(t, len(entries), 2)
}

func TestConsoleMirrorReceivesForwardedText(t *testing.T) {
	cfg := newTestConfig(t, 5)
	cfg.WriteToConsole = true
	var buf bytes.Buffer
	r, err := New(cfg, registry(), nil, WithConsole(sink.NewConsole(&buf, false), sink.NewConsole(&bytes.Buffer{}, false)))
	require.NoError(t, err)

	require.NoError(t, r.Forward(context.Background(), []event.Event{messageEvent("mirrored")}))
	assert.Contains(t, buf.String(), "mirrored")
}

func TestExtraSinkReceivesForwardedText(t *testing.T) {
	cfg := newTestConfig(t, 5)
	cfg.WriteToDisk = false
	extra := &recordingSink{}
	r, err := New(cfg, registry(), []sink.Sink{extra})
	require.NoError(t, err)

	require.NoError(t, r.Forward(context.Background(), []event.Event{messageEvent("to-extra")}))
	require.Len(t, extra.writes, 1)
	assert.Contains(t, extra.writes[0], "to-extra")
}

func TestCurrentDigestAvailableAfterRollover(t *testing.T) {
	cfg := newTestConfig(t, 0)
	r, err := New(cfg, registry(), nil)
	require.NoError(t, err)

	_, ok := r.CurrentDigest()
	assert.False(t, ok)

	big := make([]byte, 300)
	for i := range big {
		big[i] = 'c'
	}
	require.NoError(t, r.Forward(context.Background(), []event.Event{messageEvent(string(big))}))

	d, ok := r.CurrentDigest()
	require.True(t, ok)
	assert.NotEmpty(t, d.String())
}

func TestReconfigureReplacesSnapshot(t *testing.T) {
	cfg := newTestConfig(t, 5)
	r, err := New(cfg, registry(), nil)
	require.NoError(t, err)

	cfg2 := cfg
	cfg2.AppName = "renamed"
	require.NoError(t, r.Reconfigure(context.Background(), cfg2))
	assert.Equal(t, "renamed", r.cfg.AppName)
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
