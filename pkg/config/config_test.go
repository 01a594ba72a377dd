// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesDocumentedDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "None", cfg.AppName)
	assert.False(t, cfg.WriteToConsole)
	assert.False(t, cfg.WriteToDebugConsole)
	assert.True(t, cfg.WriteToDisk)
	assert.Equal(t, "./logs", cfg.Path)
	assert.Equal(t, "{app-name}-{start-up-time}-{seq-no}.slf.log", cfg.FileNameFormat)
	assert.EqualValues(t, 25*1024*1024, cfg.MaximumLogfileSize)
	require.NotNil(t, cfg.KeepLogfiles)
	assert.Equal(t, 5, *cfg.KeepLogfiles)
	assert.False(t, cfg.ConsoleBeautified)
	assert.NotEmpty(t, cfg.InstanceID)
}

func TestBuilderOverridesDefaults(t *testing.T) {
	keep := 0
	cfg, err := NewBuilder().
		WithAppName("myapp").
		WithPath("/var/log/myapp").
		WithMaximumLogfileSize(256).
		WithKeepLogfiles(&keep).
		WithConsoleBeautified(true).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "myapp", cfg.AppName)
	assert.Equal(t, "/var/log/myapp", cfg.Path)
	assert.EqualValues(t, 256, cfg.MaximumLogfileSize)
	require.NotNil(t, cfg.KeepLogfiles)
	assert.Equal(t, 0, *cfg.KeepLogfiles)
	assert.True(t, cfg.ConsoleBeautified)
}

func TestBuildRejectsNegativeMaximumLogfileSize(t *testing.T) {
	_, err := NewBuilder().WithMaximumLogfileSize(-1).Build()
	require.Error(t, err)
}

func TestBuildRejectsNegativeKeepLogfiles(t *testing.T) {
	keep := -1
	_, err := NewBuilder().WithKeepLogfiles(&keep).Build()
	require.Error(t, err)
}

func TestLoadFillsInZeroValuedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"app-name":"myapp"}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "myapp", cfg.AppName)
	assert.Equal(t, "./logs", cfg.Path)
	assert.EqualValues(t, 25*1024*1024, cfg.MaximumLogfileSize)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestWatcherDeliversChangeOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	initial := Default()
	initial.AppName = "original"
	bs, err := json.Marshal(initial)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, bs, 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)

	w := NewWatcher(path, loaded)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := w.Watch(ctx)
	require.NoError(t, err)

	loaded.AppName = "changed"
	bs, err = json.Marshal(loaded)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, bs, 0o644))

	select {
	case change := <-changes:
		assert.Equal(t, "original", change.Prev.AppName)
		assert.Equal(t, "changed", change.Current.AppName)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never delivered a change")
	}
}
