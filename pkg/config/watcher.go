// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package config

import (
	"context"
	"reflect"

	"github.com/fsnotify/fsnotify"

	"github.com/cbrgm/slf/internal/slferr"
	"github.com/cbrgm/slf/pkg/slflog"
)

// Change carries the config before and after a reload that the Watcher
// decided was worth delivering (the new file parsed and validated
// cleanly, and the resulting Config differs from the previous one).
type Change struct {
	Prev    Config
	Current Config
}

// Watcher re-parses a config file whenever it changes on disk and
// delivers the result down a channel. Unlike the polling/diff loop this
// replaces, this is event-driven: fsnotify wakes the goroutine only when
// the filesystem actually reports a write.
type Watcher struct {
	path string
	prev Config
}

// NewWatcher returns a Watcher for path, seeded with initial as the
// "previous" config so the first real change produces a correct diff.
func NewWatcher(path string, initial Config) *Watcher {
	return &Watcher{path: path, prev: initial}
}

// Watch starts watching the file and returns a channel of Change values.
// The channel is closed when ctx is cancelled or the watch can no longer
// continue. Editors that replace a file (write to a temp name, rename
// over the original) are handled by re-adding the watch on Remove/Rename
// events, matching how most editors save files.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, slferr.Wrap(slferr.Io, err, "create config file watcher")
	}
	if err := fw.Add(w.path); err != nil {
		fw.Close()
		return nil, slferr.Wrapf(slferr.Io, err, "watch config file %q", w.path)
	}

	ch := make(chan Change)
	go func() {
		defer func() {
			fw.Close()
			close(ch)
			slflog.Infof("config watcher for %q closed", w.path)
		}()
		for {
			select {
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
						_ = fw.Add(w.path)
					}
					continue
				}
				w.handleChange(ch)
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				slflog.Warnf("config watcher for %q reported error: %s", w.path, err)
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (w *Watcher) handleChange(ch chan<- Change) {
	current, err := Load(w.path)
	if err != nil {
		slflog.Errorf("reload config %q failed: %s", w.path, err)
		return
	}
	// Preserve the running instance id across a reload; it identifies
	// the process, not the file contents.
	current.InstanceID = w.prev.InstanceID
	if reflect.DeepEqual(current, w.prev) {
		return
	}
	prev := w.prev
	w.prev = current
	ch <- Change{Prev: prev, Current: current}
}
