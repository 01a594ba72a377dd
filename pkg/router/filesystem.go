// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package router

import (
	"io"
	"os"
	"path/filepath"
)

// Filesystem is the capability the Router and its retention sweep use
// to interact with the directory a logfile lives in. Swapping it out
// (e.g. in tests, or for a non-local filesystem) never touches the
// router's own logic.
type Filesystem interface {
	Enumerate(dir string) ([]string, error)
	OpenForReading(path string) (io.ReadCloser, error)
	Delete(path string) error
}

// osFilesystem is the default Filesystem, backed by the local disk.
type osFilesystem struct{}

// OS returns the default, disk-backed Filesystem.
func OS() Filesystem { return osFilesystem{} }

func (osFilesystem) Enumerate(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (osFilesystem) OpenForReading(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (osFilesystem) Delete(path string) error {
	return os.Remove(path)
}

func joinDir(dir, name string) string {
	return filepath.Join(dir, name)
}
