// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package metrics

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DirSizeBytes returns the total size in bytes of all files under dir
// (recursive). Used by cmd/slfd to report the configured log
// directory's disk footprint.
func DirSizeBytes(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "walk dir %s", dir)
	}
	return total, nil
}
