// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package lock provides the binary mutual-exclusion lock a Router guards
// its state with: forward, reconfigure and flush all acquire it, and
// acquisition honours cancellation instead of blocking forever.
package lock

import (
	"context"

	"k8s.io/klog/v2"

	"github.com/cbrgm/slf/internal/slferr"
)

// Binary is a single-holder lock whose Release, called without a matching
// Acquire, logs instead of panicking.
type Binary struct {
	token chan struct{}
}

// New returns an unlocked Binary.
func New() *Binary {
	b := &Binary{token: make(chan struct{}, 1)}
	b.token <- struct{}{}
	return b
}

// Acquire blocks until the lock is free or ctx is cancelled.
func (b *Binary) Acquire(ctx context.Context) error {
	select {
	case <-b.token:
		return nil
	case <-ctx.Done():
		return slferr.CheckCancelled(ctx)
	}
}

// Release returns the lock. Calling Release without a held lock is a
// logic error in the caller; it is logged and otherwise ignored.
func (b *Binary) Release() {
	select {
	case b.token <- struct{}{}:
	default:
		klog.Warningf("lock: Release called without a matching Acquire")
	}
}
