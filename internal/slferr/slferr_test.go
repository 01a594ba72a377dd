// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package slferr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesKindAndMessage(t *testing.T) {
	err := New(Format, "bad bytes")
	assert.Equal(t, Format, KindOf(err))
	assert.Contains(t, err.Error(), "bad bytes")
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(InvalidArg, "value %d out of range", 7)
	assert.Contains(t, err.Error(), "value 7 out of range")
}

func TestWrapNilCauseReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(Io, nil, "no cause"))
}

func TestWrapPreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(Io, cause, "write logfile")
	assert.Equal(t, Io, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWrapfFormatsMessage(t *testing.T) {
	cause := errors.New("boom")
	err := Wrapf(Internal, cause, "step %s failed", "rotate")
	assert.Contains(t, err.Error(), "step rotate failed")
}

func TestKindOfNonTaxonomyErrorIsEmpty(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain error")))
}

func TestIsMatchesKind(t *testing.T) {
	err := New(Unsupported, "nope")
	assert.True(t, Is(err, Unsupported))
	assert.False(t, Is(err, Format))
}

func TestCheckCancelledNilWhenContextLive(t *testing.T) {
	require.NoError(t, CheckCancelled(context.Background()))
}

func TestCheckCancelledReportsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := CheckCancelled(ctx)
	require.Error(t, err)
	assert.Equal(t, Cancelled, KindOf(err))
}
