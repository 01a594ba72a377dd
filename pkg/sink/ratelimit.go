// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package sink

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Sink and throttles its Write calls to a bytes-per-
// second budget, generalising the bandwidth limiter the teacher applied
// to torrent seed upload/download to log-sink backpressure: a sink
// mirroring onto a slow or metered transport no longer has to keep up
// with the router's native write rate.
type RateLimited struct {
	inner   Sink
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with a token-bucket limiter of bytesPerSec
// capacity and burst. bytesPerSec <= 0 means unlimited (inner is
// returned unwrapped in that case by callers that check first; this
// constructor still builds a (very large) limiter so it is always safe
// to call).
func NewRateLimited(inner Sink, bytesPerSec int, burst int) *RateLimited {
	limit := rate.Inf
	if bytesPerSec > 0 {
		limit = rate.Limit(bytesPerSec)
	}
	if burst <= 0 {
		burst = bytesPerSec
		if burst <= 0 {
			burst = 1
		}
	}
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimited) Write(ctx context.Context, text string) error {
	if err := r.limiter.WaitN(ctx, len(text)); err != nil {
		return err
	}
	return r.inner.Write(ctx, text)
}

func (r *RateLimited) Flush(ctx context.Context) error {
	return r.inner.Flush(ctx)
}

func (r *RateLimited) Close() error {
	return r.inner.Close()
}
