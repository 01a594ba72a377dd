// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package sink

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/cbrgm/slf/pkg/metrics"
	"github.com/cbrgm/slf/pkg/slflog"
)

// Redis mirrors entity text onto a Redis list via RPUSH, one list
// element per Write call. It is an extra-sink: the Router treats it
// like any other Sink and swallows its failures.
type Redis struct {
	client  *redis.Client
	listKey string
	metrics *metrics.Registry
}

// NewRedis builds a Redis sink over addr, pushing entity text onto
// listKey. A RedisHook-style instrumentation hook times every RPUSH and
// records it through reg (nil is fine: Registry methods no-op on nil).
func NewRedis(addr, password, listKey string, reg *metrics.Registry) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	client.AddHook(newRedisHook(reg))
	return &Redis{client: client, listKey: listKey, metrics: reg}
}

func (r *Redis) Write(ctx context.Context, text string) error {
	return r.client.RPush(ctx, r.listKey, text).Err()
}

// Flush has nothing to flush: every Write is already a synchronous
// round trip to Redis.
func (r *Redis) Flush(context.Context) error { return nil }

func (r *Redis) Close() error {
	return r.client.Close()
}

// redisHook times every command the client issues and records it
// through a metrics.Registry, the same BeforeProcess/AfterProcess shape
// the teacher's cache-store client used for its own Redis traffic.
type redisHook struct {
	metrics *metrics.Registry
}

func newRedisHook(reg *metrics.Registry) *redisHook {
	return &redisHook{metrics: reg}
}

type redisHookCtxKey int

const redisStartTimeKey redisHookCtxKey = 0

func (h *redisHook) BeforeProcess(ctx context.Context, _ redis.Cmder) (context.Context, error) {
	return context.WithValue(ctx, redisStartTimeKey, time.Now()), nil
}

func (h *redisHook) AfterProcess(ctx context.Context, cmd redis.Cmder) error {
	start, ok := ctx.Value(redisStartTimeKey).(time.Time)
	if !ok {
		start = time.Now()
	}
	cmdName := strings.ToUpper(cmd.Name())
	status := "success"
	if err := cmd.Err(); err != nil && err != redis.Nil {
		status = "error"
		h.metrics.RecordError(metrics.ComponentRedis, cmdName)
		slflog.WarnContextf(ctx, "redis sink: %s failed after %s: %s", cmdName, time.Since(start), err)
	}
	h.metrics.RecordForward("redis:"+cmdName, status)
	return nil
}

func (h *redisHook) BeforeProcessPipeline(ctx context.Context, _ []redis.Cmder) (context.Context, error) {
	return context.WithValue(ctx, redisStartTimeKey, time.Now()), nil
}

func (h *redisHook) AfterProcessPipeline(ctx context.Context, cmds []redis.Cmder) error {
	for _, cmd := range cmds {
		_ = h.AfterProcess(ctx, cmd)
	}
	return nil
}
