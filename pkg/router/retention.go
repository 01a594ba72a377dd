// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package router

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/cbrgm/slf/internal/slferr"
	"github.com/cbrgm/slf/pkg/header"
	"github.com/cbrgm/slf/pkg/metrics"
	"github.com/cbrgm/slf/pkg/slflog"
)

// headerTuple is what retention needs out of a historical file's header.
type headerTuple struct {
	startUp time.Time
	seqNo   int64
}

// headerCacheTTL bounds how long a path -> headerTuple
// mapping is trusted. Files under retention are immutable once closed,
// so this only exists to avoid re-parsing the same set of historical
// headers on every rollover in a tight forwarding loop; a generous TTL
// is safe.
const headerCacheTTL = 10 * time.Minute

// maxHeaderProbeBytes bounds how much of a candidate file retention will
// read while looking for a complete Header block. A file whose Header
// does not fit in this budget is treated as unparseable and dropped
// from the ranking, exactly like a file that fails to parse at all.
const maxHeaderProbeBytes = 64 * 1024

type retentionCache = ttlcache.Cache[string, headerTuple]

func newHeaderCache() *retentionCache {
	c := ttlcache.New[string, headerTuple](
		ttlcache.WithTTL[string, headerTuple](headerCacheTTL),
	)
	go c.Start()
	return c
}

// retain runs the retention sweep described in spec.md §4.7.1: enumerate
// the directory, filter to names plausibly produced by the configured
// template, parse each survivor's Header, and delete the oldest entries
// beyond the configured keep count.
func (r *Router) retain(ctx context.Context) error {
	keep := r.cfg.KeepLogfiles
	if keep == nil {
		return nil
	}
	if err := slferr.CheckCancelled(ctx); err != nil {
		return err
	}

	names, err := r.fs.Enumerate(r.cfg.Path)
	if err != nil {
		slflog.WarnContextf(ctx, "retention: enumerate %q failed: %s", r.cfg.Path, err)
		return nil
	}

	prefix, suffix := templateBounds(r.cfg.FileNameFormat, r.cfg.AppName, r.startUp)
	var infos []headerTupleWithPath
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		if err := slferr.CheckCancelled(ctx); err != nil {
			return err
		}
		path := joinDir(r.cfg.Path, name)
		tuple, ok := r.probeHeader(path)
		if !ok {
			continue
		}
		infos = append(infos, headerTupleWithPath{headerTuple: tuple, path: path})
	}

	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].startUp.Equal(infos[j].startUp) {
			return infos[i].startUp.Before(infos[j].startUp)
		}
		return infos[i].seqNo < infos[j].seqNo
	})

	deleteCount := len(infos) - *keep
	for i := 0; i < deleteCount; i++ {
		if err := slferr.CheckCancelled(ctx); err != nil {
			return err
		}
		if err := r.fs.Delete(infos[i].path); err != nil {
			slflog.WarnContextf(ctx, "retention: delete %q failed: %s", infos[i].path, err)
			continue
		}
		r.metrics.RecordRetentionDeletion()
	}
	return nil
}

type headerTupleWithPath struct {
	headerTuple
	path string
}

// templateBounds computes the longest common prefix and suffix of the
// raw template literal and the name the template produces for seq-no 1,
// per spec.md §4.7.1 step 2.
func templateBounds(template, appName string, startUp time.Time) (prefix, suffix string) {
	sample := interpolate(template, appName, startUp, time.Now(), 1)
	return commonPrefix(template, sample), commonSuffix(template, sample)
}

func commonPrefix(a, b string) string {
	n := minLen(a, b)
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

func commonSuffix(a, b string) string {
	n := minLen(a, b)
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return a[len(a)-i:]
}

func minLen(a, b string) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}

// probeHeader reads up to maxHeaderProbeBytes of path and parses its
// Header, caching the result keyed by path so repeated rollovers in a
// tight loop don't re-read and re-parse every historical file's header
// every time. Historical files are never rewritten once closed, so a
// path-keyed cache with a bounded TTL is safe: a deleted-and-replaced
// path simply produces a fresh cache entry once the TTL lapses.
func (r *Router) probeHeader(path string) (headerTuple, bool) {
	if item := r.headerCache.Get(path); item != nil {
		return item.Value(), true
	}

	rc, err := r.fs.OpenForReading(path)
	if err != nil {
		return headerTuple{}, false
	}
	defer rc.Close()

	buf := make([]byte, maxHeaderProbeBytes)
	n, _ := io.ReadFull(rc, buf)
	buf = buf[:n]

	needMore, _, h, err := header.Parse(buf, r.tz)
	if err != nil || needMore || h == nil {
		return headerTuple{}, false
	}
	tuple := headerTuple{startUp: h.StartUp, seqNo: h.SeqNo}
	r.headerCache.Set(path, tuple, ttlcache.DefaultTTL)
	return tuple, true
}
