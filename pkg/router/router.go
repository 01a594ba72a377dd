// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package router implements the single-writer, size-rotated, retained
// logfile sink events are forwarded to: it owns the currently open
// file, mirrors to the console and any extra sinks, and runs retention
// whenever a new file is opened.
package router

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/cbrgm/slf/internal/slferr"
	"github.com/cbrgm/slf/pkg/config"
	"github.com/cbrgm/slf/pkg/event"
	"github.com/cbrgm/slf/pkg/eventid"
	"github.com/cbrgm/slf/pkg/header"
	"github.com/cbrgm/slf/pkg/lock"
	"github.com/cbrgm/slf/pkg/metrics"
	"github.com/cbrgm/slf/pkg/sink"
	"github.com/cbrgm/slf/pkg/slflog"
)

// Router is the single-writer entity described by spec.md §4.7: a
// mutual-exclusion lock guards a configuration snapshot, an open file
// handle (or none), a running byte counter and sequence number.
type Router struct {
	mu  *lock.Binary
	cfg config.Config
	tz  *time.Location

	registry *eventid.Registry
	cipher   event.Cipher

	fs          Filesystem
	headerCache *retentionCache

	console      sink.Sink
	debugConsole sink.Sink
	extraSinks   []sink.Sink

	metrics *metrics.Registry

	startUp time.Time
	seqNo   int64

	file         *os.File
	bytesWritten int64
	digester     digest.Digester
	lastDigest   digest.Digest
	haveDigest   bool
}

// Option configures optional Router collaborators beyond the required
// Config, detail-formatter registry and extra-sink list.
type Option func(*Router)

// WithFilesystem overrides the default disk-backed Filesystem, mainly
// for tests.
func WithFilesystem(fs Filesystem) Option {
	return func(r *Router) { r.fs = fs }
}

// WithTimeZone sets the zone unspecified timestamps in historical
// headers are interpreted in during retention. Defaults to time.Local.
func WithTimeZone(tz *time.Location) Option {
	return func(r *Router) { r.tz = tz }
}

// WithCipher installs the Cipher capability used to seal sensitive
// detail blocks. A nil cipher (the default) causes sensitive blocks to
// be silently dropped, per event.Serialise's documented behaviour.
func WithCipher(c event.Cipher) Option {
	return func(r *Router) { r.cipher = c }
}

// WithMetrics installs a metrics.Registry the router reports through.
// Omitting this option leaves metrics as a no-op.
func WithMetrics(reg *metrics.Registry) Option {
	return func(r *Router) { r.metrics = reg }
}

// WithConsole overrides the default os.Stdout/os.Stderr-backed console
// sinks built from cfg.ConsoleBeautified.
func WithConsole(console, debugConsole sink.Sink) Option {
	return func(r *Router) {
		r.console = console
		r.debugConsole = debugConsole
	}
}

// New builds a Router from cfg. registry formats event details that
// aren't diverted to header fields; extraSinks are forwarded to in the
// order given.
func New(cfg config.Config, registry *eventid.Registry, extraSinks []sink.Sink, opts ...Option) (*Router, error) {
	if registry == nil {
		return nil, slferr.New(slferr.InvalidArg, "registry must not be nil")
	}
	r := &Router{
		mu:          lock.New(),
		cfg:         cfg,
		registry:    registry,
		extraSinks:  extraSinks,
		fs:          OS(),
		headerCache: newHeaderCache(),
		startUp:     time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.console == nil {
		r.console = sink.NewConsole(os.Stdout, cfg.ConsoleBeautified)
	}
	if r.debugConsole == nil {
		r.debugConsole = sink.NewConsole(os.Stderr, cfg.ConsoleBeautified)
	}
	return r, nil
}

// Reconfigure replaces the configuration snapshot under lock. A file
// already open is retained across reconfiguration; the next rollover
// picks up the new settings.
func (r *Router) Reconfigure(ctx context.Context, cfg config.Config) error {
	if err := r.mu.Acquire(ctx); err != nil {
		return err
	}
	defer r.mu.Release()
	r.cfg = cfg
	return nil
}

// Forward serialises and routes every event in batch, in order.
// Per-event and per-sink failures are swallowed (logged and counted);
// only cancellation propagates to the caller. batch == nil fails
// InvalidArg.
func (r *Router) Forward(ctx context.Context, batch []event.Event) error {
	if batch == nil {
		return slferr.New(slferr.InvalidArg, "batch must not be nil")
	}
	if err := r.mu.Acquire(ctx); err != nil {
		return err
	}
	defer r.mu.Release()

	start := time.Now()
	defer func() { r.metrics.ObserveForwardDuration(time.Since(start).Seconds()) }()

	for _, ev := range batch {
		if err := slferr.CheckCancelled(ctx); err != nil {
			return err
		}
		r.forwardOne(ctx, ev)
	}
	return nil
}

func (r *Router) forwardOne(ctx context.Context, ev event.Event) {
	text, err := event.Serialise(ev, r.registry, r.cipher)
	if err != nil {
		slflog.WarnContextf(ctx, "router: serialise event failed: %s", err)
		r.metrics.RecordError(metrics.ComponentRouter, "serialise")
		return
	}

	if r.cfg.WriteToDisk {
		r.writeToDisk(ctx, text)
	}
	if r.cfg.WriteToConsole {
		r.writeToSink(ctx, r.console, "console", text)
	}
	if r.cfg.WriteToDebugConsole {
		r.writeToSink(ctx, r.debugConsole, "debug-console", text)
	}
	for _, s := range r.extraSinks {
		if err := slferr.CheckCancelled(ctx); err != nil {
			return
		}
		r.writeToSink(ctx, s, "extra", text)
	}
}

func (r *Router) writeToSink(ctx context.Context, s sink.Sink, label string, text []byte) {
	if err := s.Write(ctx, string(text)); err != nil {
		slflog.WarnContextf(ctx, "router: %s sink write failed: %s", label, err)
		r.metrics.RecordForward(label, "error")
		r.metrics.RecordError(metrics.ComponentSink, label)
		return
	}
	r.metrics.RecordForward(label, "success")
}

func (r *Router) writeToDisk(ctx context.Context, text []byte) {
	if r.file == nil {
		if err := r.openNewFile(ctx); err != nil {
			slflog.WarnContextf(ctx, "router: open new logfile failed: %s", err)
			r.metrics.RecordError(metrics.ComponentRouter, "open")
			return
		}
	}
	n, err := r.file.Write(text)
	if err != nil {
		slflog.WarnContextf(ctx, "router: write to %q failed: %s", r.file.Name(), err)
		r.metrics.RecordError(metrics.ComponentRouter, "write")
		return
	}
	if r.digester != nil {
		r.digester.Hash().Write(text[:n])
	}
	r.bytesWritten += int64(n)
	r.metrics.AddBytesWritten(r.cfg.AppName, n)

	if r.bytesWritten >= r.cfg.MaximumLogfileSize {
		r.closeCurrentFile(ctx)
	}
}

func (r *Router) openNewFile(ctx context.Context) error {
	if _, err := os.Stat(r.cfg.Path); err == nil {
		if err := r.retain(ctx); err != nil {
			return err
		}
	} else {
		if err := os.MkdirAll(r.cfg.Path, 0o755); err != nil {
			return slferr.Wrapf(slferr.Io, err, "create log directory %q", r.cfg.Path)
		}
	}

	r.seqNo++
	now := time.Now()
	name := interpolate(r.cfg.FileNameFormat, r.cfg.AppName, r.startUp, now, r.seqNo)
	path := joinDir(r.cfg.Path, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return slferr.Wrapf(slferr.Io, err, "create logfile %q", path)
	}

	h := header.Header{App: r.cfg.AppName, StartUp: r.startUp, SeqNo: r.seqNo}
	if r.cfg.InstanceID != "" {
		h.Misc = append(h.Misc, header.KV{Key: "instance-id", Value: r.cfg.InstanceID})
	}
	bs := header.Serialise(h)
	if _, err := f.Write(bs); err != nil {
		f.Close()
		return slferr.Wrapf(slferr.Io, err, "write header to %q", path)
	}

	r.file = f
	r.bytesWritten = int64(len(bs))
	r.digester = digest.Canonical.Digester()
	r.digester.Hash().Write(bs)
	r.haveDigest = false
	r.metrics.RecordRotation()
	return nil
}

func (r *Router) closeCurrentFile(ctx context.Context) {
	if r.file == nil {
		return
	}
	if err := r.file.Sync(); err != nil {
		slflog.WarnContextf(ctx, "router: sync %q failed: %s", r.file.Name(), err)
	}
	if r.digester != nil {
		r.lastDigest = r.digester.Digest()
		r.haveDigest = true
	}
	if err := r.file.Close(); err != nil {
		slflog.WarnContextf(ctx, "router: close %q failed: %s", r.file.Name(), err)
	}
	r.file = nil
	r.bytesWritten = 0
	r.digester = nil
}

// Flush flushes the open file, if any, and every extra sink. Per-sink
// failures are swallowed; the remaining sinks are still attempted.
// Cancellation is honoured at entry.
func (r *Router) Flush(ctx context.Context) error {
	if err := r.mu.Acquire(ctx); err != nil {
		return err
	}
	defer r.mu.Release()

	if r.file != nil {
		if err := r.file.Sync(); err != nil {
			slflog.WarnContextf(ctx, "router: flush %q failed: %s", r.file.Name(), err)
			r.metrics.RecordError(metrics.ComponentRouter, "flush")
		}
	}
	for _, s := range append([]sink.Sink{r.console, r.debugConsole}, r.extraSinks...) {
		if err := s.Flush(ctx); err != nil {
			slflog.WarnContextf(ctx, "router: sink flush failed: %s", err)
			r.metrics.RecordError(metrics.ComponentSink, "flush")
		}
	}
	return nil
}

// CurrentDigest returns the content digest of the most recently closed
// logfile and true, or the zero value and false if no file has been
// closed yet (spec.md's supplemented content-digest fingerprint).
func (r *Router) CurrentDigest() (digest.Digest, bool) {
	return r.lastDigest, r.haveDigest
}

// interpolate expands the recognised {app-name}/{start-up-time}/
// {creation-time}/{seq-no} tokens in format.
func interpolate(format, appName string, startUp, creation time.Time, seqNo int64) string {
	replacer := strings.NewReplacer(
		"{app-name}", appName,
		"{start-up-time}", formatTimestamp(startUp),
		"{creation-time}", formatTimestamp(creation),
		"{seq-no}", strconv.FormatInt(seqNo, 10),
	)
	return replacer.Replace(format)
}

// formatTimestamp renders t as yyyyMMdd-HHmmssfff.
func formatTimestamp(t time.Time) string {
	return fmt.Sprintf("%s%03d", t.Format("20060102-150405"), t.Nanosecond()/1_000_000)
}
