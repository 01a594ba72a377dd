// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package housekeeping runs a cron-scheduled periodic Router.Flush. It
// never rolls the active logfile over — spec.md's Non-goal on time-based
// rotation stands — it only ensures an idle router's open file is synced
// to disk on a schedule, the same way the teacher's pkg/cleaner ran a
// periodic sweep on a cron.Cron, repurposed here from disk-threshold
// layer eviction to a flush-only heartbeat.
package housekeeping

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/cbrgm/slf/internal/slferr"
	"github.com/cbrgm/slf/pkg/slflog"
)

// Flusher is the capability housekeeping drives on schedule; *router.Router
// satisfies it.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Housekeeper periodically flushes a Flusher on a cron schedule.
type Housekeeper struct {
	flusher  Flusher
	cronExpr string
	cronObj  *cron.Cron
}

// New returns a Housekeeper that will flush flusher according to
// cronExpr (standard five-field cron syntax) once Start is called. An
// empty cronExpr disables housekeeping entirely: Start becomes a no-op.
func New(flusher Flusher, cronExpr string) (*Housekeeper, error) {
	if flusher == nil {
		return nil, slferr.New(slferr.InvalidArg, "flusher must not be nil")
	}
	return &Housekeeper{flusher: flusher, cronExpr: cronExpr}, nil
}

// Start schedules the periodic flush. Idempotent: calling Start twice
// without an intervening Stop is a no-op.
func (h *Housekeeper) Start(ctx context.Context) error {
	if h.cronExpr == "" || h.cronObj != nil {
		return nil
	}
	h.cronObj = cron.New()
	_, err := h.cronObj.AddFunc(h.cronExpr, func() {
		if err := h.flusher.Flush(ctx); err != nil {
			slflog.ErrorContextf(ctx, "housekeeping: flush failed: %s", err)
		}
	})
	if err != nil {
		h.cronObj = nil
		return slferr.Wrap(slferr.InvalidArg, err, "invalid housekeeping cron expression")
	}
	h.cronObj.Start()
	return nil
}

// Stop cancels the schedule and waits for any in-flight flush to finish.
// Idempotent.
func (h *Housekeeper) Stop() {
	if h.cronObj == nil {
		return
	}
	<-h.cronObj.Stop().Done()
	h.cronObj = nil
}
