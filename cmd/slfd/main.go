// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Command slfd is the thin driver that wires a pkg/config.Config to a
// running pkg/router.Router: it owns nothing the library packages don't
// already implement, only process lifecycle — flag parsing, signal
// handling, a config file watcher, a periodic housekeeping flush and a
// minimal admin HTTP surface (/metrics, /debug/pprof/*). The core
// codec and router packages never import this package, matching
// spec.md §6: the library exposes no CLI of its own.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cbrgm/slf/pkg/config"
	"github.com/cbrgm/slf/pkg/eventid"
	"github.com/cbrgm/slf/pkg/housekeeping"
	"github.com/cbrgm/slf/pkg/metrics"
	"github.com/cbrgm/slf/pkg/router"
	"github.com/cbrgm/slf/pkg/sink"
	"github.com/cbrgm/slf/pkg/slflog"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file; unset uses compiled-in defaults")
	adminAddr := flag.String("admin-addr", "0.0.0.0:9090", "address the admin HTTP server (metrics, pprof) listens on")
	cronExpr := flag.String("housekeeping-cron", "@every 30s", "cron schedule for the periodic flush; empty disables it")
	logFile := flag.String("log-file", "", "file slfd's own operational log is written to; empty logs to stdout only")
	flag.Parse()

	slflog.Init(slflog.Option{Filename: *logFile})

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slflog.Fatalf("slfd: load config: %s", err)
	}
	if cfg.SensitiveSettings != "" {
		slflog.Warnf("slfd: sensitive-settings configured but no Cipher is wired; sensitive blocks will be dropped")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mreg := metrics.NewRegistry(prometheus.DefaultRegisterer)
	registry := eventid.DefaultRegistry(eventid.DefaultBinaryFormatterOptions())
	extraSinks := buildExtraSinks(cfg, mreg)

	r, err := router.New(cfg, registry, extraSinks, router.WithMetrics(mreg))
	if err != nil {
		slflog.Fatalf("slfd: build router: %s", err)
	}
	defer func() {
		if err := r.Flush(context.Background()); err != nil {
			slflog.Warnf("slfd: final flush: %s", err)
		}
	}()

	hk, err := housekeeping.New(r, *cronExpr)
	if err != nil {
		slflog.Fatalf("slfd: build housekeeper: %s", err)
	}
	if err := hk.Start(ctx); err != nil {
		slflog.Fatalf("slfd: start housekeeper: %s", err)
	}
	defer hk.Stop()

	if *configPath != "" {
		go watchConfig(ctx, *configPath, cfg, r)
	}

	go reportDiskUsage(ctx, cfg, mreg)

	srv := newAdminServer(*adminAddr)
	errCh := make(chan error, 1)
	go runAdminServer(srv, errCh)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slflog.Infof("slfd: received signal %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			slflog.Errorf("slfd: admin server failed: %s", err)
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slflog.Warnf("slfd: admin server shutdown: %s", err)
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// buildExtraSinks wires cfg.ExtraSinks in order. A "rate-limited" entry
// wraps the most recently built sink rather than standing on its own,
// so operators compose a chain by listing "redis" then "rate-limited".
func buildExtraSinks(cfg config.Config, mreg *metrics.Registry) []sink.Sink {
	var sinks []sink.Sink
	for _, spec := range cfg.ExtraSinks {
		switch spec.Kind {
		case "redis":
			sinks = append(sinks, sink.NewRedis(
				spec.Settings["addr"],
				spec.Settings["password"],
				spec.Settings["list-key"],
				mreg,
			))
		case "rate-limited":
			if len(sinks) == 0 {
				slflog.Warnf("slfd: rate-limited extra-sink with no prior sink to wrap, ignoring")
				continue
			}
			bytesPerSec, _ := strconv.Atoi(spec.Settings["bytes-per-sec"])
			burst, _ := strconv.Atoi(spec.Settings["burst"])
			sinks[len(sinks)-1] = sink.NewRateLimited(sinks[len(sinks)-1], bytesPerSec, burst)
		default:
			slflog.Warnf("slfd: unknown extra-sink kind %q, ignoring", spec.Kind)
		}
	}
	return sinks
}

func watchConfig(ctx context.Context, path string, initial config.Config, r *router.Router) {
	w := config.NewWatcher(path, initial)
	changes, err := w.Watch(ctx)
	if err != nil {
		slflog.Errorf("slfd: start config watcher: %s", err)
		return
	}
	for change := range changes {
		if err := r.Reconfigure(ctx, change.Current); err != nil {
			slflog.Warnf("slfd: reconfigure router: %s", err)
			continue
		}
		slflog.Infof("slfd: router reconfigured from %q", path)
	}
}

// reportDiskUsage periodically samples the configured log directory's
// size and exposes it through the slf_log_dir_usage_bytes gauge.
func reportDiskUsage(ctx context.Context, cfg config.Config, mreg *metrics.Registry) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := metrics.DirSizeBytes(cfg.Path)
			if err != nil {
				continue
			}
			mreg.SetLogDirUsage(cfg.Path, n)
		}
	}
}

func newAdminServer(addr string) *http.Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.UseRawPath = true
	gin.SetMode(gin.ReleaseMode)
	pprof.Register(engine)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return &http.Server{Addr: addr, Handler: engine}
}

func runAdminServer(srv *http.Server, errCh chan<- error) {
	defer slflog.Warnf("slfd: admin server exit")
	slflog.Infof("slfd: admin server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errCh <- fmt.Errorf("admin server: %w", err)
		return
	}
	errCh <- nil
}
