// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package slflog is the ambient logger the router driver and its
// supporting packages use to report their own operational state — not to
// be confused with the Event entities the router writes on behalf of
// callers. Backed by zap with a lumberjack-rotated file sink.
package slflog

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Option configures the process-wide logger.
type Option struct {
	Filename   string
	MaxSize    int
	MaxAge     int
	MaxBackups int
	Level      int
}

var (
	zapLogger *zap.Logger
	maxLevel  int
)

// Init installs the process-wide logger. Safe to call once at startup;
// if it has not been called, the first package-level log call runs it
// with a zero Option (stdout only).
func Init(op Option) {
	if op.Level <= 0 {
		maxLevel = 2
	} else {
		maxLevel = op.Level
	}
	var syncer zapcore.WriteSyncer
	if op.Filename != "" {
		lj := &lumberjack.Logger{
			Filename:   op.Filename,
			MaxSize:    op.MaxSize,
			MaxAge:     op.MaxAge,
			MaxBackups: op.MaxBackups,
			Compress:   true,
		}
		syncer = zapcore.NewMultiWriteSyncer(zapcore.AddSync(lj), zapcore.AddSync(os.Stdout))
	} else {
		syncer = zapcore.AddSync(os.Stdout)
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:      "time",
			LevelKey:     "level",
			MessageKey:   "msg",
			CallerKey:    "C",
			EncodeTime:   zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
			EncodeLevel:  zapcore.CapitalLevelEncoder,
			EncodeCaller: zapcore.ShortCallerEncoder,
		}),
		syncer,
		zap.InfoLevel,
	)
	zapLogger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

func logger() *zap.Logger {
	if zapLogger == nil {
		Init(Option{})
	}
	return zapLogger
}

type contextKey string

const contextKeyFields contextKey = "slflog-fields"

// WithFields attaches key/value pairs to ctx; subsequent *Contextf calls on
// that context include them.
func WithFields(ctx context.Context, kv ...string) context.Context {
	fields := contextFields(ctx)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, zap.String(kv[i], kv[i+1]))
	}
	return context.WithValue(ctx, contextKeyFields, fields)
}

func contextFields(ctx context.Context) []zap.Field {
	if val := ctx.Value(contextKeyFields); val != nil {
		if fields, ok := val.([]zap.Field); ok {
			return fields
		}
	}
	return nil
}

func Infof(format string, args ...interface{}) {
	logger().Info(fmt.Sprintf(format, args...))
}

func InfoContextf(ctx context.Context, format string, args ...interface{}) {
	logger().Info(fmt.Sprintf(format, args...), contextFields(ctx)...)
}

func Warnf(format string, args ...interface{}) {
	logger().Warn(fmt.Sprintf(format, args...))
}

func WarnContextf(ctx context.Context, format string, args ...interface{}) {
	logger().Warn(fmt.Sprintf(format, args...), contextFields(ctx)...)
}

func Errorf(format string, args ...interface{}) {
	logger().Error(fmt.Sprintf(format, args...))
}

func ErrorContextf(ctx context.Context, format string, args ...interface{}) {
	logger().Error(fmt.Sprintf(format, args...), contextFields(ctx)...)
}

// Fatalf logs at fatal level then exits the process; reserved for driver
// startup failures a running router must never trigger on its own.
func Fatalf(format string, args ...interface{}) {
	logger().Fatal(fmt.Sprintf(format, args...))
}

// Verbose gates a log call behind a verbosity level, mirroring klog/glog's
// V(level) idiom.
type Verbose struct {
	level int
}

func V(level int) Verbose { return Verbose{level: level} }

func (v Verbose) Infof(format string, args ...interface{}) {
	if v.level > maxLevel {
		return
	}
	Infof(format, args...)
}

func (v Verbose) InfoContextf(ctx context.Context, format string, args ...interface{}) {
	if v.level > maxLevel {
		return
	}
	InfoContextf(ctx, format, args...)
}
