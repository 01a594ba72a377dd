// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package config is the value object a Router is built from: the set of
// recognised options, their defaults, and the validation/normalisation
// a config file goes through before it is trusted.
package config

import (
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cbrgm/slf/internal/slferr"
)

// DetailFormatterSpec names a formatter capability to register for a
// detail variant, by id. Config only records which ids were requested;
// nothing in this module builds formatters from these specs (cmd/slfd
// always uses eventid.DefaultRegistry).
type DetailFormatterSpec struct {
	Variant string `json:"variant"`
	ID      string `json:"id"`
}

// ExtraSinkSpec names an extra text-writer sink to wire in, by kind
// ("redis", "rate-limited") plus its kind-specific settings.
type ExtraSinkSpec struct {
	Kind     string            `json:"kind"`
	Settings map[string]string `json:"settings,omitempty"`
}

// Config is the full set of recognised options.
type Config struct {
	AppName              string                `json:"app-name"`
	WriteToConsole       bool                  `json:"write-to-console"`
	WriteToDebugConsole  bool                  `json:"write-to-debug-console"`
	WriteToDisk          bool                  `json:"write-to-disk"`
	Path                 string                `json:"path"`
	FileNameFormat       string                `json:"file-name-format"`
	MaximumLogfileSize   int64                 `json:"maximum-logfile-size"`
	KeepLogfiles         *int                  `json:"keep-logfiles"`
	DetailFormatters     []DetailFormatterSpec `json:"detail-formatters,omitempty"`
	SensitiveSettings    string                `json:"sensitive-settings,omitempty"`
	ExtraSinks           []ExtraSinkSpec       `json:"extra-sinks,omitempty"`
	ConsoleBeautified    bool                  `json:"console-beautified"`

	// InstanceID is not user-configured; it is stamped once per process
	// and carried through so a Router can record it as a misc header
	// field distinguishing runs that share an app-name.
	InstanceID string `json:"-"`
}

const (
	defaultFileNameFormat     = "{app-name}-{start-up-time}-{seq-no}.slf.log"
	defaultMaximumLogfileSize = 25 * 1024 * 1024
	defaultKeepLogfiles       = 5
	defaultPath               = "./logs"
)

// Default returns a Config with every option at its documented default.
func Default() Config {
	keep := defaultKeepLogfiles
	return Config{
		AppName:            "None",
		WriteToDisk:        true,
		Path:               defaultPath,
		FileNameFormat:     defaultFileNameFormat,
		MaximumLogfileSize: defaultMaximumLogfileSize,
		KeepLogfiles:       &keep,
		InstanceID:         uuid.New().String(),
	}
}

// Builder assembles a Config fluently, starting from Default().
type Builder struct {
	cfg Config
}

// NewBuilder returns a Builder seeded with Default().
func NewBuilder() *Builder {
	return &Builder{cfg: Default()}
}

func (b *Builder) WithAppName(name string) *Builder {
	b.cfg.AppName = name
	return b
}

func (b *Builder) WithWriteToConsole(enabled bool) *Builder {
	b.cfg.WriteToConsole = enabled
	return b
}

func (b *Builder) WithWriteToDebugConsole(enabled bool) *Builder {
	b.cfg.WriteToDebugConsole = enabled
	return b
}

func (b *Builder) WithWriteToDisk(enabled bool) *Builder {
	b.cfg.WriteToDisk = enabled
	return b
}

func (b *Builder) WithPath(path string) *Builder {
	b.cfg.Path = path
	return b
}

func (b *Builder) WithFileNameFormat(format string) *Builder {
	b.cfg.FileNameFormat = format
	return b
}

func (b *Builder) WithMaximumLogfileSize(bytes int64) *Builder {
	b.cfg.MaximumLogfileSize = bytes
	return b
}

// WithKeepLogfiles sets the retention count. Pass nil to disable
// retention entirely ("none" in spec terms).
func (b *Builder) WithKeepLogfiles(n *int) *Builder {
	b.cfg.KeepLogfiles = n
	return b
}

func (b *Builder) WithDetailFormatters(specs ...DetailFormatterSpec) *Builder {
	b.cfg.DetailFormatters = specs
	return b
}

func (b *Builder) WithSensitiveSettings(opaque string) *Builder {
	b.cfg.SensitiveSettings = opaque
	return b
}

func (b *Builder) WithExtraSinks(specs ...ExtraSinkSpec) *Builder {
	b.cfg.ExtraSinks = specs
	return b
}

func (b *Builder) WithConsoleBeautified(enabled bool) *Builder {
	b.cfg.ConsoleBeautified = enabled
	return b
}

// Build validates and returns the assembled Config.
func (b *Builder) Build() (Config, error) {
	if err := b.cfg.Validate(); err != nil {
		return Config{}, err
	}
	return b.cfg, nil
}

// Validate normalises zero-valued optional fields to their documented
// defaults and rejects values the option table forbids.
func (c *Config) Validate() error {
	if c.AppName == "" {
		c.AppName = "None"
	}
	if c.Path == "" {
		c.Path = defaultPath
	}
	if c.FileNameFormat == "" {
		c.FileNameFormat = defaultFileNameFormat
	}
	if c.MaximumLogfileSize == 0 {
		c.MaximumLogfileSize = defaultMaximumLogfileSize
	}
	if c.MaximumLogfileSize < 0 {
		return slferr.New(slferr.InvalidArg, "maximum-logfile-size must be > 0")
	}
	if c.KeepLogfiles != nil && *c.KeepLogfiles < 0 {
		return slferr.New(slferr.InvalidArg, "keep-logfiles must be >= 0 when set")
	}
	if c.InstanceID == "" {
		c.InstanceID = uuid.New().String()
	}
	return nil
}

// Load reads and validates a JSON-encoded Config from path, filling in
// defaults for anything the file leaves zero-valued.
func Load(path string) (Config, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return Config{}, slferr.Wrapf(slferr.Io, err, "read config %q", path)
	}
	cfg := Default()
	if err := json.Unmarshal(bs, &cfg); err != nil {
		return Config{}, slferr.Wrapf(slferr.Format, err, "unmarshal config %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.WithMessagef(err, "validate config %q", path)
	}
	return cfg, nil
}
