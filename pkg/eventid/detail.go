// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package eventid

import (
	"github.com/cbrgm/slf/internal/slferr"
)

// Variant names the closed set of built-in detail kinds spec.md §4.4
// lists, plus the structural markers EventElement consumes directly
// (hierarchy, sensitive-begin/end) rather than handing to a formatter.
type Variant string

const (
	VariantMessage        Variant = "message"
	VariantBinary         Variant = "binary"
	VariantEventID        Variant = "event-id"
	VariantException      Variant = "exception"
	VariantHierarchy      Variant = "hierarchy"
	VariantSensitiveBegin Variant = "sensitive-begin"
	VariantSensitiveEnd   Variant = "sensitive-end"
)

// Detail is one typed piece of an event's payload. Exactly one of the
// payload fields is meaningful, selected by Variant.
type Detail struct {
	Key     string
	Variant Variant

	Message   string
	Binary    []byte
	EventID   *ID
	Err       error
	Hierarchy []string
}

// Formatter produces the text that becomes a detail's value record. It
// declares, via Supports, which variants it accepts.
type Formatter interface {
	ID() string
	Supports(v Variant) bool
	Format(d Detail) (string, error)
}

// Registry is a pluggable, variant-keyed set of formatters.
type Registry struct {
	byVariant map[Variant]Formatter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byVariant: make(map[Variant]Formatter)}
}

// DefaultRegistry returns a registry pre-populated with the four
// built-in formatters spec.md §4.4 names.
func DefaultRegistry(binaryOpts BinaryFormatterOptions) *Registry {
	r := NewRegistry()
	r.Register(VariantMessage, MessageFormatter{})
	r.Register(VariantBinary, NewBinaryFormatter(binaryOpts))
	r.Register(VariantEventID, EventIDFormatter{})
	r.Register(VariantException, ExceptionFormatter{})
	return r
}

// Register installs formatter for variant, replacing any prior entry.
func (r *Registry) Register(variant Variant, formatter Formatter) {
	r.byVariant[variant] = formatter
}

// Format dispatches d to the formatter registered for d.Variant. Fails
// slferr.Unsupported when no formatter is registered for the variant,
// or when the registered formatter itself rejects the variant.
func (r *Registry) Format(d Detail) (string, error) {
	f, ok := r.byVariant[d.Variant]
	if !ok {
		return "", slferr.Newf(slferr.Unsupported, "no formatter registered for detail variant %q", d.Variant)
	}
	if !f.Supports(d.Variant) {
		return "", slferr.Newf(slferr.Unsupported, "formatter %q does not accept variant %q", f.ID(), d.Variant)
	}
	return f.Format(d)
}
