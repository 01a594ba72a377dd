// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package reader implements the incremental stream reader of spec.md
// §4.8: a growing, bounded buffer fed from an io.Reader in small chunks,
// yielding a Header followed by a sequence of Event elements. Event
// parsing is reserved by spec.md itself but implemented here as a
// supplement (see SPEC_FULL.md §D.1): the contract — need-more/consumed/
// element, bounded buffer, I/O and cancellation passthrough — is
// unchanged.
package reader

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/cbrgm/slf/internal/slferr"
	"github.com/cbrgm/slf/pkg/encoding"
	"github.com/cbrgm/slf/pkg/eventid"
	"github.com/cbrgm/slf/pkg/header"
	"github.com/cbrgm/slf/pkg/timecodec"
)

// MaxBufferSize bounds the reader's internal buffer. An element that
// does not fit is a Format error rather than unbounded memory growth.
const MaxBufferSize = 32 * 1024

// SingleRead is the chunk size used to top up the buffer.
const SingleRead = 4 * 1024

// ElementKind distinguishes the two element shapes a Reader can yield.
type ElementKind int

const (
	KindHeader ElementKind = iota
	KindEvent
)

// Detail is one decoded key/value detail record off an Event entity.
// Value is empty for a bare key (no '=' in the wire record).
type Detail struct {
	Key   string
	Value string
}

// Event is the typed projection of a parsed Event entity. EventID is
// populated from the `EventID` JSON value record when present (the
// authoritative source for arguments), falling back to a best-effort
// parse of the inlined human form when only that is available.
type Event struct {
	Timestamp     time.Time
	TimestampKind timecodec.Kind
	Level         string
	Hierarchy     []string
	EventID       *eventid.ID
	Dev           bool
	Details       []Detail
}

// Element is one entity yielded by NextElement: exactly one of Header or
// Event is set, selected by Kind.
type Element struct {
	Kind   ElementKind
	Header *header.Header
	Event  *Event
}

// Reader incrementally parses a byte stream into a Header followed by a
// sequence of Events, per spec.md §4.8.
type Reader struct {
	stream         io.Reader
	tz             *time.Location
	buf            []byte
	eof            bool
	headerObserved bool
}

// Option configures an optional Reader setting.
type Option func(*Reader)

// WithTimeZone sets the zone an unspecified-kind header start-up
// timestamp is interpreted in; nil (the default) means time.Local.
func WithTimeZone(tz *time.Location) Option {
	return func(r *Reader) { r.tz = tz }
}

// New wraps stream. Fails slferr.InvalidArg if stream is nil.
func New(stream io.Reader, opts ...Option) (*Reader, error) {
	if stream == nil {
		return nil, slferr.New(slferr.InvalidArg, "stream must not be nil")
	}
	r := &Reader{stream: stream}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NextElement returns the next Header or Event, or (nil, nil) once the
// stream is exhausted with no partial element pending. I/O errors and
// context cancellation pass through unchanged; every other failure is
// reported as slferr.Format (parsing functions already tag their own
// more specific kinds, which are preserved).
func (r *Reader) NextElement(ctx context.Context) (*Element, error) {
	for {
		if err := slferr.CheckCancelled(ctx); err != nil {
			return nil, err
		}

		el, needMore, err := r.tryParse()
		if err != nil {
			return nil, err
		}
		if el != nil {
			return el, nil
		}
		if !needMore {
			return nil, slferr.New(slferr.Internal, "parser made no progress without requesting more data")
		}

		if r.eof {
			if len(r.buf) == 0 {
				return nil, nil
			}
			return nil, slferr.New(slferr.Format, "incomplete element at end of stream")
		}
		if len(r.buf) >= MaxBufferSize {
			return nil, slferr.New(slferr.Format, "buffer full without yielding an element")
		}
		if err := r.fill(); err != nil {
			return nil, err
		}
	}
}

// fill reads up to SingleRead more bytes into the buffer. An io.EOF is
// recorded, not returned, so the caller's next tryParse sees it as "no
// more bytes will ever arrive" rather than an error.
func (r *Reader) fill() error {
	chunk := make([]byte, SingleRead)
	n, err := r.stream.Read(chunk)
	if n > 0 {
		r.buf = append(r.buf, chunk[:n]...)
	}
	if err != nil {
		if err == io.EOF {
			r.eof = true
			return nil
		}
		return err
	}
	return nil
}

func (r *Reader) tryParse() (el *Element, needMore bool, err error) {
	if !r.headerObserved {
		return r.tryParseHeader()
	}
	return r.tryParseEvent()
}

func (r *Reader) tryParseHeader() (*Element, bool, error) {
	needMore, compatible := header.Identify(r.buf)
	if needMore {
		return nil, true, nil
	}
	if !compatible {
		return nil, false, slferr.New(slferr.Format, "header expected first")
	}
	needMore, consumed, h, err := header.Parse(r.buf, r.tz)
	if err != nil {
		return nil, false, err
	}
	if needMore {
		return nil, true, nil
	}
	r.buf = r.buf[consumed:]
	r.headerObserved = true
	return &Element{Kind: KindHeader, Header: h}, false, nil
}

const eventIdentity = "EVENT"

func (r *Reader) tryParseEvent() (*Element, bool, error) {
	records, consumed, complete, err := encoding.SplitRecords(r.buf, 0)
	if err != nil {
		return nil, false, err
	}
	if !complete {
		return nil, true, nil
	}
	if len(records) < 3 {
		return nil, false, slferr.New(slferr.Format, "event requires at least 3 records")
	}

	trimmed := make([][]byte, len(records))
	for i, rec := range records {
		trimmed[i] = encoding.TrimOrnament(rec)
	}
	if string(trimmed[0]) != eventIdentity {
		return nil, false, slferr.New(slferr.Format, "expected EVENT identity record")
	}

	ts, kind, err := timecodec.ParseISO8601(string(trimmed[1]))
	if err != nil {
		return nil, false, slferr.Wrap(slferr.Format, err, "event timestamp record")
	}
	level := string(trimmed[2])

	idx, hierarchy, id, dev := classifyOptionalHeaderRecords(trimmed, 3)

	var details []Detail
	for _, rec := range trimmed[idx:] {
		keyBytes, valueBytes, hasValue, perr := encoding.ParseKV(rec)
		if perr != nil {
			return nil, false, slferr.Wrap(slferr.Format, perr, "event detail record")
		}
		key, derr := encoding.Decode(string(keyBytes))
		if derr != nil {
			return nil, false, slferr.Wrap(slferr.Format, derr, "event detail key")
		}
		var value string
		if hasValue {
			value, derr = encoding.Decode(string(valueBytes))
			if derr != nil {
				return nil, false, slferr.Wrap(slferr.Format, derr, "event detail value")
			}
		}
		if key == "EventID" && hasValue {
			if parsed, jerr := eventid.FromJSON([]byte(value)); jerr == nil {
				id = &parsed
			}
		}
		details = append(details, Detail{Key: key, Value: value})
	}

	r.buf = r.buf[consumed:]
	return &Element{Kind: KindEvent, Event: &Event{
		Timestamp:     ts,
		TimestampKind: kind,
		Level:         level,
		Hierarchy:     hierarchy,
		EventID:       id,
		Dev:           dev,
		Details:       details,
	}}, false, nil
}

// classifyOptionalHeaderRecords consumes the optional hierarchy/event-id/
// Dev records that may follow an Event's level record, in that fixed
// order (spec.md §4.6). It stops at the first record shaped like a
// value record (a quoted "key"="value" pair) and returns the index that
// record starts at.
//
// A literal space distinguishes the event-id's inline "<n1.n2…>
// <T1.T2…>" form from a hierarchy record: event.encodeHierarchy escapes
// the space byte in every segment precisely so a hierarchy record can
// never contain one, making the space check unambiguous.
func classifyOptionalHeaderRecords(trimmed [][]byte, start int) (next int, hierarchy []string, id *eventid.ID, dev bool) {
	idx := start
	for idx < len(trimmed) {
		rec := trimmed[idx]
		if looksLikeValueRecord(rec) {
			break
		}
		s := string(rec)
		switch {
		case s == "Dev":
			dev = true
		case strings.Contains(s, " "):
			if parsed, ok := parseEventIDHead(s); ok {
				id = &parsed
			}
		default:
			hierarchy = decodeHierarchy(s)
		}
		idx++
	}
	return idx, hierarchy, id, dev
}

func looksLikeValueRecord(rec []byte) bool {
	_, _, hasValue, err := encoding.ParseKV(rec)
	return err == nil && hasValue
}

// parseEventIDHead best-effort parses an event-id's human-readable
// inline form "<n1.n2…> <T1.T2…>[ {args}]" into numeric and textual
// chains, discarding any trailing argument braces — the arguments
// themselves are recovered from the authoritative `EventID` JSON value
// record, when present, by the caller.
func parseEventIDHead(s string) (eventid.ID, bool) {
	body := s
	if i := strings.Index(s, " {"); i >= 0 {
		body = s[:i]
	}
	parts := strings.SplitN(body, " ", 2)
	if len(parts) != 2 {
		return eventid.ID{}, false
	}
	numPart, textPart := parts[0], parts[1]

	var numeric []int64
	if numPart != "" {
		for _, tok := range strings.Split(numPart, ".") {
			n, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				return eventid.ID{}, false
			}
			numeric = append(numeric, n)
		}
	}
	var textual []string
	if textPart != "" {
		textual = strings.Split(textPart, ".")
	}
	return eventid.ID{Numeric: numeric, Textual: textual}, true
}

func decodeHierarchy(s string) []string {
	parts := strings.Split(s, ".")
	out := make([]string, len(parts))
	for i, p := range parts {
		if decoded, err := encoding.Decode(p); err == nil {
			out[i] = decoded
		} else {
			out[i] = p
		}
	}
	return out
}
