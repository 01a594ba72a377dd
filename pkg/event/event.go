// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package event serialises the Event entity: a fixed header line
// (timestamp, level, optional hierarchy/event-id/Dev marker) followed by
// one value record per detail, with nested sensitive blocks folded into a
// single encrypted value record.
package event

import (
	"bytes"
	"strings"
	"time"

	"github.com/cbrgm/slf/internal/slferr"
	"github.com/cbrgm/slf/pkg/encoding"
	"github.com/cbrgm/slf/pkg/eventid"
	"github.com/cbrgm/slf/pkg/timecodec"
)

// Cipher is the symmetric-encryption capability a sensitive block is
// folded through. Encrypt returns the textual (already-safe-to-quote)
// ciphertext representation, e.g. base64.
type Cipher interface {
	Encrypt(plaintext []byte) (string, error)
}

// Event is one occurrence handed to EventElement serialisation.
type Event struct {
	Timestamp     time.Time
	TimestampKind timecodec.Kind
	Level         string
	Dev           bool
	Details       []eventid.Detail
}

const identity = "EVENT"

// Serialise renders ev as a complete Event entity terminated by ES.
// registry resolves non-structural details (message, binary, event-id,
// exception, …) to text; cipher (nil if none configured) encrypts
// sensitive blocks.
func Serialise(ev Event, registry *eventid.Registry, cipher Cipher) ([]byte, error) {
	hierarchy, headEventID, recs, err := classifyDetails(ev.Details, registry, cipher)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.WriteString(identity)
	b.WriteByte(encoding.RS)
	b.WriteByte(' ')
	b.WriteString(timecodec.ToISO8601(ev.Timestamp, ev.TimestampKind))

	b.WriteByte(encoding.RS)
	b.WriteString(encoding.VRS)
	b.WriteString(ev.Level)

	if len(hierarchy) > 0 {
		b.WriteByte(encoding.RS)
		b.WriteString(encoding.VRS)
		b.WriteString(encodeHierarchy(hierarchy))
	}
	if headEventID != nil {
		b.WriteByte(encoding.RS)
		b.WriteString(encoding.VRS)
		b.WriteString(headEventID.HumanForm())
	}
	if ev.Dev {
		b.WriteByte(encoding.RS)
		b.WriteString(encoding.VRS)
		b.WriteString("Dev")
	}

	if len(recs) == 0 {
		b.WriteByte(encoding.NL)
	} else {
		writeValueRecords(&b, recs, true)
	}
	b.WriteByte(encoding.ES)
	return b.Bytes(), nil
}

// encodeHierarchy percent-encodes each segment, additionally escaping
// the space byte (which Encode otherwise leaves untouched): the
// hierarchy record sits on the same event header line as the event-id's
// inline "<n1.n2…> <T1.T2…>" form, and a raw space in a hierarchy
// segment would make a segment name like "My App" indistinguishable
// from that event-id form on read-back.
func encodeHierarchy(segments []string) string {
	encoded := make([]string, len(segments))
	for i, s := range segments {
		encoded[i] = encoding.Encode(s, ' ')
	}
	return strings.Join(encoded, ".")
}

type valueRecord struct {
	Key   string
	Value string
}

// writeValueRecords appends one RS-delimited record per rec; the first
// record uses VRS when first is true, every other record (and every
// record at all when first is false) uses NL+INDENT.
func writeValueRecords(b *bytes.Buffer, recs []valueRecord, first bool) {
	for i, r := range recs {
		b.WriteByte(encoding.RS)
		if first && i == 0 {
			b.WriteString(encoding.VRS)
		} else {
			b.WriteByte(encoding.NL)
			b.WriteString(encoding.Indent)
		}
		b.WriteByte(encoding.QM)
		b.WriteString(encoding.Encode(r.Key, encoding.QM))
		b.WriteByte(encoding.QM)
		b.WriteByte(encoding.AS)
		b.WriteByte(encoding.QM)
		b.WriteString(encoding.Encode(r.Value, encoding.QM))
		b.WriteByte(encoding.QM)
	}
}

// classifyDetails walks details in order, extracting the first hierarchy
// detail and the first event-id detail (for the header line), re-emitting
// every event-id detail carrying arguments as an EventID value record,
// folding sensitive-begin/end runs into one encrypted value record, and
// formatting everything else via registry. Returns the header hierarchy,
// the header event-id (if any) and the ordered value records.
func classifyDetails(details []eventid.Detail, registry *eventid.Registry, cipher Cipher) ([]string, *eventid.ID, []valueRecord, error) {
	var hierarchy []string
	var headEventID *eventid.ID
	var recs []valueRecord

	i := 0
	for i < len(details) {
		d := details[i]
		switch d.Variant {
		case eventid.VariantHierarchy:
			if hierarchy == nil {
				hierarchy = d.Hierarchy
			}
			i++

		case eventid.VariantEventID:
			if headEventID == nil {
				headEventID = d.EventID
			}
			if d.EventID != nil && d.EventID.HasArgs() {
				js, err := d.EventID.ToJSON()
				if err != nil {
					return nil, nil, nil, err
				}
				recs = append(recs, valueRecord{Key: "EventID", Value: string(js)})
			}
			i++

		case eventid.VariantSensitiveBegin:
			inner, next, err := collectSensitiveGroup(details, i)
			if err != nil {
				return nil, nil, nil, err
			}
			i = next
			rec, ok, err := sealSensitiveGroup(d.Key, inner, registry, cipher)
			if err != nil {
				return nil, nil, nil, err
			}
			if ok {
				recs = append(recs, rec)
			}

		case eventid.VariantSensitiveEnd:
			return nil, nil, nil, slferr.New(slferr.Format, "sensitive-end detail with no matching sensitive-begin")

		default:
			text, err := registry.Format(d)
			if err != nil {
				return nil, nil, nil, err
			}
			recs = append(recs, valueRecord{Key: d.Key, Value: text})
			i++
		}
	}
	return hierarchy, headEventID, recs, nil
}

// collectSensitiveGroup returns the details strictly between a
// sensitive-begin at index start and its matching sensitive-end (honouring
// nesting), plus the index immediately following that sensitive-end.
func collectSensitiveGroup(details []eventid.Detail, start int) (inner []eventid.Detail, next int, err error) {
	depth := 1
	for i := start + 1; i < len(details); i++ {
		switch details[i].Variant {
		case eventid.VariantSensitiveBegin:
			depth++
		case eventid.VariantSensitiveEnd:
			depth--
			if depth == 0 {
				return details[start+1 : i], i + 1, nil
			}
		}
	}
	return nil, 0, slferr.New(slferr.Format, "sensitive-begin detail with no matching sensitive-end")
}

// sealSensitiveGroup sub-serialises inner as a standalone value-record
// block (first=false, per spec.md §4.6) and encrypts it via cipher. If
// cipher is nil, sub-serialisation fails, or encryption fails, the entire
// group is dropped (ok=false) and iteration resumes with the next detail.
func sealSensitiveGroup(key string, inner []eventid.Detail, registry *eventid.Registry, cipher Cipher) (valueRecord, bool, error) {
	_, _, innerRecs, err := classifyDetails(inner, registry, cipher)
	if err != nil {
		return valueRecord{}, false, nil
	}
	var b bytes.Buffer
	writeValueRecords(&b, innerRecs, false)

	if cipher == nil {
		return valueRecord{}, false, nil
	}
	ciphertext, err := cipher.Encrypt(b.Bytes())
	if err != nil {
		return valueRecord{}, false, nil
	}
	return valueRecord{Key: key, Value: ciphertext}, true, nil
}
