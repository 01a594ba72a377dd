// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package header serialises and parses the Header entity that opens every
// logfile: an identity literal, three mandatory records (app, start-up,
// seq-no) and zero or more misc key/value records.
package header

import (
	"bytes"
	"strconv"
	"time"

	"github.com/cbrgm/slf/internal/slferr"
	"github.com/cbrgm/slf/pkg/encoding"
	"github.com/cbrgm/slf/pkg/timecodec"
)

// Identity is the literal that opens every Header entity.
const Identity = "SLF.1"

// KV is one misc key/value record, kept in insertion order.
type KV struct {
	Key   string
	Value string
}

// Header is the fixed-shape entity a Router writes at the start of every
// logfile it opens.
type Header struct {
	App     string
	StartUp time.Time // always UTC
	SeqNo   int64
	Misc    []KV
}

// Serialise renders h as a complete Header entity, terminated by ES.
func Serialise(h Header) []byte {
	var b bytes.Buffer
	b.WriteString(Identity)
	writeQuotedRecord(&b, "app", h.App)
	writeQuotedRecord(&b, "start-up", timecodec.ToISO8601(h.StartUp.UTC(), timecodec.KindUTC))
	writeBareRecord(&b, "seq-no", strconv.FormatInt(h.SeqNo, 10))
	for _, kv := range h.Misc {
		b.WriteByte(encoding.NL)
		b.WriteByte(encoding.RS)
		b.WriteString(encoding.Indent)
		b.WriteByte(encoding.QM)
		b.WriteString(encoding.Encode(kv.Key, encoding.QM))
		b.WriteByte(encoding.QM)
		b.WriteByte(encoding.AS)
		b.WriteByte(encoding.QM)
		b.WriteString(encoding.Encode(kv.Value, encoding.QM))
		b.WriteByte(encoding.QM)
	}
	b.WriteByte(encoding.ES)
	return b.Bytes()
}

func writeQuotedRecord(b *bytes.Buffer, key, value string) {
	b.WriteByte(encoding.RS)
	b.WriteString(encoding.VRS)
	b.WriteString(key)
	b.WriteByte(encoding.AS)
	b.WriteByte(encoding.QM)
	b.WriteString(encoding.Encode(value, encoding.QM))
	b.WriteByte(encoding.QM)
}

func writeBareRecord(b *bytes.Buffer, key, value string) {
	b.WriteByte(encoding.RS)
	b.WriteString(encoding.VRS)
	b.WriteString(key)
	b.WriteByte(encoding.AS)
	b.WriteString(value)
}

// Identify reports whether data begins with a Header's identity record. It
// never consumes bytes; callers re-drive it as more data arrives.
func Identify(data []byte) (needMore bool, compatible bool) {
	if len(data) < len(Identity) {
		return true, false
	}
	records, _, _, err := encoding.SplitRecords(data, 0)
	if err != nil {
		return false, false
	}
	if len(records) == 0 {
		return true, false
	}
	return false, string(encoding.TrimOrnament(records[0])) == Identity
}

// Parse consumes one Header entity from the front of data. tz supplies the
// zone an unspecified-kind start-up timestamp is interpreted in (nil
// defaults to time.Local); the result is always normalised to UTC.
func Parse(data []byte, tz *time.Location) (needMore bool, consumed int, h *Header, err error) {
	records, consumed, complete, err := encoding.SplitRecords(data, 0)
	if err != nil {
		return false, 0, nil, err
	}
	if !complete {
		return true, 0, nil, nil
	}
	if len(records) < 4 {
		return false, 0, nil, slferr.New(slferr.Unsupported, "header requires at least 4 records")
	}
	trimmed := make([][]byte, len(records))
	for i, r := range records {
		trimmed[i] = encoding.TrimOrnament(r)
	}
	if string(trimmed[0]) != Identity {
		return false, 0, nil, slferr.New(slferr.Unsupported, "not an SLF.1 header")
	}

	app, err := parseExpectedKV(trimmed[1], "app")
	if err != nil {
		return false, 0, nil, slferr.Wrap(slferr.Format, err, "header app record")
	}
	startUpText, err := parseExpectedKV(trimmed[2], "start-up")
	if err != nil {
		return false, 0, nil, slferr.Wrap(slferr.Format, err, "header start-up record")
	}
	startUp, err := timecodec.ParseISO8601Offset(startUpText, tz)
	if err != nil {
		return false, 0, nil, slferr.Wrap(slferr.Format, err, "header start-up timestamp")
	}
	startUp = startUp.UTC()

	seqText, err := parseExpectedKV(trimmed[3], "seq-no")
	if err != nil {
		return false, 0, nil, slferr.Wrap(slferr.Format, err, "header seq-no record")
	}
	seqNo, err := strconv.ParseInt(seqText, 10, 64)
	if err != nil || seqNo <= 0 {
		return false, 0, nil, slferr.Newf(slferr.Format, "header seq-no %q is not a positive integer", seqText)
	}

	var misc []KV
	for _, rec := range trimmed[4:] {
		keyBytes, valueBytes, _, err := encoding.ParseKV(rec)
		if err != nil {
			return false, 0, nil, slferr.Wrap(slferr.Format, err, "header misc record")
		}
		key, err := encoding.Decode(string(keyBytes))
		if err != nil {
			return false, 0, nil, slferr.Wrap(slferr.Format, err, "header misc key")
		}
		value, err := encoding.Decode(string(valueBytes))
		if err != nil {
			return false, 0, nil, slferr.Wrap(slferr.Format, err, "header misc value")
		}
		misc = append(misc, KV{Key: key, Value: value})
	}

	return false, consumed, &Header{App: app, StartUp: startUp, SeqNo: seqNo, Misc: misc}, nil
}

// parseExpectedKV parses rec as a kv record, decodes both sides and
// requires the decoded key to equal wantKey.
func parseExpectedKV(rec []byte, wantKey string) (string, error) {
	keyBytes, valueBytes, _, err := encoding.ParseKV(rec)
	if err != nil {
		return "", err
	}
	key, err := encoding.Decode(string(keyBytes))
	if err != nil {
		return "", err
	}
	if key != wantKey {
		return "", slferr.Newf(slferr.Format, "expected key %q, found %q", wantKey, key)
	}
	return encoding.Decode(string(valueBytes))
}
