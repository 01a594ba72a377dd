// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package encoding implements the byte-level framing and escaping scheme
// the SLF wire format is built on: percent-encoding of control bytes,
// entity/record splitting on the two control separators, ornament
// trimming and a tolerant key/value record parser.
package encoding

import (
	"strconv"
	"strings"

	"github.com/cbrgm/slf/internal/slferr"
)

const (
	// ES is the entity separator: marks the end of one entity.
	ES byte = 0x1E
	// RS is the record separator: marks the end of one record within an entity.
	RS byte = 0x1F
	// QM is the backtick quotation mark used by the tolerant kv parser.
	QM byte = '`'
	// AS is the assignment byte.
	AS byte = '='
	// NL is the newline byte. CRLF is normalised to NL inside decoded text.
	NL byte = '\n'
	// CR is the carriage-return byte.
	CR byte = '\r'
	// Tab is the horizontal-tab byte.
	Tab byte = '\t'

	// VRS is the visual record separator inserted after RS for readability.
	VRS = " == "
	// Indent is the four-space indentation used before continuation records.
	Indent = "    "
)

// ornamentSet is the set of bytes the kv parser and record splitter treat
// as purely decorative: any run of these immediately after RS, or
// surrounding a key/value, is ignored.
var ornamentSet = map[byte]bool{
	' ': true, '-': true, '=': true, '#': true, '*': true, '\t': true, '\n': true,
}

// mustEscape reports whether b must be percent-escaped: '%' itself, a
// byte in the caller-supplied extras set, or a control byte in
// [0x00,0x1F] other than tab, LF, CR.
func mustEscape(b byte, extras map[byte]bool) bool {
	if b == '%' {
		return true
	}
	if extras != nil && extras[b] {
		return true
	}
	if b <= 0x1F && b != Tab && b != NL && b != CR {
		return true
	}
	return false
}

func extraSet(extras []byte) map[byte]bool {
	if len(extras) == 0 {
		return nil
	}
	set := make(map[byte]bool, len(extras))
	for _, b := range extras {
		set[b] = true
	}
	return set
}

const hexDigits = "0123456789ABCDEF"

// Encode percent-encodes every byte of text's UTF-8 form that is '%', a
// control byte in [0x00,0x1F] other than {tab, LF, CR}, or listed in
// extras. Encoding is not idempotent in representation: a second
// application re-escapes the '%' signs the first introduced.
func Encode(text string, extras ...byte) string {
	set := extraSet(extras)
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if mustEscape(c, set) {
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0F])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Decode reverses Encode. It fails with slferr.Format when a '%' is not
// followed by two hex digits, or the input ends inside an escape.
func Decode(text string) (string, error) {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(text) {
			return "", slferr.New(slferr.Format, "truncated percent-escape at end of input")
		}
		v, err := strconv.ParseUint(text[i+1:i+3], 16, 8)
		if err != nil {
			return "", slferr.Wrapf(slferr.Format, err, "invalid percent-escape %q", text[i:i+3])
		}
		b.WriteByte(byte(v))
		i += 2
	}
	return b.String(), nil
}

// SplitLines normalises CRLF and lone CR to LF, then splits on LF. Empty
// input produces one empty element; a trailing LF produces a trailing
// empty element.
func SplitLines(text string) []string {
	normalised := normaliseNewlines(text)
	return strings.Split(normalised, "\n")
}

func normaliseNewlines(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\r' {
			b.WriteByte('\n')
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Trim strips leading and trailing bytes whose value is in set.
func Trim(b []byte, set map[byte]bool) []byte {
	start := 0
	for start < len(b) && set[b[start]] {
		start++
	}
	end := len(b)
	for end > start && set[b[end-1]] {
		end--
	}
	return b[start:end]
}

// TrimOrnament trims the fixed ornament set {space,-,=,#,*,tab,LF}.
func TrimOrnament(b []byte) []byte {
	return Trim(b, ornamentSet)
}

// SplitRecords walks bytes forward from offset, splitting on RS and
// stopping at the first ES. It returns the records found (not including
// any separator byte), how many bytes were consumed, and whether an ES
// was reached (entityComplete). If no ES is found, consumed is the
// number of bytes walked and entityComplete is false; callers should
// request more bytes and retry. Fails slferr.InvalidArg if offset is out
// of range.
func SplitRecords(data []byte, offset int) (records [][]byte, consumed int, entityComplete bool, err error) {
	if offset < 0 || offset > len(data) {
		return nil, 0, false, slferr.Newf(slferr.InvalidArg, "offset %d out of range [0,%d]", offset, len(data))
	}
	last := offset
	i := offset
	for ; i < len(data); i++ {
		switch data[i] {
		case RS:
			records = append(records, data[last:i])
			last = i + 1
		case ES:
			records = append(records, data[last:i])
			return records, i - offset + 1, true, nil
		}
	}
	return records, i - offset, false, nil
}

// ParseKV parses a single key/value record tolerant of optional backtick
// quoting, surrounding whitespace and ornament bytes, per spec.md §4.1.
// value is nil when the record carries no '=' (a bare key).
func ParseKV(data []byte) (key []byte, value []byte, hasValue bool, err error) {
	trimmed := TrimOrnament(data)

	quotePositions := make([]int, 0, 4)
	for i, b := range trimmed {
		if b == QM {
			quotePositions = append(quotePositions, i)
		}
	}
	switch len(quotePositions) {
	case 0, 2, 4:
	default:
		return nil, nil, false, slferr.Newf(slferr.Format, "illegal number of quote marks (%d) in %q", len(quotePositions), trimmed)
	}

	// A record made up entirely of ornament bytes with a structural '='
	// among them (e.g. "=", "  =  ") is indistinguishable from a record
	// with no assignment at all once the whole thing is ornament-trimmed
	// to nothing; check the untrimmed bytes for the '=' that trimming
	// just erased. Per spec.md §4.1, this is empty key, empty value,
	// *with* a value present — unlike a bare key, which has none.
	if len(quotePositions) == 0 && len(trimmed) == 0 && indexByte(data, AS) >= 0 {
		return []byte{}, []byte{}, true, nil
	}

	switch len(quotePositions) {
	case 0:
		return parseUnquotedKV(trimmed)
	case 2:
		return parseOneQuotedSide(trimmed, quotePositions)
	case 4:
		return parseBothQuotedSides(trimmed, quotePositions)
	}
	return nil, nil, false, slferr.New(slferr.Internal, "unreachable")
}

func onlyOrnament(b []byte) bool {
	for _, c := range b {
		if !ornamentSet[c] {
			return false
		}
	}
	return true
}

func parseUnquotedKV(trimmed []byte) ([]byte, []byte, bool, error) {
	idx := indexByte(trimmed, AS)
	if idx < 0 {
		return TrimOrnament(trimmed), nil, false, nil
	}
	key := TrimOrnament(trimmed[:idx])
	val := TrimOrnament(trimmed[idx+1:])
	return key, val, true, nil
}

// parseOneQuotedSide handles the three shapes with exactly one quoted
// token: `k` alone, `k`=v (quoted key), and k=`v` (quoted value). Which
// shape applies is decided by whether the opening quote sits before or
// after the record's '=' (spec.md §4.1: "when the key is quoted, search
// for AS only after the closing quote of the key").
func parseOneQuotedSide(trimmed []byte, qp []int) ([]byte, []byte, bool, error) {
	open, close := qp[0], qp[1]
	quoted := trimmed[open+1 : close]

	if onlyOrnament(trimmed[:open]) {
		// Quote opens (after ornament) at the start of the record: the key
		// is quoted. Any '=' must come after the closing quote.
		after := trimmed[close+1:]
		asIdx := indexByte(after, AS)
		if asIdx < 0 {
			if !onlyOrnament(after) {
				return nil, nil, false, slferr.New(slferr.Format, "stray bytes after quoted key")
			}
			return quoted, nil, false, nil
		}
		if !onlyOrnament(after[:asIdx]) {
			return nil, nil, false, slferr.New(slferr.Format, "non-ornament bytes between quoted key and '='")
		}
		return quoted, TrimOrnament(after[asIdx+1:]), true, nil
	}

	// Quote opens after some leading content: the value is quoted and that
	// leading content must be "key=" (unquoted key, then '=').
	before := trimmed[:open]
	asIdx := lastIndexByte(before, AS)
	if asIdx < 0 {
		return nil, nil, false, slferr.New(slferr.Format, "quoted value with no preceding '='")
	}
	if !onlyOrnament(before[asIdx+1:]) {
		return nil, nil, false, slferr.New(slferr.Format, "non-ornament bytes between '=' and opening value quote")
	}
	key := TrimOrnament(before[:asIdx])
	if !onlyOrnament(trimmed[close+1:]) {
		return nil, nil, false, slferr.New(slferr.Format, "stray bytes after closing value quote")
	}
	return key, quoted, true, nil
}

// parseBothQuotedSides handles "k"="v": both key and value backtick-quoted.
func parseBothQuotedSides(trimmed []byte, qp []int) ([]byte, []byte, bool, error) {
	k0, k1 := qp[0], qp[1]
	if !onlyOrnament(trimmed[:k0]) {
		return nil, nil, false, slferr.New(slferr.Format, "non-ornament bytes before opening key quote")
	}
	key := trimmed[k0+1 : k1]
	between := trimmed[k1+1:]
	asIdx := indexByte(between, AS)
	if asIdx < 0 {
		return nil, nil, false, slferr.New(slferr.Format, "missing '=' between quoted key and quoted value")
	}
	if !onlyOrnament(between[:asIdx]) {
		return nil, nil, false, slferr.New(slferr.Format, "non-ornament bytes between key quote and '='")
	}
	afterAS := between[asIdx+1:]
	// afterAS must start (after ornament) with the opening value quote at v0
	// position relative to trimmed; recompute relative offset instead of
	// trusting v0/v1 directly since `between` is a sub-slice.
	relOpen := indexByte(afterAS, QM)
	if relOpen < 0 {
		return nil, nil, false, slferr.New(slferr.Format, "missing opening value quote")
	}
	if !onlyOrnament(afterAS[:relOpen]) {
		return nil, nil, false, slferr.New(slferr.Format, "non-ornament bytes before opening value quote")
	}
	rest := afterAS[relOpen+1:]
	relClose := lastIndexByte(rest, QM)
	if relClose < 0 {
		return nil, nil, false, slferr.New(slferr.Format, "missing closing value quote")
	}
	value := rest[:relClose]
	tail := rest[relClose+1:]
	if !onlyOrnament(tail) {
		return nil, nil, false, slferr.New(slferr.Format, "stray bytes after closing value quote")
	}
	return key, value, true, nil
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func lastIndexByte(b []byte, c byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == c {
			return i
		}
	}
	return -1
}
