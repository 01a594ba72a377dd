// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package eventid implements the event-id value (a numeric chain, a
// textual chain and optional named arguments), its human-readable
// inline form and its fixed JSON projection, per spec.md §3 and §4.4.
package eventid

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cbrgm/slf/internal/slferr"
)

// Arg is one named or positional event-id argument.
type Arg struct {
	// Name is empty for an unnamed argument.
	Name  string
	Value string
}

// ID is an event-id: a numeric chain, a textual chain, and zero or more
// arguments.
type ID struct {
	Numeric []int64
	Textual []string
	Args    []Arg
}

// HasArgs reports whether the id carries any arguments.
func (id ID) HasArgs() bool {
	return len(id.Args) > 0
}

// HumanForm renders "<n1.n2…> <T1.T2…> {name1=`v1`, name2=`v2`}" — the
// trailing "{...}" is omitted entirely when the id has no arguments.
func (id ID) HumanForm() string {
	var b strings.Builder
	writeDotJoinedInts(&b, id.Numeric)
	b.WriteByte(' ')
	writeDotJoinedStrings(&b, id.Textual)
	if len(id.Args) == 0 {
		return b.String()
	}
	b.WriteString(" {")
	for i, a := range id.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		if a.Name != "" {
			b.WriteString(a.Name)
			b.WriteByte('=')
		}
		b.WriteByte('`')
		b.WriteString(a.Value)
		b.WriteByte('`')
	}
	b.WriteByte('}')
	return b.String()
}

func writeDotJoinedInts(b *strings.Builder, nums []int64) {
	for i, n := range nums {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatInt(n, 10))
	}
}

func writeDotJoinedStrings(b *strings.Builder, parts []string) {
	b.WriteString(strings.Join(parts, "."))
}

// jsonArg/jsonID mirror the fixed JSON shape of spec.md §3:
//
//	{ "en": [<numbers>], "et": [<texts>], "a": [ {"n":"<name>?", "v":"<value>"}, … ] }
type jsonArg struct {
	Name  string `json:"n,omitempty"`
	Value string `json:"v"`
}

type jsonID struct {
	Numeric []int64   `json:"en"`
	Textual []string  `json:"et"`
	Args    []jsonArg `json:"a,omitempty"`
}

// ToJSON renders the fixed JSON projection described in spec.md §3.
func (id ID) ToJSON() ([]byte, error) {
	j := jsonID{Numeric: id.Numeric, Textual: id.Textual}
	for _, a := range id.Args {
		j.Args = append(j.Args, jsonArg{Name: a.Name, Value: a.Value})
	}
	bs, err := json.Marshal(j)
	if err != nil {
		return nil, slferr.Wrap(slferr.Internal, err, "marshal event-id json")
	}
	return bs, nil
}

// FromJSON reverses ToJSON.
func FromJSON(data []byte) (ID, error) {
	var j jsonID
	if err := json.Unmarshal(data, &j); err != nil {
		return ID{}, slferr.Wrap(slferr.Format, err, "unmarshal event-id json")
	}
	id := ID{Numeric: j.Numeric, Textual: j.Textual}
	for _, a := range j.Args {
		id.Args = append(id.Args, Arg{Name: a.Name, Value: a.Value})
	}
	return id, nil
}
