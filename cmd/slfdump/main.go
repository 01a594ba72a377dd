// Copyright 2025 The SLF Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Command slfdump opens a single logfile and prints its Header and every
// Event through pkg/reader: one summary line per entity, followed by one
// indented line per header misc record or event detail.
// It exists purely to exercise the Reader end-to-end from the command
// line; nothing in the core library depends on it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/cbrgm/slf/pkg/reader"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <logfile>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := dump(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "slfdump: %s\n", err)
		os.Exit(1)
	}
}

func dump(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := reader.New(f)
	if err != nil {
		return err
	}

	ctx := context.Background()
	for {
		el, err := r.NextElement(ctx)
		if err != nil {
			return err
		}
		if el == nil {
			return nil
		}
		printElement(el)
	}
}

func printElement(el *reader.Element) {
	switch el.Kind {
	case reader.KindHeader:
		h := el.Header
		fmt.Printf("HEADER app=%s seq-no=%d start-up=%s\n", h.App, h.SeqNo, h.StartUp.Format("2006-01-02T15:04:05Z"))
		for _, kv := range h.Misc {
			fmt.Printf("  %s=%s\n", kv.Key, kv.Value)
		}
	case reader.KindEvent:
		ev := el.Event
		fmt.Printf("EVENT %s %s", ev.Timestamp.Format("2006-01-02T15:04:05.000Z"), ev.Level)
		if len(ev.Hierarchy) > 0 {
			fmt.Printf(" [%s]", joinDot(ev.Hierarchy))
		}
		if ev.EventID != nil {
			fmt.Printf(" %s", ev.EventID.HumanForm())
		}
		if ev.Dev {
			fmt.Print(" Dev")
		}
		fmt.Println()
		for _, d := range ev.Details {
			if d.Value == "" {
				fmt.Printf("  %s\n", d.Key)
				continue
			}
			fmt.Printf("  %s=%s\n", d.Key, d.Value)
		}
	default:
		fmt.Println(errors.New("unknown element kind"))
	}
}

func joinDot(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}
