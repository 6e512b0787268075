// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/duotier/duotier"
	"github.com/duotier/duotier/cfg"
	"github.com/duotier/duotier/common"
	"github.com/duotier/duotier/internal/diag"
	"github.com/duotier/duotier/internal/logger"
)

// toOptions translates a loaded cfg.AllocatorConfig into the duotier.Options
// its Allocator is built from. log may be nil to disable trace logging.
func toOptions(c cfg.AllocatorConfig, log *logger.Logger) duotier.Options {
	specs := make([]duotier.SlabClassSpec, len(c.SlabClasses))
	for i, s := range c.SlabClasses {
		specs[i] = duotier.SlabClassSpec{UnitSize: s.UnitSize, UnitCount: s.UnitCount}
	}
	maxSlab := c.MaxSlabBytes
	if maxSlab == 0 {
		maxSlab = cfg.DefaultConfig().Allocator.MaxSlabBytes
	}
	opts := duotier.Options{
		SlabClasses:  specs,
		MaxSlabBytes: maxSlab,
	}
	if c.Checksum == cfg.ChecksumComputed {
		opts.Checksum = duotier.ChecksumComputed
	} else {
		opts.Checksum = duotier.ChecksumSentinel
	}
	if log != nil {
		opts.Log = log
	}
	return opts
}

// scriptLine is one parsed command from a run script.
type scriptLine struct {
	raw  string
	verb string
	arg  string
}

func parseScriptLine(raw string) (scriptLine, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return scriptLine{}, false
	}
	fields := strings.Fields(trimmed)
	line := scriptLine{raw: raw, verb: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		line.arg = fields[1]
	}
	return line, true
}

// readScriptLines loads every non-blank, non-comment line from r into a
// queue, preserving order, so a run that aborts partway through can report
// exactly which commands it never reached.
func readScriptLines(r io.Reader) (common.Queue[scriptLine], error) {
	q := common.NewLinkedListQueue[scriptLine]()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line, ok := parseScriptLine(sc.Text())
		if !ok {
			continue
		}
		q.Push(line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return q, nil
}

// scriptRunner replays scriptLines against one Allocator, tracking handles
// by the order they were allocated in. A handle stays in handles after
// free rather than being forgotten, so a later corrupt command can still
// flip bytes in a freed chunk's link fields — that is how this driver
// exercises the corruption-tolerance scenarios from the command line.
type scriptRunner struct {
	alloc   *duotier.Allocator
	printer *diag.Printer
	metrics diag.MetricsHandle
	out     io.Writer
	handles map[int][]byte
	freed   map[int]bool
	nextID  int
}

func newScriptRunner(alloc *duotier.Allocator, printer *diag.Printer, metrics diag.MetricsHandle, out io.Writer) *scriptRunner {
	return &scriptRunner{
		alloc:   alloc,
		printer: printer,
		metrics: metrics,
		out:     out,
		handles: make(map[int][]byte),
		freed:   make(map[int]bool),
	}
}

// run drains q, executing one command per line. It stops at the first
// command error, leaving the remainder of q undrained so the caller can
// report what was never reached.
func (r *scriptRunner) run(q common.Queue[scriptLine]) error {
	for !q.IsEmpty() {
		line := q.Pop()
		if err := r.exec(line); err != nil {
			return fmt.Errorf("%q: %w", line.raw, err)
		}
	}
	return nil
}

func (r *scriptRunner) exec(line scriptLine) error {
	switch line.verb {
	case "alloc":
		size, err := strconv.Atoi(line.arg)
		if err != nil || size <= 0 {
			return fmt.Errorf("alloc requires a positive size argument")
		}
		p, err := r.alloc.Alloc(size)
		if err != nil {
			return err
		}
		id := r.nextID
		r.nextID++
		r.handles[id] = p
		fmt.Fprintf(r.out, "alloc %d -> handle %d\n", size, id)
		return nil

	case "free":
		id, err := strconv.Atoi(line.arg)
		if err != nil {
			return fmt.Errorf("free requires a handle argument")
		}
		p, ok := r.handles[id]
		if !ok {
			return fmt.Errorf("no such handle %d", id)
		}
		if err := r.alloc.Free(p); err != nil {
			return err
		}
		r.freed[id] = true
		fmt.Fprintf(r.out, "free handle %d\n", id)
		return nil

	case "corrupt":
		id, err := strconv.Atoi(line.arg)
		if err != nil {
			return fmt.Errorf("corrupt requires a handle argument")
		}
		p, ok := r.handles[id]
		if !ok {
			return fmt.Errorf("no such handle %d", id)
		}
		if len(p) == 0 {
			return fmt.Errorf("handle %d has no payload bytes to corrupt", id)
		}
		p[0] ^= 0xFF
		fmt.Fprintf(r.out, "corrupt handle %d\n", id)
		return nil

	case "stat":
		return r.printStats()

	default:
		return fmt.Errorf("unknown command %q", line.verb)
	}
}

func (r *scriptRunner) printStats() error {
	s := r.alloc.Stats()
	if r.metrics != nil {
		diag.Observe(r.metrics, s)
	}
	return r.printer.Print(s)
}
