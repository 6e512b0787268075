// Package diag holds the allocator's optional diagnostic observers:
// Printer, a human-readable occupancy dump, and MetricsHandle, a small
// gauge/counter interface with a noop and a Prometheus implementation.
// Neither is required by duotier.Allocator's Alloc/Free path — both just
// read back Allocator.Stats().
package diag

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/duotier/duotier"
	"github.com/duotier/duotier/clock"
)

// Printer writes a human-readable occupancy summary for one allocator
// instance, the same shape the allocator this package generalizes produces
// from its class-table dump routines.
type Printer struct {
	w   io.Writer
	id  uuid.UUID
	clk clock.Clock
}

// NewPrinter builds a Printer tagging every line with id and the wall-clock
// time, so output from several allocator instances (e.g. in a test harness)
// stays distinguishable.
func NewPrinter(w io.Writer, id uuid.UUID) *Printer {
	return NewPrinterWithClock(w, id, clock.RealClock{})
}

// NewPrinterWithClock is NewPrinter with an injectable time source, so tests
// can assert on a fixed timestamp instead of wall-clock time.
func NewPrinterWithClock(w io.Writer, id uuid.UUID, clk clock.Clock) *Printer {
	return &Printer{w: w, id: id, clk: clk}
}

// Print writes one occupancy report for s.
func (p *Printer) Print(s duotier.Stats) error {
	_, err := fmt.Fprintf(p.w,
		"%s allocator[%s]: slab units free=%d used=%d | chunk bytes free=%d used=%d | corrupt nodes recovered=%d\n",
		p.clk.Now().Format("2006-01-02T15:04:05.000Z07:00"),
		p.id, s.SlabUnitsFree, s.SlabUnitsUsed, s.ChunkBytesFree, s.ChunkBytesUsed, s.CorruptNodesRecovered)
	return err
}
