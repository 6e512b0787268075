package duotier

// ChecksumMode selects how a chunk's boundary-marker checksum is produced
// and verified. This mirrors the compile-time checksum toggle of the
// allocator this package generalizes, as a runtime option instead.
type ChecksumMode int

const (
	// ChecksumSentinel writes the fixed sentinel value into every marker
	// instead of computing a real checksum over the chunk's payload. This
	// is the default: it still lets Free and the corruption-recovery walk
	// detect a marker that has been overwritten with arbitrary garbage
	// (the sentinel won't survive that), just not a payload-only corruption
	// that leaves the marker itself untouched.
	ChecksumSentinel ChecksumMode = iota
	// ChecksumComputed computes a real checksum over the bytes between a
	// chunk's two link slots whenever its markers are written, and
	// revalidates it whenever a free chunk is checked.
	ChecksumComputed
)

// SlabClassSpec describes one fixed-size unit class of the slab tier.
type SlabClassSpec struct {
	UnitSize  int
	UnitCount int
}

// Options configures a new Allocator.
type Options struct {
	// SlabClasses is the fixed-unit-size class table, at most 32 entries.
	// A nil/empty slice disables the slab tier entirely (every request
	// falls through to the chunk tier).
	SlabClasses []SlabClassSpec

	// MaxSlabBytes bounds how much of the region the slab tier may claim;
	// the remainder becomes the chunk tier's range.
	MaxSlabBytes int

	// Checksum selects the boundary-marker checksum strategy.
	Checksum ChecksumMode

	// Log, if non-nil, receives trace-level structured entries for the
	// region split, the chunk tier's initial free chunk, and every
	// Alloc/Free routing, split, coalesce and corruption-recovery decision.
	// The slab tier's per-class layout is not logged. A nil Log logs
	// nothing.
	Log traceLogger
}

func (o Options) specs() []slabClassSpec {
	out := make([]slabClassSpec, len(o.SlabClasses))
	for i, s := range o.SlabClasses {
		out[i] = slabClassSpec{unitSize: s.UnitSize, unitCount: s.UnitCount}
	}
	return out
}
