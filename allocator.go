// Package duotier implements a two-tier memory allocator over a single,
// caller-supplied byte buffer: a slab tier for small fixed-size units and a
// chunk tier for variable-size, boundary-tagged allocations with
// coalescing and corruption-tolerant traversal. It is single-threaded and
// does no I/O of its own; callers embed it in whatever concurrency and
// persistence model they need.
package duotier

import "github.com/google/uuid"

// Allocator is the facade over the two tiers: Alloc tries the slab tier
// first (for requests a populated class can satisfy) and falls through to
// the chunk tier; Free routes by comparing the pointer's offset against
// the chunk tier's base.
type Allocator struct {
	id     uuid.UUID
	region region
	slab   slabTier
	chunk  ChunkTier
	log    traceLogger
}

// New builds an Allocator over buf. buf is owned by the returned Allocator
// for the remainder of its lifetime; the caller must not touch it except
// through the slices Alloc returns.
func New(buf []byte, opts Options) (*Allocator, error) {
	if opts.MaxSlabBytes < 0 {
		return nil, ErrInvalidConfig
	}
	if opts.Checksum != ChecksumSentinel && opts.Checksum != ChecksumComputed {
		return nil, ErrInvalidConfig
	}
	for _, s := range opts.SlabClasses {
		if s.UnitSize <= 0 || s.UnitSize%alignSize != 0 || s.UnitCount < 0 {
			return nil, ErrInvalidConfig
		}
	}
	if len(opts.SlabClasses) > numSlabClasses {
		return nil, ErrInvalidConfig
	}

	r, err := newRegion(buf)
	if err != nil {
		return nil, err
	}

	slabBudget := opts.MaxSlabBytes
	if slabBudget > len(buf) {
		slabBudget = len(buf)
	}
	slab := initSlabTier(&r, 0, slabBudget, opts.specs())

	chunkStart := roundUp(slab.end, alignSize)
	chunkSize := len(buf) - chunkStart
	if chunkSize < chunkMinSize {
		return nil, ErrRegionTooSmall
	}
	chunk := initChunkTier(&r, chunkStart, chunkSize, opts.Checksum, opts.Log)

	a := &Allocator{
		id:     uuid.New(),
		region: r,
		slab:   slab,
		chunk:  chunk,
		log:    opts.Log,
	}
	trace(a.log, "allocator[%s]: initialized region=%d slab_end=%d chunk_base=%d chunk_size=%d",
		a.id, len(buf), slab.end, chunk.base, chunk.size)
	return a, nil
}

// ID identifies this allocator instance for logging and metric labels.
func (a *Allocator) ID() uuid.UUID { return a.id }

// Alloc reserves size bytes and returns a slice view of them. It returns
// ErrOutOfMemory if neither tier can satisfy the request.
func (a *Allocator) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		size = 1
	}

	if off, ok := a.slab.alloc(size); ok {
		trace(a.log, "allocator[%s]: alloc size=%d -> slab off=%d", a.id, size, off)
		return a.region.Bytes(off, size), nil
	}

	if off, ok := a.chunk.Alloc(size); ok {
		trace(a.log, "allocator[%s]: alloc size=%d -> chunk off=%d", a.id, size, off)
		return a.region.Bytes(off, size), nil
	}

	trace(a.log, "allocator[%s]: alloc size=%d -> out of memory", a.id, size)
	return nil, ErrOutOfMemory
}

// Free releases a slice previously returned by Alloc. A nil slice, a slice
// this Allocator did not return, or a slice already freed are all silently
// ignored rather than reported as an error: Free never fails.
func (a *Allocator) Free(p []byte) error {
	off, ok := a.region.offsetOf(p)
	if !ok {
		trace(a.log, "allocator[%s]: free ignored, not owned by this region", a.id)
		return nil
	}

	if a.chunk.Owns(off) {
		if !a.chunk.Free(off) {
			trace(a.log, "allocator[%s]: free off=%d -> chunk, ignored (not a live chunk)", a.id, off)
			return nil
		}
		trace(a.log, "allocator[%s]: free off=%d -> chunk", a.id, off)
		return nil
	}

	if a.slab.owns(off) {
		if !a.slab.free(off) {
			trace(a.log, "allocator[%s]: free off=%d -> slab, ignored (not a live unit)", a.id, off)
			return nil
		}
		trace(a.log, "allocator[%s]: free off=%d -> slab", a.id, off)
		return nil
	}

	trace(a.log, "allocator[%s]: free ignored, offset not owned by either tier", a.id)
	return nil
}

// Stats summarizes the current state of both tiers, the same counts the
// diagnostic printer surfaces.
type Stats struct {
	SlabUnitsFree, SlabUnitsUsed   int
	ChunkBytesFree, ChunkBytesUsed int
	CorruptNodesRecovered          int
}

// Stats walks both tiers and reports their current occupancy. It performs
// no allocation of its own, but does a full scan and so is not free in the
// asymptotic sense — callers exporting this continuously should sample it,
// not poll it per-request.
func (a *Allocator) Stats() Stats {
	var s Stats
	for i := range a.slab.classes {
		sc := &a.slab.classes[i]
		for u := 0; u < sc.unitCount; u++ {
			if sc.free(u) {
				s.SlabUnitsFree++
			} else {
				s.SlabUnitsUsed++
			}
		}
	}

	base := a.chunk.base
	for base < a.chunk.base+a.chunk.size {
		size := a.chunk.chunkSizeAt(base)
		if size < chunkMinSize {
			break
		}
		if a.chunk.isUnusedMarker(base) {
			s.ChunkBytesFree += size
		} else {
			s.ChunkBytesUsed += size
		}
		base += size
	}
	s.CorruptNodesRecovered = a.chunk.recoveries
	return s
}
