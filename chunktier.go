package duotier

import "math/bits"

// ChunkTier is the variable-size, boundary-tagged allocator: 32 size
// classes of free chunks, first-fit allocation with split-and-recycle of
// any leftover remainder, and free-time coalescing with up to two
// neighbours. Every chunk — free or in use — carries an 8-byte marker at
// its base and an identical one at its tail; a free chunk additionally
// carries two intrusive links (prev at base+8, next at base+size-16) that
// thread it onto its size class's list.
type ChunkTier struct {
	r        *region
	base     int
	size     int
	classes  [numChunkClasses]freeListClass
	checksum ChecksumMode
	log      traceLogger

	recoveries int // count of successful corruption-recovery walks, exposed to diag
}

// chunkClassIndex is floor(log2(x)) for x>0, and 0 for x<=0. x==0 can only
// be reached if a hole of size 0 is ever classified, which cannot happen
// given chunkMinSize enforces a payload span floor of chunkMinSize-2*markerSize;
// this function stays total (rather than panicking) because nothing in the
// source design panics on it either.
func chunkClassIndex(x int) int {
	if x <= 0 {
		return 0
	}
	return bits.Len(uint(x)) - 1
}

// holeSize is the usable span of a chunk of the given total size: the
// total minus its two boundary markers. For a free chunk this span also
// hosts the two intrusive links; for a used chunk it is exactly the
// payload available to the caller.
func holeSize(chunkSize int) int { return chunkSize - 2*markerSize }

func insertClassIndex(chunkSize int) int { return chunkClassIndex(holeSize(chunkSize)) }

// chunkSizeAt reads the size field out of the marker at base, without any
// bounds validation. Only safe to call once base is already known to carry
// a readable marker (markers/isValidChunk have passed).
func (t *ChunkTier) chunkSizeAt(base int) int {
	return int(readMarker(t.r.slice(base, markerSize)).size)
}

// inBounds reports whether a chunk spanning [base,base+size) sits fully
// inside the tier's range and is at least chunkMinSize.
func (t *ChunkTier) inBounds(base, size int) bool {
	return size >= chunkMinSize && base >= t.base && base+size <= t.base+t.size
}

// markers reads and sanity-checks both boundary markers of the chunk based
// at base, without trusting base's own marker's size field until its
// bounds have been confirmed. ok is false if base doesn't carry a chunk
// this tier can safely reason about.
func (t *ChunkTier) markers(base int) (lm, rm marker, ok bool) {
	if base < t.base || base+markerSize > t.base+t.size {
		return marker{}, marker{}, false
	}
	lm = readMarker(t.r.slice(base, markerSize))
	if !t.inBounds(base, int(lm.size)) {
		return lm, marker{}, false
	}
	rm = readMarker(t.r.slice(base+int(lm.size)-markerSize, markerSize))
	return lm, rm, true
}

// isValidChunk reports whether the chunk at base has matching, in-bounds
// markers, used or not.
func (t *ChunkTier) isValidChunk(base int) bool {
	lm, rm, ok := t.markers(base)
	return ok && lm.size == rm.size && lm.used == rm.used && lm.checksum == rm.checksum
}

// isFreeChunk reports whether the chunk at base is a valid, unused chunk
// whose checksum (if computed) still matches its payload. This is the
// corruption gate every traversal step runs a candidate node through
// before trusting its links.
func (t *ChunkTier) isFreeChunk(base int) bool {
	lm, rm, ok := t.markers(base)
	if !ok || lm.used || lm.size != rm.size || lm.checksum != rm.checksum {
		return false
	}
	return t.checksumOK(base, lm)
}

func (t *ChunkTier) checksumOK(base int, lm marker) bool {
	switch t.checksum {
	case ChecksumComputed:
		payload := t.r.slice(base+markerSize+linkSize, int(lm.size)-2*markerSize-2*linkSize)
		return lm.checksum == computeChecksum(payload)
	default:
		return lm.checksum == checksumSentinelValue
	}
}

// computeChecksum is a simple order-sensitive rolling checksum over a
// chunk's payload, used only in ChecksumComputed mode.
func computeChecksum(payload []byte) uint16 {
	var sum uint32
	for _, b := range payload {
		sum = sum*131 + uint32(b)
	}
	return uint16(sum ^ (sum >> 16))
}

func (t *ChunkTier) checksumFor(payload []byte) uint16 {
	if t.checksum == ChecksumComputed {
		return computeChecksum(payload)
	}
	return checksumSentinelValue
}

// writeChunkMarkers stamps identical markers at both ends of the chunk. In
// ChecksumComputed mode the checksum covers [base+16, base+size-16): the
// bytes between the two link slots, so link writes never invalidate it.
func (t *ChunkTier) writeChunkMarkers(base, size int, used bool) {
	payload := t.r.slice(base+markerSize+linkSize, size-2*markerSize-2*linkSize)
	m := marker{used: used, checksum: t.checksumFor(payload), size: uint32(size)}
	writeMarker(t.r.slice(base, markerSize), m)
	writeMarker(t.r.slice(base+size-markerSize, markerSize), m)
}

// restampChecksum recomputes and rewrites just the checksum field of both of
// a chunk's markers from the bytes the checksum currently covers (the span
// between the two link slots, see writeChunkMarkers). No-op outside
// ChecksumComputed, since the sentinel value doesn't depend on payload
// content.
func (t *ChunkTier) restampChecksum(base, size int) {
	if t.checksum != ChecksumComputed {
		return
	}
	payload := t.r.slice(base+markerSize+linkSize, size-2*markerSize-2*linkSize)
	cs := computeChecksum(payload)

	lbuf := t.r.slice(base, markerSize)
	lm := readMarker(lbuf)
	lm.checksum = cs
	writeMarker(lbuf, lm)

	rbuf := t.r.slice(base+size-markerSize, markerSize)
	rm := readMarker(rbuf)
	rm.checksum = cs
	writeMarker(rbuf, rm)
}

// initChunkTier carves out [start,start+size) as one giant free chunk and
// empties every size class's list.
func initChunkTier(r *region, start, size int, checksum ChecksumMode, log traceLogger) ChunkTier {
	t := ChunkTier{r: r, base: start, size: size, checksum: checksum, log: log}
	for i := range t.classes {
		t.classes[i] = emptyFreeListClass()
	}
	if size < chunkMinSize {
		return t
	}
	t.writeChunkMarkers(start, size, false)
	t.addNode(insertClassIndex(size), start)
	t.restampChecksum(start, size)
	trace(log, "chunktier: seeded initial free chunk base=%d size=%d class=%d", start, size, insertClassIndex(size))
	return t
}

// safeNextLink reads the next-link slot of the chunk based at baseOf(node)
// without trusting that chunk's validity first — only that the slot the
// (possibly wrong) size field names still lies inside this tier's range.
func (t *ChunkTier) safeNextLink(node int) (int, bool) {
	base := baseOf(node)
	if base < t.base || base+markerSize > t.base+t.size {
		return 0, false
	}
	off := nextLinkOff(base, t.chunkSizeAt(base))
	if off < t.base || off+linkSize > t.base+t.size {
		return 0, false
	}
	return t.readLink(off), true
}

// safePrevLink is safeNextLink's mirror for a node's prev-link slot. The
// slot's offset (base+markerSize) doesn't depend on the chunk's size field,
// so only the base itself needs bounds-checking.
func (t *ChunkTier) safePrevLink(node int) (int, bool) {
	base := baseOf(node)
	off := prevLinkOff(base)
	if off < t.base || off+linkSize > t.base+t.size {
		return 0, false
	}
	return t.readLink(off), true
}

// validNeighbor reports whether v is safe to act on as a same-class
// free-list neighbour before any link is written through it: either the
// sentinel, or a node whose base sits inside this tier, passes isFreeChunk,
// and is itself a member of classIdx. addNode and delNode run every
// prev/next value they're about to trust through this before mutating
// links with it — the same bar searchNextRecoverable holds a recovery
// candidate to.
func (t *ChunkTier) validNeighbor(classIdx, v int) bool {
	if v == sentinelNode {
		return true
	}
	base := baseOf(v)
	if base < t.base || base+markerSize > t.base+t.size {
		return false
	}
	return t.isFreeChunk(base) && insertClassIndex(t.chunkSizeAt(base)) == classIdx
}

// searchNextRecoverable makes one recovery attempt from a node whose own
// validity is already suspect: it reads that node's next-link slot anyway
// (its location depends on the chunk's own, possibly-corrupt size field,
// so this is a guess) and, if the candidate it names turns out to be a
// valid, free, same-class chunk, accepts it. Anything else — a slot that
// falls outside the tier, a candidate that fails validation, a class
// mismatch — gives up rather than chasing further, since a second bad link
// means the list itself is no longer trustworthy.
func (t *ChunkTier) searchNextRecoverable(classIdx, corruptNode int) (int, bool) {
	next, ok := t.safeNextLink(corruptNode)
	if !ok || next == sentinelNode {
		return sentinelNode, false
	}
	base := baseOf(next)
	if base < t.base || base+markerSize > t.base+t.size {
		return sentinelNode, false
	}
	if !t.isFreeChunk(base) || insertClassIndex(t.chunkSizeAt(base)) != classIdx {
		return sentinelNode, false
	}
	t.recoveries++
	trace(t.log, "chunktier: recovered corrupt node, class=%d resumed at base=%d", classIdx, base)
	return next, true
}

// allocFromClass walks class k's free list first-fit, tolerating exactly
// one corrupt node along the way per spec.
func (t *ChunkTier) allocFromClass(k, want int) (int, bool) {
	cls := &t.classes[k]
	node := cls.head
	recovered := false

	for node != sentinelNode {
		base := baseOf(node)
		if !t.isFreeChunk(base) {
			if recovered {
				trace(t.log, "chunktier: class %d reset, second corrupt node found mid-walk", k)
				*cls = emptyFreeListClass()
				return 0, false
			}
			next, ok := t.searchNextRecoverable(k, node)
			if !ok {
				trace(t.log, "chunktier: class %d reset, corrupt node unrecoverable", k)
				*cls = emptyFreeListClass()
				return 0, false
			}
			recovered = true
			node = next
			continue
		}

		size := t.chunkSizeAt(base)
		if size-2*markerSize >= want {
			t.delNode(k, base)
			return t.splitOrConsume(base, size, want), true
		}
		node = t.getNext(node)
	}
	return 0, false
}

// splitOrConsume turns a free chunk of the given total size into an
// allocated chunk of exactly enough room for want payload bytes, splitting
// off and re-inserting a new free chunk from the remainder when that
// remainder is itself at least chunkMinSize; otherwise the whole chunk is
// handed to the caller as-is (internal fragmentation, never reclaimed until
// this chunk is freed and coalesced).
func (t *ChunkTier) splitOrConsume(base, size, want int) int {
	allocSize := roundUp(want+2*markerSize, alignSize)
	remainder := size - allocSize
	if remainder >= chunkMinSize {
		t.writeChunkMarkers(base, allocSize, true)
		newBase := base + allocSize
		t.writeChunkMarkers(newBase, remainder, false)
		t.addNode(insertClassIndex(remainder), newBase)
		t.restampChecksum(newBase, remainder)
		trace(t.log, "chunktier: split base=%d alloc=%d remainder=%d", base, allocSize, remainder)
	} else {
		t.writeChunkMarkers(base, size, true)
		trace(t.log, "chunktier: consumed whole chunk base=%d size=%d (internal frag=%d)", base, size, size-allocSize)
	}
	return base + markerSize
}

// Alloc finds room for size payload bytes, rounded up to the alignment,
// searching size classes from the one matching the rounded request upward.
// Returns the offset of the chunk's payload (one marker past its base).
func (t *ChunkTier) Alloc(size int) (int, bool) {
	if size < 1 {
		size = 1
	}
	asize := roundUp(size, alignSize)
	start := chunkClassIndex(asize)
	for k := start; k < numChunkClasses; k++ {
		if off, ok := t.allocFromClass(k, asize); ok {
			return off, true
		}
	}
	return 0, false
}

// Owns reports whether addr falls within this tier's range.
func (t *ChunkTier) Owns(addr int) bool {
	return addr >= t.base && addr < t.base+t.size
}

// Free releases the chunk whose payload begins at ptrOff (the offset
// returned by Alloc), coalescing with up to two free neighbours. Returns
// false if ptrOff does not name a currently-allocated chunk.
func (t *ChunkTier) Free(ptrOff int) bool {
	base := ptrOff - markerSize
	lm, rm, ok := t.markers(base)
	if !ok || !lm.used || lm.size != rm.size {
		return false
	}
	size := int(lm.size)

	rightBase := base + size
	if t.isValidChunk(rightBase) && t.isUnusedMarker(rightBase) {
		rSize := t.chunkSizeAt(rightBase)
		t.delNode(insertClassIndex(rSize), rightBase)
		size += rSize
	}

	leftRMarkerOff := base - markerSize
	if leftRMarkerOff >= t.base {
		lrm := readMarker(t.r.slice(leftRMarkerOff, markerSize))
		leftBase := base - int(lrm.size)
		if leftBase >= t.base && t.isValidChunk(leftBase) && t.isUnusedMarker(leftBase) &&
			int(readMarker(t.r.slice(leftBase, markerSize)).size) == int(lrm.size) {
			t.delNode(insertClassIndex(int(lrm.size)), leftBase)
			base = leftBase
			size += int(lrm.size)
		}
	}

	t.writeChunkMarkers(base, size, false)
	t.addNode(insertClassIndex(size), base)
	t.restampChecksum(base, size)
	trace(t.log, "chunktier: freed/coalesced base=%d size=%d", base, size)
	return true
}

// isUnusedMarker is the marker-level free check with no corruption
// tolerance, used to inspect neighbours already passed through
// isValidChunk during Free's coalescing step and by Allocator.Stats' walk.
func (t *ChunkTier) isUnusedMarker(base int) bool {
	m := readMarker(t.r.slice(base, markerSize))
	return !m.used
}
