package duotier

import "encoding/binary"

// sentinelNode stands in for the address of a container's own sentinel
// node in the original pointer-based design: a chunk's prev/next link
// holds this value when it sits at the head or tail of its class's list.
const sentinelNode = -1

// numChunkClasses is the chunk tier's fixed fan-out, one size class per
// power-of-two bucket of hole size.
const numChunkClasses = 32

// freeListClass is the sentinel-anchored doubly linked free list for one
// chunk size class. New chunks are always inserted at the head; removal
// can happen anywhere in the list (a neighbour coalesced into an existing
// chunk, say), so it is a genuine doubly linked list rather than a stack.
type freeListClass struct {
	head, tail int // node offsets, or sentinelNode if the class is empty
	count      int
}

func emptyFreeListClass() freeListClass {
	return freeListClass{head: sentinelNode, tail: sentinelNode}
}

// nodeOf returns the list-node address for the chunk based at base: the
// offset of its prev-link slot.
func nodeOf(base int) int { return base + markerSize }

// baseOf is the inverse of nodeOf.
func baseOf(node int) int { return node - markerSize }

func (t *ChunkTier) readLink(off int) int {
	return int(int64(binary.LittleEndian.Uint64(t.r.slice(off, linkSize))))
}

func (t *ChunkTier) writeLink(off int, val int) {
	binary.LittleEndian.PutUint64(t.r.slice(off, linkSize), uint64(int64(val)))
}

// prevLinkOff/nextLinkOff locate a chunk's two intrusive link slots; they
// are only meaningful while the chunk is free.
func prevLinkOff(base int) int { return base + markerSize }
func nextLinkOff(base, size int) int { return base + size - markerSize - linkSize }

func (t *ChunkTier) getPrev(node int) int { return t.readLink(prevLinkOff(baseOf(node))) }
func (t *ChunkTier) setPrev(node, val int) { t.writeLink(prevLinkOff(baseOf(node)), val) }

func (t *ChunkTier) getNext(node int) int {
	base := baseOf(node)
	return t.readLink(nextLinkOff(base, t.chunkSizeAt(base)))
}

func (t *ChunkTier) setNext(node, val int) {
	base := baseOf(node)
	t.writeLink(nextLinkOff(base, t.chunkSizeAt(base)), val)
}

// addNode inserts the chunk at base at the head of class k's free list.
// The chunk's markers must already have been written with used=false
// before this is called. If the class's existing head no longer validates
// as a same-class free chunk — corruption since it was linked in — the
// class is reset to empty first rather than writing a link through it.
func (t *ChunkTier) addNode(k int, base int) {
	cls := &t.classes[k]
	if cls.head != sentinelNode && !t.validNeighbor(k, cls.head) {
		trace(t.log, "chunktier: class %d reset, corrupt head found inserting base=%d", k, base)
		*cls = emptyFreeListClass()
	}

	node := nodeOf(base)
	t.setPrev(node, sentinelNode)
	t.setNext(node, cls.head)
	if cls.head != sentinelNode {
		t.setPrev(cls.head, node)
	} else {
		cls.tail = node
	}
	cls.head = node
	cls.count++
}

// delNode removes the chunk at base from class k's free list. base must
// currently be a member of that list (the caller is responsible for
// locating it there, typically via the alloc/coalesce scan).
//
// base's own prev/next links are read defensively and validated as
// same-class free-list neighbours before anything is written through
// them: a marker can pass isFreeChunk while the in-band link bytes its
// checksum never covers (in either checksum mode) have been corrupted, and
// following such a link blind is exactly what used to crash here. If
// either neighbour fails validation, recovery is impossible from this
// node alone, so the whole class is reset to empty rather than risking
// a write through a bad address.
func (t *ChunkTier) delNode(k int, base int) {
	cls := &t.classes[k]
	node := nodeOf(base)

	prev, prevOK := t.safePrevLink(node)
	next, nextOK := t.safeNextLink(node)
	if !prevOK || !t.validNeighbor(k, prev) || !nextOK || !t.validNeighbor(k, next) {
		trace(t.log, "chunktier: class %d reset, corrupt link found deleting base=%d", k, base)
		*cls = emptyFreeListClass()
		return
	}

	if prev != sentinelNode {
		t.setNext(prev, next)
	} else {
		cls.head = next
	}
	if next != sentinelNode {
		t.setPrev(next, prev)
	} else {
		cls.tail = prev
	}
	cls.count--
}
