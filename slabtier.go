package duotier

import "sort"

// numSlabClasses is the fixed fan-out of the slab tier; unpopulated slots
// stay inert (unitCount==0).
const numSlabClasses = 32

// slabClassSpec is the tier-internal, already-validated form of
// cfg.SlabClassSpec.
type slabClassSpec struct {
	unitSize, unitCount int
}

// slabTier is the fixed-unit-size allocator: up to 32 classes, laid out
// back to back in ascending unit-size order, each independently indexed by
// a pair of shadow bitmaps (see slabClass).
type slabTier struct {
	classes []slabClass // ascending by unitSize, always len<=numSlabClasses
	base    int
	end     int
}

// initSlabTier lays classes out starting at offset start, never exceeding
// budget bytes in total. Specs are sorted ascending by unit size before
// layout, matching the ascending fan-out order SlabTier.alloc searches in.
func initSlabTier(r *region, start, budget int, specs []slabClassSpec) slabTier {
	sorted := make([]slabClassSpec, len(specs))
	copy(sorted, specs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].unitSize < sorted[j].unitSize })
	if len(sorted) > numSlabClasses {
		sorted = sorted[:numSlabClasses]
	}

	t := slabTier{base: start}
	cursor := start
	remaining := budget
	for _, spec := range sorted {
		sc := initSlabClass(r, cursor, remaining, spec.unitSize, spec.unitCount)
		t.classes = append(t.classes, sc)
		cursor += sc.span
		remaining -= sc.span
		if remaining < 0 {
			remaining = 0
		}
	}
	t.end = cursor
	return t
}

// selectClass returns the index of the first class (ascending unit size)
// whose unit size is at least size, or -1 if none fits or the tier has no
// populated classes of adequate size.
func (t *slabTier) selectClass(size int) int {
	for i := range t.classes {
		sc := &t.classes[i]
		if sc.unitCount > 0 && sc.unitSize >= size {
			return i
		}
	}
	return -1
}

// alloc satisfies size from the smallest populated class that fits it.
func (t *slabTier) alloc(size int) (int, bool) {
	idx := t.selectClass(size)
	if idx < 0 {
		return 0, false
	}
	return t.classes[idx].alloc()
}

// owns reports whether off falls inside any class's data array.
func (t *slabTier) owns(off int) bool {
	for i := range t.classes {
		if t.classes[i].owns(off) {
			return true
		}
	}
	return false
}

// free locates the class owning off and clears its unit. Returns false if
// no class owns off or off is not unit-aligned within its class.
func (t *slabTier) free(off int) bool {
	for i := range t.classes {
		sc := &t.classes[i]
		if idx, ok := sc.unitIndex(off); ok {
			sc.freeUnit(idx)
			return true
		}
	}
	return false
}
