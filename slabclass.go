package duotier

// metaGapSize is the width of each guard gap bracketing a slab class's
// metadata and data regions. A corrupt write that walks past the end of
// one section lands in a gap instead of a neighbouring section.
const metaGapSize = 32

// slabClass is one fixed-unit-size class of the slab tier: unitCount units
// of unitSize bytes each, backed by two redundant bitmaps. Its in-memory
// layout within the region is
//
//	[gap][meta0][gap][data, 8-aligned][gap][meta1][gap]
//
// A unit is free only when the corresponding bit is clear in both meta0
// and meta1; alloc and free always update both copies together.
type slabClass struct {
	unitSize  int
	unitCount int
	dataOff   int
	meta      [2]bitmapMeta
	// span is the total number of region bytes this class occupies,
	// start to end inclusive of every gap.
	span int
}

// maxUnitCountForBudget mirrors the sizing arithmetic of the allocator this
// tier generalizes: given budget bytes available for one class (after the
// fixed gap/alignment overhead), how many units of unitSize can its two
// bitmaps and its data array jointly fit.
//
//	budget >= 4*metaGapSize + alignSize + unitCount*unitSize + 2*ceil(unitCount/8)
//
// Solved approximately for unitCount (ignoring the ceil, which only ever
// costs at most one byte per bitmap):
//
//	unitCount <= (budget - 4*metaGapSize - alignSize) * 8 / (unitSize*8 + 2)
func maxUnitCountForBudget(budget, unitSize int) int {
	fixed := 4*metaGapSize + alignSize
	if budget <= fixed || unitSize <= 0 {
		return 0
	}
	n := (budget - fixed) * 8 / (unitSize*8 + 2)
	if n < 0 {
		return 0
	}
	return n
}

// initSlabClass lays out one class starting at offset start within r,
// within a budget of at most maxSpan bytes. requestedCount is reduced to
// whatever actually fits; a class that cannot fit even one unit comes back
// inert (unitCount==0) rather than erroring, matching the source
// allocator's behaviour of silently disabling unpopulated classes.
func initSlabClass(r *region, start, maxSpan, unitSize, requestedCount int) slabClass {
	sc := slabClass{unitSize: unitSize}
	if unitSize <= 0 || requestedCount <= 0 {
		return sc
	}

	count := requestedCount
	if max := maxUnitCountForBudget(maxSpan, unitSize); count > max {
		count = max
	}

	// Defensive: the approximation above can overshoot by a handful of
	// units once the bitmap's ceil-to-byte rounding is accounted for, so
	// shrink until the real layout actually fits inside maxSpan.
	for count > 0 {
		metaSize := bitmapMetaSize(count)
		dataStart := roundUp(start+metaGapSize+metaSize+metaGapSize, alignSize)
		dataEnd := dataStart + count*unitSize
		end := dataEnd + metaGapSize + metaSize + metaGapSize
		if end-start <= maxSpan {
			sc.unitCount = count
			sc.dataOff = dataStart
			metaOff0 := dataStart - metaGapSize - metaSize
			sc.meta[0] = bitmapMeta{bytes: r.slice(metaOff0, metaSize)}
			metaOff1 := dataEnd + metaGapSize
			sc.meta[1] = bitmapMeta{bytes: r.slice(metaOff1, metaSize)}
			sc.meta[0].clear()
			sc.meta[1].clear()
			sc.span = end - start
			return sc
		}
		count--
	}
	return sc
}

// free reports whether unit i has neither shadow bit set.
func (sc *slabClass) free(i int) bool {
	return !sc.meta[0].get(i) && !sc.meta[1].get(i)
}

func (sc *slabClass) setState(i int, used bool) {
	sc.meta[0].set(i, used)
	sc.meta[1].set(i, used)
}

// alloc returns the data offset of the first free unit, or ok==false if the
// class is full or inert.
func (sc *slabClass) alloc() (off int, ok bool) {
	for i := 0; i < sc.unitCount; i++ {
		if sc.free(i) {
			sc.setState(i, true)
			return sc.dataOff + i*sc.unitSize, true
		}
	}
	return 0, false
}

// owns reports whether off falls within this class's data array.
func (sc *slabClass) owns(off int) bool {
	return sc.unitCount > 0 && off >= sc.dataOff && off < sc.dataOff+sc.unitCount*sc.unitSize
}

// unitIndex converts a data offset into its unit index; off must satisfy
// owns(off) and be unit-aligned.
func (sc *slabClass) unitIndex(off int) (int, bool) {
	if !sc.owns(off) {
		return 0, false
	}
	rel := off - sc.dataOff
	if rel%sc.unitSize != 0 {
		return 0, false
	}
	return rel / sc.unitSize, true
}

// freeUnit clears both shadow bits for the unit at off. The caller must
// have validated off with unitIndex first.
func (sc *slabClass) freeUnit(i int) {
	sc.setState(i, false)
}
