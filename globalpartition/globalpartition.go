// globalpartition.go — global partition kernel (spec §4.3).
//
// Many blocks cooperate on one sequence: each block work-steals stripes via
// an atomic cursor, counts lower/equal/greater elements in its stripe,
// atomically claims a contiguous output range per class, scatters, folds
// its local min/max candidates into the sequence's shared candidates, and
// the block that finishes last writes the pivot run. The fetch-add offset
// claims and the "last block done" completion counter use sync/atomic
// directly; neither idiom is taken from another package.
package globalpartition

import (
	"github.com/BrendenCA/gpu-sorting/seq"
	"github.com/BrendenCA/gpu-sorting/types"
)

// Buffers is the slice set one block needs to partition its stripe of one
// sequence. ValuesSrc/ValuesDst/ValuesPivot are nil in key-only mode.
type Buffers[W types.Word] struct {
	KeysSrc, KeysDst       []W
	ValuesSrc, ValuesDst   []W
	ValuesPivot            []W
}

// RunBlock executes one block's contribution to the global partition of
// sequence d: it work-steals stripes of the sequence until none remain,
// then participates in the finish-last dance. stripe is threads*elems for
// the active mode (spec §4.3 "per block, per sequence stripe").
func RunBlock[W types.Word](d *seq.DSeq, buf Buffers[W], order types.Order, mode types.Mode, stripe int) {
	pivot := W(d.Pivot)
	length := int64(d.Length)

	for {
		base := d.WorkCounter.Add(int64(stripe)) - int64(stripe)
		if base >= length {
			break
		}
		end := base + int64(stripe)
		if end > length {
			end = length
		}
		partitionStripe(d, buf, order, mode, pivot, int(base), int(end))
	}

	finishLast(d, buf, mode)
}

// partitionStripe implements steps 2-5 of spec §4.3 for one block's stripe
// [start, end) relative to the sequence's own [0, length) coordinate space.
func partitionStripe[W types.Word](d *seq.DSeq, buf Buffers[W], order types.Order, mode types.Mode, pivot W, start, end int) {
	keysSrc := buf.KeysSrc[d.Start : d.Start+d.Length]

	var lowerCount, greaterCount, pivotCount int
	lowerMin, lowerMax := ^W(0), W(0)
	greaterMin, greaterMax := ^W(0), W(0)

	for i := start; i < end; i++ {
		k := keysSrc[i]
		switch types.Classify(order, k, pivot) {
		case types.ClassLower:
			lowerCount++
			if k < lowerMin {
				lowerMin = k
			}
			if k > lowerMax {
				lowerMax = k
			}
		case types.ClassGreater:
			greaterCount++
			if k < greaterMin {
				greaterMin = k
			}
			if k > greaterMax {
				greaterMax = k
			}
		default:
			pivotCount++
		}
	}

	lowerBase := d.OffsetLower.Add(int64(lowerCount)) - int64(lowerCount)
	greaterBase := d.OffsetGreater.Add(int64(greaterCount)) - int64(greaterCount)
	var pivotBase int64
	if mode.HasValues() {
		pivotBase = d.OffsetPivot.Add(int64(pivotCount)) - int64(pivotCount)
	}

	if lowerCount > 0 {
		seq.FoldMin(&d.LowerMinCandidate, uint64(lowerMin))
		seq.FoldMax(&d.LowerMaxCandidate, uint64(lowerMax))
	}
	if greaterCount > 0 {
		seq.FoldMin(&d.GreaterMinCandidate, uint64(greaterMin))
		seq.FoldMax(&d.GreaterMaxCandidate, uint64(greaterMax))
	}

	keysDst := buf.KeysDst[d.Start : d.Start+d.Length]
	var valuesSrc, valuesDst []W
	if mode.HasValues() {
		valuesSrc = buf.ValuesSrc[d.Start : d.Start+d.Length]
		valuesDst = buf.ValuesDst[d.Start : d.Start+d.Length]
	}

	li, gi, pi := 0, 0, 0
	for i := start; i < end; i++ {
		k := keysSrc[i]
		switch types.Classify(order, k, pivot) {
		case types.ClassLower:
			pos := int(lowerBase) + li
			keysDst[pos] = k
			if mode.HasValues() {
				valuesDst[pos] = valuesSrc[i]
			}
			li++
		case types.ClassGreater:
			pos := d.Length - 1 - (int(greaterBase) + gi)
			keysDst[pos] = k
			if mode.HasValues() {
				valuesDst[pos] = valuesSrc[i]
			}
			gi++
		default:
			// Equal to pivot: dropped here in key-only mode (the
			// finish-last block reconstitutes the run from d.Pivot);
			// in key-value mode the value payload can't be dropped
			// because it must survive to its final slot, whose
			// position isn't known until every block has reported —
			// so it's staged in the pivot-values buffer instead.
			if mode.HasValues() {
				buf.ValuesPivot[d.Start+int(pivotBase)+pi] = valuesSrc[i]
			}
			pi++
		}
	}
}

// finishLast implements spec §4.3 step 6: the block whose post-increment of
// FinishedBlocks equals BlockCount-1 writes the pivot run into the gap
// between the lower and greater partitions.
func finishLast[W types.Word](d *seq.DSeq, buf Buffers[W], mode types.Mode) {
	if int(d.FinishedBlocks.Add(1)) != d.BlockCount {
		return
	}

	offsetLower := int(d.OffsetLower.Load())
	offsetGreater := int(d.OffsetGreater.Load())
	gapStart := d.Start + offsetLower
	gapEnd := d.Start + d.Length - offsetGreater

	keysDst := buf.KeysDst
	pivot := W(d.Pivot)
	for i := gapStart; i < gapEnd; i++ {
		keysDst[i] = pivot
	}

	if mode.HasValues() {
		valuesDst := buf.ValuesDst
		valuesPivot := buf.ValuesPivot[d.Start:]
		for i := 0; i < gapEnd-gapStart; i++ {
			valuesDst[gapStart+i] = valuesPivot[i]
		}
	} else {
		d.OffsetPivot.Store(int64(gapEnd - gapStart))
	}
}
