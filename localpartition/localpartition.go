// localpartition.go — local partition + bitonic tail kernel (spec §4.4).
//
// One block owns one LSeq end-to-end. It recurses via an explicit stack of
// frames (no goroutines here — a "block" in the local phase is exactly one
// worker, so the recursion is plain sequential code, the same way
// PooledQuantumQueue keeps its bitmap-hierarchy descent entirely
// single-threaded even though the queue itself is shared across cores).
// Below the bitonic threshold a frame is finished with an in-block bitonic
// sorting network; above it, one more count→scan→scatter partition level
// runs (structurally identical to globalpartition's, just without the
// atomics because only one worker touches the frame).
package localpartition

import (
	"github.com/BrendenCA/gpu-sorting/constants"
	"github.com/BrendenCA/gpu-sorting/seq"
	"github.com/BrendenCA/gpu-sorting/types"
)

type frame struct {
	start, length int
}

// Run sorts ws's [start, start+length) sub-range in the buffer named by
// lseq.Direction, in place, finishing with an in-block bitonic sort once a
// sub-range shrinks to the bitonic threshold. keys/values are the *live*
// buffer slices for lseq.Direction (workspace.KeyBuffer/ValueBuffer already
// resolve which physical array that is).
func Run[W types.Word](keys, values []W, lseq seq.LSeq, order types.Order, mode types.Mode, t constants.Tuning) {
	start, length := lseq.Start, lseq.Length
	workKeys := keys[start : start+length]
	var workValues []W
	if mode.HasValues() {
		workValues = values[start : start+length]
	}

	scratchKeys := make([]W, length)
	var scratchValues []W
	if mode.HasValues() {
		scratchValues = make([]W, length)
	}

	bitonicThreshold := t.ThresholdBitonic(mode.HasValues())

	// Stack depth is bounded by log2(length) thanks to the min/max-midpoint
	// pivot (spec §4.4 "Termination"); a generous constant multiple covers
	// the safety margin the spec calls for without unbounded growth.
	stack := make([]frame, 0, 64)
	stack = append(stack, frame{0, length})

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		sub := workKeys[f.start : f.start+f.length]
		var subVals []W
		if mode.HasValues() {
			subVals = workValues[f.start : f.start+f.length]
		}

		if f.length <= bitonicThreshold {
			bitonicSort(sub, subVals, order, mode)
			continue
		}

		lo, hi := foldMinMax(sub)
		if lo == hi {
			// Constant sub-range: already trivially sorted.
			continue
		}
		pivot := lo + (hi-lo)/2

		lowerCount, greaterCount := partitionLevel(sub, subVals, scratchKeys[:f.length], scratchValues, order, mode, pivot, f.length)

		if lowerCount > 0 {
			stack = append(stack, frame{f.start, lowerCount})
		}
		if greaterCount > 0 {
			stack = append(stack, frame{f.start + f.length - greaterCount, greaterCount})
		}
	}
}

// partitionLevel runs one count→scan→scatter pass over sub (spec §4.4,
// "exactly analogous to §4.3 but entirely local"): it scatters into a
// same-sized scratch buffer, then copies the result back into sub so every
// recursion level always starts and ends in the caller's own buffer —
// which sidesteps the fact that sibling branches of the recursion tree can
// reach the bitonic threshold at different depths and would otherwise end
// up split across two physical buffers with no single coherent "final"
// one. Returns the lower and greater partition sizes; the pivot run
// (sub[lowerCount : f.length-greaterCount]) is already in its final place
// and needs no further recursion.
func partitionLevel[W types.Word](sub, subVals, scratch, scratchVals []W, order types.Order, mode types.Mode, pivot W, n int) (lowerCount, greaterCount int) {
	for i := 0; i < n; i++ {
		switch types.Classify(order, sub[i], pivot) {
		case types.ClassLower:
			lowerCount++
		case types.ClassGreater:
			greaterCount++
		}
	}

	li, gi := 0, 0
	pivotBase := lowerCount
	pivotIdx := 0
	for i := 0; i < n; i++ {
		k := sub[i]
		var pos int
		switch types.Classify(order, k, pivot) {
		case types.ClassLower:
			pos = li
			li++
		case types.ClassGreater:
			pos = n - 1 - gi
			gi++
		default:
			pos = pivotBase + pivotIdx
			pivotIdx++
		}
		scratch[pos] = k
		if mode.HasValues() {
			scratchVals[pos] = subVals[i]
		}
	}
	copy(sub, scratch[:n])
	if mode.HasValues() {
		copy(subVals, scratchVals[:n])
	}
	return lowerCount, greaterCount
}

func foldMinMax[W types.Word](vals []W) (lo, hi W) {
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
