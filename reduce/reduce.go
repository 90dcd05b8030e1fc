// reduce.go — two-level min/max reduction (spec §4.2).
//
// Below ThresholdParallelReduction the driver already has the keys on the
// host and folds them directly, matching the source's decision to skip a
// device round-trip for small inputs. Above threshold, work is split across
// simulated blocks (goroutines), each folding threadsReduction*elemsReduction
// elements (more once the block count is capped) into one (min,max) pair; the driver then folds the per-block
// pairs itself, exactly as the CUDA source copies 2*numBlocks scratch
// values to pinned host memory and finishes the fold on the CPU.
package reduce

import (
	"runtime"
	"sync"

	"github.com/BrendenCA/gpu-sorting/constants"
	"github.com/BrendenCA/gpu-sorting/types"
)

// Result is the outcome of a reduction: the value bracket, plus whether the
// input is constant-valued (distribution-zero, spec GLOSSARY).
type Result[W types.Word] struct {
	Min, Max     W
	Constant bool
}

// Reduce computes the (min,max) bracket over keys and detects a constant
// (single-valued) input.
func Reduce[W types.Word](keys []W, t constants.Tuning) Result[W] {
	if len(keys) == 0 {
		return Result[W]{}
	}
	var lo, hi W
	if len(keys) <= t.ThresholdParallelReduction {
		lo, hi = hostFold(keys)
	} else {
		lo, hi = blockFold(keys, t)
	}
	return Result[W]{Min: lo, Max: hi, Constant: lo == hi}
}

// hostFold reduces sequentially, used both for small inputs and by each
// blockFold goroutine for its own stripe.
func hostFold[W types.Word](keys []W) (lo, hi W) {
	lo, hi = keys[0], keys[0]
	for _, k := range keys[1:] {
		if k < lo {
			lo = k
		}
		if k > hi {
			hi = k
		}
	}
	return lo, hi
}

// blockFold launches one goroutine per simulated block, each folding its
// stripe of threadsReduction*elemsReduction elements (a larger stripe once
// the block count is capped at 4*GOMAXPROCS), then folds the per-block
// (min,max) pairs on the host.
func blockFold[W types.Word](keys []W, t constants.Tuning) (lo, hi W) {
	stripe := t.ThreadsReduction * t.ElementsReduction
	if stripe <= 0 {
		stripe = len(keys)
	}
	numBlocks := (len(keys)-1)/stripe + 1
	if cap := runtime.GOMAXPROCS(0); numBlocks > cap*4 {
		// Bound goroutine fan-out; each goroutine still walks a
		// proportionally larger stripe. The block count in the real
		// kernel is bounded by hardware occupancy the same way.
		numBlocks = cap * 4
		stripe = (len(keys)-1)/numBlocks + 1
	}

	partials := make([][2]W, numBlocks)
	var wg sync.WaitGroup
	wg.Add(numBlocks)
	for b := 0; b < numBlocks; b++ {
		start := b * stripe
		end := start + stripe
		if end > len(keys) {
			end = len(keys)
		}
		go func(b, start, end int) {
			defer wg.Done()
			if start >= end {
				partials[b] = [2]W{keys[0], keys[0]}
				return
			}
			l, h := hostFold(keys[start:end])
			partials[b] = [2]W{l, h}
		}(b, start, end)
	}
	wg.Wait()

	lo, hi = partials[0][0], partials[0][1]
	for _, p := range partials[1:] {
		if p[0] < lo {
			lo = p[0]
		}
		if p[1] > hi {
			hi = p[1]
		}
	}
	return lo, hi
}
