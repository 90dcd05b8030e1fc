// workspace.go — memory manager (spec §4.6).
//
// Sizes and allocates every buffer and descriptor table the engine needs,
// once per sort, at worst-case size. Grounded on
// codewanderer42820-evm_triarb/aggregator.AggregatorState, which likewise
// groups every arena the hot path touches into one cache-conscious struct
// allocated up front rather than growing incrementally; and on
// original_source/Quicksort/Sort/parallel.h's memoryAllocate, which this
// package's sizing formulas follow field-for-field (including its
// min/max-across-KO/KV-variant dance, spec_full.md supplemental feature 1).
package workspace

import (
	"fmt"

	"github.com/BrendenCA/gpu-sorting/constants"
	"github.com/BrendenCA/gpu-sorting/seq"
	"github.com/BrendenCA/gpu-sorting/types"
)

// Sizes holds the worst-case counts derived from N and the tuning, before
// any allocation happens — split out so callers (and tests) can inspect
// the sizing formula without allocating.
type Sizes struct {
	MaxNumSequences int
	MaxNumBlocks    int
}

// Compute derives Sizes for an input of length n under tuning t, following
// original_source/Quicksort/Sort/parallel.h's memoryAllocate: it takes the
// smaller global-partition threshold across KO/KV for worst-case sequence
// count, and the larger for worst-case per-sequence block count, because
// worst-case allocation must cover whichever mode actually runs.
func Compute(n int, t constants.Tuning) Sizes {
	minT, maxT := t.MinMaxPartitionThresholdGlobal()
	minElemsPerBlock := t.MinElemsPerBlockGlobal()

	maxNumSequences := 2 * ((n-1)/minT + 1)
	maxNumBlocks := maxNumSequences * ((maxT-1)/minElemsPerBlock + 1)
	return Sizes{MaxNumSequences: maxNumSequences, MaxNumBlocks: maxNumBlocks}
}

// Workspace groups every buffer and descriptor table the engine touches
// during one sort. Passed by reference into every phase instead of the
// ~15-parameter lists the CUDA source threads through each call (spec §9
// "Heavy pointer parameter lists").
type Workspace[W types.Word] struct {
	Mode   types.Mode
	Sizes  Sizes

	// Ping-pong key/value buffers, sized N (spec §3 "Buffers").
	KeysA, KeysB     []W
	ValuesA, ValuesB []W // nil when Mode == KeyOnly

	// Pivot-values staging buffer, key-value mode only. Sized N, worst
	// case every element ties the pivot (spec_full.md supplemental
	// feature 3, following the source's _d_valuesPivot sizing).
	ValuesPivot []W

	// Sequence descriptor tables (spec §4.6).
	ActiveHost []seq.HSeq
	BufferHost []seq.HSeq
	DeviceSeq  []seq.DSeq
	BlockIndex []int
	LocalSeq   []seq.LSeq

	// Min/max reduction scratch, sized for the parallel-reduction path.
	MinMaxScratch [][2]W
}

// New allocates a Workspace sized for a worst-case sort of n elements.
// Allocation failure (an out-of-memory panic from a pathologically large n)
// is recovered and surfaced as an error instead of crashing the process,
// matching the source's checkMallocError/checkCudaError fail-fast-but-clean
// posture (spec_full.md supplemental feature 4).
func New[W types.Word](n int, mode types.Mode, t constants.Tuning) (ws *Workspace[W], err error) {
	if n <= 0 {
		return nil, fmt.Errorf("workspace: array length must be positive, got %d", n)
	}
	defer func() {
		if r := recover(); r != nil {
			ws = nil
			err = fmt.Errorf("workspace: allocation failed for n=%d: %v", n, r)
		}
	}()

	sizes := Compute(n, t)
	w := &Workspace[W]{
		Mode:          mode,
		Sizes:         sizes,
		KeysA:         make([]W, n),
		KeysB:         make([]W, n),
		ActiveHost:    make([]seq.HSeq, 0, sizes.MaxNumSequences),
		BufferHost:    make([]seq.HSeq, 0, sizes.MaxNumSequences),
		DeviceSeq:     make([]seq.DSeq, sizes.MaxNumSequences),
		BlockIndex:    make([]int, sizes.MaxNumBlocks),
		LocalSeq:      make([]seq.LSeq, 0, sizes.MaxNumSequences),
		MinMaxScratch: make([][2]W, 2*t.ThresholdParallelReduction),
	}
	if mode.HasValues() {
		w.ValuesA = make([]W, n)
		w.ValuesB = make([]W, n)
		w.ValuesPivot = make([]W, n)
	}
	return w, nil
}

// Keys returns the live key buffer pair, in (source, destination) order for
// a partition writing from d.
func (w *Workspace[W]) Keys(d seq.Direction) (src, dst []W) {
	if d == seq.BufferA {
		return w.KeysA, w.KeysB
	}
	return w.KeysB, w.KeysA
}

// Values returns the live value buffer pair the same way Keys does. Only
// valid when Mode == KeyValue.
func (w *Workspace[W]) Values(d seq.Direction) (src, dst []W) {
	if d == seq.BufferA {
		return w.ValuesA, w.ValuesB
	}
	return w.ValuesB, w.ValuesA
}

// KeyBuffer returns the single key buffer named by d, for the local phase's
// in-place-within-one-buffer contract (spec §4.4).
func (w *Workspace[W]) KeyBuffer(d seq.Direction) []W {
	if d == seq.BufferA {
		return w.KeysA
	}
	return w.KeysB
}

// ValueBuffer returns the single value buffer named by d. Only valid when
// Mode == KeyValue.
func (w *Workspace[W]) ValueBuffer(d seq.Direction) []W {
	if d == seq.BufferA {
		return w.ValuesA
	}
	return w.ValuesB
}
