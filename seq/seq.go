// seq.go — sequence descriptors: HSeq (host), DSeq (device projection),
// LSeq (local-phase handoff). Grounded on spec §3/§4.1 and on the CUDA
// source's h_glob_seq_t / d_glob_seq_t / loc_seq_t structs
// (original_source/Quicksort/Sort/parallel.h).
//
// Direction is carried explicitly as a struct field on every descriptor
// (spec §9 "Implicit ping-pong state" flags the source's version of this
// as fragile because it's implied by recursion depth instead).
package seq

import "sync/atomic"

// Direction names which of the two ping-pong buffers currently holds the
// live data for a sequence.
type Direction uint8

const (
	BufferA Direction = iota
	BufferB
)

// Flip returns the opposite buffer, used when a partition writes its
// children into the other buffer from its parent.
func (d Direction) Flip() Direction {
	if d == BufferA {
		return BufferB
	}
	return BufferA
}

// HSeq is a contiguous sub-range the host driver still tracks (spec §3).
// Invariant: Length >= 2 and MinVal < MaxVal; constant runs (MinVal ==
// MaxVal) are dropped by the driver before a sequence is ever queued.
type HSeq struct {
	Start     int
	Length    int
	MinVal    uint64
	MaxVal    uint64
	Direction Direction
}

// SetInitSeq initializes the root sequence covering [0, n) with the known
// global value bracket produced by the initial min/max reduction.
func SetInitSeq(n int, minVal, maxVal uint64) HSeq {
	return HSeq{Start: 0, Length: n, MinVal: minVal, MaxVal: maxVal, Direction: BufferA}
}

// DSeq is the host-to-device projection of one sequence plus the counts and
// candidate brackets the global partition kernel returns for it (spec §3).
// DSeq is preallocated in bulk by the workspace and reused round to round
// (original source's _h_globalSeqDev table); because it embeds atomics it
// must always be addressed through a pointer, never copied by value once a
// pass may be touching it.
type DSeq struct {
	// Inputs, written in place by SetFromHostSeq.
	Start     int
	Length    int
	Pivot     uint64
	Direction Direction

	// Block assignment: this sequence owns blocks [FirstBlock, FirstBlock+BlockCount).
	FirstBlock int
	BlockCount int

	// Outputs, claimed by atomic fetch-add during the global pass and read
	// back by the driver once the launch (spec §5's synchronisation
	// boundary) completes.
	OffsetLower   atomic.Int64
	OffsetGreater atomic.Int64
	OffsetPivot   atomic.Int64 // claimed per stripe in key-value mode; stored by the finish-last block in key-only mode

	// Candidate brackets for the two children, atomically folded by every
	// block that contributes matching elements.
	LowerMinCandidate   atomic.Uint64
	LowerMaxCandidate   atomic.Uint64
	GreaterMinCandidate atomic.Uint64
	GreaterMaxCandidate atomic.Uint64

	// Atomic scratch used only during the global pass.
	WorkCounter    atomic.Int64 // stripe claim cursor, work-stealing within the sequence
	FinishedBlocks atomic.Int32 // incremented by each block on completion; last writer is blockCount-1
}

// SetFromHostSeq fills d in place from the parent host sequence's inputs,
// assigns it the given contiguous range of global blocks, chooses a pivot
// as the midpoint of the maintained [min,max] bracket (spec §4.1 "Pivot
// policy rationale"), and resets every output counter and atomic so the
// slot is safe to reuse across rounds.
func SetFromHostSeq(d *DSeq, h HSeq, firstBlock, blockCount int) {
	d.Start = h.Start
	d.Length = h.Length
	d.Pivot = midpoint(h.MinVal, h.MaxVal)
	d.Direction = h.Direction
	d.FirstBlock = firstBlock
	d.BlockCount = blockCount

	d.OffsetLower.Store(0)
	d.OffsetGreater.Store(0)
	d.OffsetPivot.Store(0)

	// Max-for-min, min-for-max lets the first atomic fold from any block
	// always win.
	d.LowerMinCandidate.Store(^uint64(0))
	d.LowerMaxCandidate.Store(0)
	d.GreaterMinCandidate.Store(^uint64(0))
	d.GreaterMaxCandidate.Store(0)

	d.WorkCounter.Store(0)
	d.FinishedBlocks.Store(0)
}

func midpoint(min, max uint64) uint64 {
	// Avoids overflow on the (min+max)/2 form for values near ^uint64(0).
	return min + (max-min)/2
}

// SetLowerSeq builds the "less than pivot" child sequence from the parent
// host descriptor and the device-returned counts/candidates. Returns
// (seq, ok) — ok is false when the lower partition is empty or constant
// (spec §4.1, §4.3 "Empty lower or greater partition").
func SetLowerSeq(h HSeq, d *DSeq) (HSeq, bool) {
	length := int(d.OffsetLower.Load())
	minC, maxC := d.LowerMinCandidate.Load(), d.LowerMaxCandidate.Load()
	if length == 0 || minC >= maxC {
		return HSeq{}, false
	}
	return HSeq{
		Start:     h.Start,
		Length:    length,
		MinVal:    minC,
		MaxVal:    maxC,
		Direction: h.Direction.Flip(),
	}, true
}

// SetGreaterSeq builds the "greater than pivot" child sequence symmetrically.
func SetGreaterSeq(h HSeq, d *DSeq) (HSeq, bool) {
	length := int(d.OffsetGreater.Load())
	minC, maxC := d.GreaterMinCandidate.Load(), d.GreaterMaxCandidate.Load()
	if length == 0 || minC >= maxC {
		return HSeq{}, false
	}
	return HSeq{
		Start:     h.Start + h.Length - length,
		Length:    length,
		MinVal:    minC,
		MaxVal:    maxC,
		Direction: h.Direction.Flip(),
	}, true
}

// LSeq is a sub-range handed wholesale to one block for the local phase
// (spec §3, §4.4). Length is usually <= threshold-partition-global; the
// driver's saturation flush and its settled pivot-run ranges can hand over
// longer ones.
type LSeq struct {
	Start     int
	Length    int
	Direction Direction
}

// FoldMin atomically lowers a into the target if a is smaller, via CAS
// retry loop — the min/max candidate fold of spec §4.3 step 5.
func FoldMin(target *atomic.Uint64, a uint64) {
	for {
		cur := target.Load()
		if a >= cur {
			return
		}
		if target.CompareAndSwap(cur, a) {
			return
		}
	}
}

// FoldMax atomically raises a into the target if a is larger.
func FoldMax(target *atomic.Uint64, a uint64) {
	for {
		cur := target.Load()
		if a <= cur {
			return
		}
		if target.CompareAndSwap(cur, a) {
			return
		}
	}
}
