// driver.go — host driver / work queue (spec §4.5).
//
// Maintains two host-side sequence lists (active/buffer) that swap each
// round so writers never stomp readers, dispatches global partition rounds
// until sequences shrink below threshold or the active count saturates
// numSeqLimit, then flushes to a single local-phase launch. Grounded on
// codewanderer42820-evm_triarb/main.go's phased orchestration (bootstrap →
// steady state, each phase a synchronisation point) and on QuantumQueue's
// externally-managed, preallocated arena style — the active/buffer/local
// lists here are all preallocated by workspace.New and resliced each round;
// active/buffer stay within numSeqLimit, while local is appended to and
// grows past its preallocated capacity when a sort settles more ranges than
// the worst-case sequence count.
package driver

import (
	"github.com/BrendenCA/gpu-sorting/blockexec"
	"github.com/BrendenCA/gpu-sorting/constants"
	"github.com/BrendenCA/gpu-sorting/globalpartition"
	"github.com/BrendenCA/gpu-sorting/localpartition"
	"github.com/BrendenCA/gpu-sorting/seq"
	"github.com/BrendenCA/gpu-sorting/types"
	"github.com/BrendenCA/gpu-sorting/workspace"
)

// Outcome records whether the fast path fired (spec §7 "distribution-zero
// detection is not an error — it is a fast path").
type Outcome struct {
	DistributionZero bool
}

// Run executes the full round loop followed by the local-phase launch for
// an input of length n with value bracket [minVal, maxVal] (as produced by
// reduce.Reduce). On return, every range of ws's key/value buffers is
// sorted; which physical buffer holds which range is recorded per entry in
// ws.LocalSeq, because different branches of the partition tree can reach
// the local phase at different recursion depths and therefore end up in
// different ping-pong buffers (spec §9 flags the source's implicit,
// depth-inferred version of this as fragile; this port always keeps
// Direction as an explicit field instead, right down to the final gather).
func Run[W types.Word](ws *workspace.Workspace[W], n int, minVal, maxVal uint64, order types.Order, t constants.Tuning) Outcome {
	if minVal == maxVal {
		return Outcome{DistributionZero: true}
	}

	root := seq.SetInitSeq(n, minVal, maxVal)
	keyValue := ws.Mode.HasValues()
	threshold := t.PartitionThresholdGlobal(keyValue)
	numSeqLimit := ceilDiv(n, threshold)

	local := ws.LocalSeq[:0]

	if n <= threshold {
		// Initial condition (spec §4.5): skip the global phase entirely.
		local = append(local, seq.LSeq{Start: root.Start, Length: root.Length, Direction: root.Direction})
		ws.LocalSeq = local
		runLocal(ws, order, t)
		return Outcome{}
	}

	active := ws.ActiveHost[:0]
	buffer := ws.BufferHost[:0]
	active = append(active, root)

	for len(active) > 0 && len(active) < numSeqLimit {
		runGlobalRound(ws, active, order, t)

		buffer = buffer[:0]
		for i := range active {
			parent := active[i]
			d := &ws.DeviceSeq[i]
			// The pivot run, plus any child dropped for being constant, is
			// already final in the destination buffer; it is recorded as a
			// local sequence too so the final gather copies it out.
			settledStart, settledEnd := parent.Start, parent.Start+parent.Length
			if lo, ok := seq.SetLowerSeq(parent, d); ok {
				buffer, local = promote(buffer, local, lo, threshold, numSeqLimit)
				settledStart += lo.Length
			}
			if gr, ok := seq.SetGreaterSeq(parent, d); ok {
				buffer, local = promote(buffer, local, gr, threshold, numSeqLimit)
				settledEnd -= gr.Length
			}
			if settledEnd > settledStart {
				local = append(local, seq.LSeq{Start: settledStart, Length: settledEnd - settledStart, Direction: parent.Direction.Flip()})
			}
		}
		active, buffer = buffer, active[:0]
	}

	// Saturation escape valve (spec §4.5 "Promotion rule rationale"):
	// whatever is left in active when the loop stops because numSeqLimit
	// was reached is handed straight to the local phase, even past the
	// local threshold — further splitting would gain no parallelism.
	for _, s := range active {
		local = append(local, seq.LSeq{Start: s.Start, Length: s.Length, Direction: s.Direction})
	}

	ws.ActiveHost, ws.BufferHost, ws.LocalSeq = active, buffer, local
	runLocal(ws, order, t)
	return Outcome{}
}

// promote applies the promotion rule of spec §4.5 step 4 to one child
// sequence.
func promote(buffer []seq.HSeq, local []seq.LSeq, child seq.HSeq, threshold, numSeqLimit int) ([]seq.HSeq, []seq.LSeq) {
	if child.Length > threshold {
		if len(buffer) < numSeqLimit {
			return append(buffer, child), local
		}
		// Buffer is saturated: this child can't be split further this
		// sort, so it goes straight to local even though it exceeds the
		// local-phase threshold.
		return buffer, append(local, seq.LSeq{Start: child.Start, Length: child.Length, Direction: child.Direction})
	}
	return buffer, append(local, seq.LSeq{Start: child.Start, Length: child.Length, Direction: child.Direction})
}

// runGlobalRound assigns blocks to sequences, launches the global partition
// kernel, and blocks until every block has returned (spec §4.5 steps 1-3,
// §5's synchronisation boundary). Every sequence in active shares the same
// Direction: by induction from the single-root start, all children
// produced in one round are Flip()s of the same parent direction.
func runGlobalRound[W types.Word](ws *workspace.Workspace[W], active []seq.HSeq, order types.Order, t constants.Tuning) {
	keyValue := ws.Mode.HasValues()
	threads, elems := t.ThreadsElemsGlobal(keyValue)
	stripe := threads * elems
	if stripe < 1 {
		stripe = 1
	}

	blockIndex := ws.BlockIndex[:0]
	firstBlock := 0
	for i, s := range active {
		blockCount := ceilDiv(s.Length, stripe)
		if blockCount < 1 {
			blockCount = 1
		}
		seq.SetFromHostSeq(&ws.DeviceSeq[i], s, firstBlock, blockCount)
		for b := 0; b < blockCount; b++ {
			blockIndex = append(blockIndex, i)
		}
		firstBlock += blockCount
	}
	ws.BlockIndex = blockIndex
	totalBlocks := firstBlock

	keysSrc, keysDst := ws.Keys(active[0].Direction)
	var valuesSrc, valuesDst, valuesPivot []W
	if keyValue {
		valuesSrc, valuesDst = ws.Values(active[0].Direction)
		valuesPivot = ws.ValuesPivot
	}
	buf := globalpartition.Buffers[W]{
		KeysSrc: keysSrc, KeysDst: keysDst,
		ValuesSrc: valuesSrc, ValuesDst: valuesDst,
		ValuesPivot: valuesPivot,
	}

	blockexec.Launch(totalBlocks, func(blockID int) {
		seqIdx := ws.BlockIndex[blockID]
		d := &ws.DeviceSeq[seqIdx]
		globalpartition.RunBlock(d, buf, order, ws.Mode, stripe)
	})
}

// runLocal is the single kernel launch of spec §4.5 "then (local phase)":
// one block per entry in ws.LocalSeq, running the local partition +
// bitonic tail kernel end to end.
func runLocal[W types.Word](ws *workspace.Workspace[W], order types.Order, t constants.Tuning) {
	local := ws.LocalSeq
	blockexec.Launch(len(local), func(blockID int) {
		ls := local[blockID]
		keys := ws.KeyBuffer(ls.Direction)
		var values []W
		if ws.Mode.HasValues() {
			values = ws.ValueBuffer(ls.Direction)
		}
		localpartition.Run(keys, values, ls, order, ws.Mode, t)
	})
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a-1)/b + 1
}
