// Package gpusort implements the two-phase parallel quicksort partitioning
// engine described in spec.md: a global phase where many simulated compute
// blocks cooperate to partition one large sequence, and a local phase where
// one block finishes a small sequence end to end with an explicit-stack
// quicksort and a bitonic tail sort.
//
// This package is the front door the rest of the engine's packages assemble
// behind (constants, types, seq, reduce, workspace, blockexec,
// globalpartition, localpartition, driver) — the generic sort front-end,
// arbitrary buffer allocation plumbing, and CLI/test harness that would
// normally sit above it are explicitly out of scope (spec §1).
package gpusort

import (
	"fmt"

	"github.com/BrendenCA/gpu-sorting/constants"
	"github.com/BrendenCA/gpu-sorting/driver"
	"github.com/BrendenCA/gpu-sorting/reduce"
	"github.com/BrendenCA/gpu-sorting/types"
	"github.com/BrendenCA/gpu-sorting/workspace"
)

// Order and Tuning are re-exported so callers only need to import this one
// package for the common case.
type (
	Order  = types.Order
	Tuning = constants.Tuning
)

const (
	Ascending  = types.Ascending
	Descending = types.Descending
)

// DefaultTuning returns the tuning constants of spec §6.
func DefaultTuning() Tuning { return constants.DefaultTuning() }

// Sort partitions keys (and, if values is non-nil, its paired value
// payloads) into order in place, using the two-phase engine of spec §2.
// values must either be nil (key-only mode) or the same length as keys
// (key-value mode); any other precondition violation (spec §7) is
// rejected here and returns an error without touching keys.
func Sort[W types.Word](keys, values []W, order Order, t Tuning) error {
	n := len(keys)
	if values != nil && len(values) != n {
		return fmt.Errorf("gpusort: len(values)=%d does not match len(keys)=%d", len(values), n)
	}
	if n <= 1 {
		// S1 empty / S2 singleton (spec §8): nothing to do.
		return nil
	}

	mode := types.KeyOnly
	if values != nil {
		mode = types.KeyValue
	}

	red := reduce.Reduce(keys, t)
	if red.Constant {
		// Distribution-zero fast path (spec §4.2, §7): output equals
		// input bit-for-bit, and keys/values are already untouched.
		return nil
	}

	ws, err := workspace.New[W](n, mode, t)
	if err != nil {
		return err
	}

	copy(ws.KeysA, keys)
	if mode.HasValues() {
		copy(ws.ValuesA, values)
	}

	driver.Run(ws, n, uint64(red.Min), uint64(red.Max), order, t)

	// Gather: each local sequence's sorted range may live in either
	// ping-pong buffer depending on how many rounds its branch of the
	// partition tree went through before reaching the local phase (spec
	// §9 "Implicit ping-pong state" — this port keeps Direction explicit
	// all the way to this final copy instead of assuming one buffer for
	// the whole array).
	for _, ls := range ws.LocalSeq {
		src := ws.KeyBuffer(ls.Direction)
		copy(keys[ls.Start:ls.Start+ls.Length], src[ls.Start:ls.Start+ls.Length])
		if mode.HasValues() {
			vsrc := ws.ValueBuffer(ls.Direction)
			copy(values[ls.Start:ls.Start+ls.Length], vsrc[ls.Start:ls.Start+ls.Length])
		}
	}
	return nil
}
