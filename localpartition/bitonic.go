// bitonic.go — in-block bitonic sorting network, the recursion base case
// of spec §4.4. A bitonic network needs a power-of-two length; sub-ranges
// reaching this stop are padded with an order-appropriate sentinel
// (types.Sentinel) so the network can run at the next power of two, then
// only the first len(keys) slots are kept. Padding is tracked with an
// isPad flag that travels alongside each (key,value) pair through every
// swap, not re-derived from an entry's current index — a real key that
// happens to equal the sentinel (routine for narrow widths, where a real
// uint8 key of 0 or 255 is exactly the min/max) still can't be mistaken
// for padding no matter where the network moves it.
package localpartition

import (
	"github.com/BrendenCA/gpu-sorting/types"
)

func bitonicSort[W types.Word](keys, values []W, order types.Order, mode types.Mode) {
	n := len(keys)
	if n <= 1 {
		return
	}
	padded := nextPow2(n)
	if padded == n {
		bitonicNetwork(keys, values, nil, order, mode)
		return
	}

	padKeys := make([]W, padded)
	copy(padKeys, keys)
	sentinel := types.Sentinel[W](order, true)
	for i := n; i < padded; i++ {
		padKeys[i] = sentinel
	}

	var padValues []W
	if mode.HasValues() {
		padValues = make([]W, padded)
		copy(padValues, values)
	}

	isPad := make([]bool, padded)
	for i := n; i < padded; i++ {
		isPad[i] = true
	}

	bitonicNetwork(padKeys, padValues, isPad, order, mode)

	copy(keys, padKeys[:n])
	if mode.HasValues() {
		copy(values, padValues[:n])
	}
}

// bitonicNetwork sorts a power-of-two-length slice with the classic
// iterative bitonic sort: log2(n) stages, each a decreasing sequence of
// compare-and-swap passes. isPad is nil when keys carries no padding
// (already a power of two); otherwise it is swapped in lockstep with
// keys/values so a padding entry's identity follows it wherever the
// network moves it, and greaterThan below guarantees a padding entry
// never wins a tie against a real one regardless of raw value.
func bitonicNetwork[W types.Word](keys, values []W, isPad []bool, order types.Order, mode types.Mode) {
	n := len(keys)
	// The sentinel is chosen so it never sorts before a real element
	// (types.Sentinel); padGreater says which side of a raw tie it must
	// land on to keep that true once a real key collides with it.
	padGreater := order == types.Ascending
	for size := 2; size <= n; size <<= 1 {
		for stride := size / 2; stride > 0; stride >>= 1 {
			for i := 0; i < n; i++ {
				j := i ^ stride
				if j <= i {
					continue
				}
				ascendingBlock := (i & size) == 0
				want := order == types.Ascending
				if !ascendingBlock {
					want = !want
				}
				aPad := isPad != nil && isPad[i]
				bPad := isPad != nil && isPad[j]
				if greaterThan(keys[i], keys[j], aPad, bPad, padGreater) == want {
					keys[i], keys[j] = keys[j], keys[i]
					if mode.HasValues() {
						values[i], values[j] = values[j], values[i]
					}
					if isPad != nil {
						isPad[i], isPad[j] = isPad[j], isPad[i]
					}
				}
			}
		}
	}
}

// greaterThan is the raw (order-agnostic) ordering relation bitonicNetwork
// builds on: numeric comparison, except when a and b carry the same value
// and exactly one of them is padding, in which case padding always falls
// on the padGreater side of the tie instead of the two comparing equal.
func greaterThan[W types.Word](a, b W, aPad, bPad, padGreater bool) bool {
	if a != b {
		return a > b
	}
	if aPad == bPad {
		return false
	}
	if padGreater {
		return aPad
	}
	return !aPad
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
