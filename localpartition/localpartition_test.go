package localpartition

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/BrendenCA/gpu-sorting/constants"
	"github.com/BrendenCA/gpu-sorting/seq"
	"github.com/BrendenCA/gpu-sorting/types"
)

func isSorted(keys []uint32, order types.Order) bool {
	for i := 1; i < len(keys); i++ {
		if order == types.Ascending {
			if keys[i-1] > keys[i] {
				return false
			}
		} else if keys[i-1] < keys[i] {
			return false
		}
	}
	return true
}

func TestRunSortsAscending(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 5000
	keys := make([]uint32, n)
	for i := range keys {
		keys[i] = uint32(rng.Intn(1 << 20))
	}
	want := append([]uint32(nil), keys...)
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })

	buf := append([]uint32(nil), keys...)
	ls := seq.LSeq{Start: 0, Length: n, Direction: seq.BufferA}
	Run[uint32](buf, nil, ls, types.Ascending, types.KeyOnly, constants.DefaultTuning())

	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("sorted[%d] = %d, want %d", i, buf[i], want[i])
			break
		}
	}
}

func TestRunSortsDescendingWithValues(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 3000
	keys := make([]uint32, n)
	values := make([]uint32, n)
	for i := range keys {
		keys[i] = uint32(rng.Intn(1000))
		values[i] = uint32(i)
	}

	ls := seq.LSeq{Start: 0, Length: n, Direction: seq.BufferA}
	Run[uint32](keys, values, ls, types.Descending, types.KeyValue, constants.DefaultTuning())

	if !isSorted(keys, types.Descending) {
		t.Fatal("keys not sorted descending")
	}
	// Every value must still carry its own original key (permutation
	// invariant): rebuild a key->set(values) map isn't meaningful here since
	// keys can repeat, but summing values must be preserved.
	var sum uint32
	for _, v := range values {
		sum += v
	}
	want := uint32(n * (n - 1) / 2)
	if sum != want {
		t.Errorf("value sum after sort = %d, want %d (values dropped or duplicated)", sum, want)
	}
}

func TestRunSubRangeWithinLargerBuffer(t *testing.T) {
	keys := []uint32{100, 100, 9, 1, 5, 3, 200, 200}
	ls := seq.LSeq{Start: 2, Length: 4, Direction: seq.BufferA}
	Run[uint32](keys, nil, ls, types.Ascending, types.KeyOnly, constants.DefaultTuning())

	// only [2:6) should have moved
	if keys[0] != 100 || keys[1] != 100 || keys[6] != 200 || keys[7] != 200 {
		t.Fatalf("Run touched outside its range: %v", keys)
	}
	sub := keys[2:6]
	for i := 1; i < len(sub); i++ {
		if sub[i-1] > sub[i] {
			t.Fatalf("sub-range not sorted: %v", sub)
		}
	}
}

func TestBitonicSortNonPowerOfTwo(t *testing.T) {
	keys := []uint32{5, 3, 4, 1, 2}
	bitonicSort(keys, nil, types.Ascending, types.KeyOnly)
	want := []uint32{1, 2, 3, 4, 5}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("bitonicSort = %v, want %v", keys, want)
		}
	}
}

// TestBitonicSortKeyValueTieWithMaxSentinelAscending reproduces a real key
// exactly equal to the Ascending sentinel (type max) in KeyValue mode with
// a non-power-of-two length, so the padding tail collides in value with a
// real element. Every value must still travel with its own key afterward.
func TestBitonicSortKeyValueTieWithMaxSentinelAscending(t *testing.T) {
	keys := []uint32{10, 5, ^uint32(0)}
	values := []uint32{100, 500, 999}
	bitonicSort(keys, values, types.Ascending, types.KeyValue)

	wantKeys := []uint32{5, 10, ^uint32(0)}
	if keys[0] != wantKeys[0] || keys[1] != wantKeys[1] || keys[2] != wantKeys[2] {
		t.Fatalf("keys = %v, want %v", keys, wantKeys)
	}
	pairs := map[uint32]uint32{5: 500, 10: 100, ^uint32(0): 999}
	for i, k := range keys {
		if values[i] != pairs[k] {
			t.Fatalf("value for key %d = %d, want %d (pad/real coherence broken)", k, values[i], pairs[k])
		}
	}
}

// TestBitonicSortKeyValueTieWithMinSentinelDescending is the Descending
// mirror: a real key equal to type 0 (the Descending sentinel) must not be
// swapped out for the zero-valued padding pair.
func TestBitonicSortKeyValueTieWithMinSentinelDescending(t *testing.T) {
	keys := []uint32{10, 5, 0}
	values := []uint32{100, 500, 999}
	bitonicSort(keys, values, types.Descending, types.KeyValue)

	wantKeys := []uint32{10, 5, 0}
	if keys[0] != wantKeys[0] || keys[1] != wantKeys[1] || keys[2] != wantKeys[2] {
		t.Fatalf("keys = %v, want %v", keys, wantKeys)
	}
	pairs := map[uint32]uint32{10: 100, 5: 500, 0: 999}
	for i, k := range keys {
		if values[i] != pairs[k] {
			t.Fatalf("value for key %d = %d, want %d (pad/real coherence broken)", k, values[i], pairs[k])
		}
	}
}

// TestRunKeyValueNonPow2WithSentinelCollidingKey drives the same scenario
// through Run end to end (small enough to land straight in the bitonic
// base case), confirming the fix holds through the full local-partition
// path, not just bitonicSort in isolation.
func TestRunKeyValueNonPow2WithSentinelCollidingKey(t *testing.T) {
	keys := []uint32{10, 5, ^uint32(0)}
	values := []uint32{100, 500, 999}
	ls := seq.LSeq{Start: 0, Length: len(keys), Direction: seq.BufferA}
	Run[uint32](keys, values, ls, types.Ascending, types.KeyValue, constants.DefaultTuning())

	if !isSorted(keys, types.Ascending) {
		t.Fatalf("keys not sorted: %v", keys)
	}
	pairs := map[uint32]uint32{5: 500, 10: 100, ^uint32(0): 999}
	for i, k := range keys {
		if values[i] != pairs[k] {
			t.Fatalf("value for key %d = %d, want %d (pad/real coherence broken)", k, values[i], pairs[k])
		}
	}
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 1023: 1024, 1024: 1024}
	for in, want := range cases {
		if got := nextPow2(in); got != want {
			t.Errorf("nextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}
