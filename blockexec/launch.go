// launch.go — simulated GPU block dispatch.
//
// A "block" in the source is a CUDA thread block: many run concurrently on
// separate compute units, synchronize internally via barriers, and the
// whole grid is one synchronisation boundary from the host's point of view
// (spec §5). Here a block is a goroutine pinned to one OS thread/logical
// core, grounded on ring.PinnedConsumer's runtime.LockOSThread + affinity
// pattern (codewanderer42820-evm_triarb/ring/pinned_consumer.go) — but
// unlike that long-lived hot-spin consumer, a block here runs exactly once
// per Launch and Launch itself is the barrier, matching "every kernel
// launch is a synchronisation boundary; the driver blocks until it
// completes".
package blockexec

import (
	"runtime"
	"sync"
)

// Launch runs fn once for each blockID in [0, n), each pinned to a core
// (best-effort — Pin is a no-op where affinity control isn't available),
// and blocks until every block has returned. This is the CPU analogue of
// a single kernel launch with n thread blocks.
func Launch(n int, fn func(blockID int)) {
	if n <= 0 {
		return
	}
	cores := runtime.GOMAXPROCS(0)
	if cores < 1 {
		cores = 1
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for b := 0; b < n; b++ {
		go func(blockID int) {
			defer wg.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			Pin(blockID % cores)
			fn(blockID)
		}(b)
	}
	wg.Wait()
}

// Barrier is a reusable intra-launch synchronisation point standing in for
// __syncthreads(): every block calls Arrive and blocks until all n blocks
// participating in the same sequence have arrived. Not currently wired to
// any kernel: globalpartition.RunBlock counts and scatters each stripe
// inside the same Launch without a barrier, because every stripe claims its
// output offsets atomically before it scatters, and the end of the Launch
// is the only synchronisation the driver's round loop relies on.
type Barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	target  int
	arrived int
	round   int
}

// NewBarrier returns a Barrier for exactly n participants.
func NewBarrier(n int) *Barrier {
	b := &Barrier{target: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Arrive blocks the caller until all participants have called Arrive for
// the current round.
func (b *Barrier) Arrive() {
	b.mu.Lock()
	defer b.mu.Unlock()
	round := b.round
	b.arrived++
	if b.arrived == b.target {
		b.arrived = 0
		b.round++
		b.cond.Broadcast()
		return
	}
	for b.round == round {
		b.cond.Wait()
	}
}
