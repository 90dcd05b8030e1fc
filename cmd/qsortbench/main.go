// Command qsortbench drives the partitioning engine over a random input and
// reports how long the sort took. It exists to exercise gpusort.Sort from
// outside the test suite; it is not part of the engine itself.
package main

import (
	"flag"
	"log"
	"math/rand"
	"time"

	gpusort "github.com/BrendenCA/gpu-sorting"
)

func main() {
	n := flag.Int("n", 10_000_000, "number of uint32 keys to sort")
	seed := flag.Int64("seed", 1, "PRNG seed")
	withValues := flag.Bool("values", false, "sort key/value pairs instead of keys alone")
	descending := flag.Bool("desc", false, "sort descending instead of ascending")
	flag.Parse()

	log.Printf("generating %d random uint32 keys (seed=%d)", *n, *seed)
	rng := rand.New(rand.NewSource(*seed))
	keys := make([]uint32, *n)
	for i := range keys {
		keys[i] = rng.Uint32()
	}

	var values []uint32
	if *withValues {
		values = make([]uint32, *n)
		for i := range values {
			values[i] = uint32(i)
		}
	}

	order := gpusort.Ascending
	if *descending {
		order = gpusort.Descending
	}

	start := time.Now()
	if err := gpusort.Sort(keys, values, order, gpusort.DefaultTuning()); err != nil {
		log.Fatalf("sort failed: %v", err)
	}
	elapsed := time.Since(start)

	log.Printf("sorted %d elements in %s (%.1f M elements/sec)", *n, elapsed, float64(*n)/elapsed.Seconds()/1e6)
}
