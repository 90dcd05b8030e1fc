//go:build !linux

// affinity_stub.go — non-Linux fallback, mirrors ring's stub build tag
// split: affinity is a cache-locality optimization, not a correctness
// requirement, so platforms without cheap affinity control just skip it.
package blockexec

// Pin is a no-op outside Linux.
func Pin(cpu int) {}
