//go:build linux

// affinity_linux.go — pin the current OS thread to one logical CPU.
//
// Grounded on ring/setaffinity_linux.go, which hand-rolls the raw
// SYS_SCHED_SETAFFINITY syscall to avoid a dependency. This module pulls in
// golang.org/x/sys/unix instead (spec_full.md DOMAIN STACK: wire, don't
// hand-roll) — same call, portable across the archs x/sys/unix already
// covers, no manual syscall-number bookkeeping.
package blockexec

import "golang.org/x/sys/unix"

// Pin binds the calling OS thread to logical CPU cpu. Errors are
// deliberately swallowed: on a containerised or cgroup-restricted system
// the call may fail with EPERM/EINVAL, and the fallback is simply "no
// pin" — correctness of the partitioning algorithm never depends on
// affinity, only its cache behavior does.
func Pin(cpu int) {
	if cpu < 0 {
		return
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	_ = unix.SchedSetaffinity(0, &set)
}
