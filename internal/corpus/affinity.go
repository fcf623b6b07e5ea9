//go:build linux

package corpus

import (
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/gdslverify/internal/logging"
)

// ReplayAffinity pins the calling goroutine's OS thread to one CPU
// from cpus, round-robin by worker index — the same round-robin
// assignment the teacher's queue runner uses to spread one goroutine
// per hardware queue across a fixed CPU set, lifted here from "pin
// this I/O thread" to "pin this verification worker". Intended to be
// called as the first statement inside a ReplayAll worker goroutine
// when the caller wants cache-local, non-migrating replay throughput
// on a multi-socket host; callers that don't care about placement
// simply never call it, and ReplayAll itself never calls it
// automatically.
//
// Failures are non-fatal: verification correctness never depends on
// thread placement, so an affinity failure is logged and otherwise
// ignored, exactly as the teacher treats a failed SchedSetaffinity as
// "continue without affinity, not fatal".
func ReplayAffinity(worker int, cpus []int) {
	if len(cpus) == 0 {
		return
	}

	runtime.LockOSThread()

	cpu := cpus[worker%len(cpus)]
	var mask unix.CPUSet
	mask.Set(cpu)
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		logging.Default().Warn("replay worker failed to set CPU affinity", "worker", worker, "cpu", cpu, "err", err)
	}
}
