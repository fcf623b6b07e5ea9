//go:build !linux

package corpus

// ReplayAffinity is a no-op on platforms without Linux's
// sched_setaffinity(2); CPU placement is an optional throughput
// optimization, never a correctness requirement (see affinity.go).
func ReplayAffinity(worker int, cpus []int) {}
