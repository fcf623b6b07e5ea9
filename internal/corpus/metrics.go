package corpus

import (
	"sync/atomic"
	"time"
)

// latencyBuckets mirrors the teacher's logarithmic-bucket histogram,
// rescaled for whole command streams (microseconds to milliseconds)
// rather than individual block I/Os.
var latencyBuckets = []uint64{
	1_000,      // 1us
	10_000,     // 10us
	100_000,    // 100us
	1_000_000,  // 1ms
	10_000_000, // 10ms
	100_000_000, // 100ms
}

const numLatencyBuckets = 6

// Metrics tracks replay throughput and outcome counts across a corpus
// run. All fields are safe for concurrent use by the worker pool in
// replay.go.
type Metrics struct {
	Replayed  atomic.Uint64
	Succeeded atomic.Uint64
	Failed    atomic.Uint64
	Dropped   atomic.Uint64 // diagnostics dropped for exceeding report capacity, summed across runs

	TotalLatencyNs atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
}

// NewMetrics returns a Metrics instance with its start time recorded.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordRun records one scenario replay's outcome and wall time.
func (m *Metrics) RecordRun(success bool, dropped int, latencyNs uint64) {
	m.Replayed.Add(1)
	if success {
		m.Succeeded.Add(1)
	} else {
		m.Failed.Add(1)
	}
	if dropped > 0 {
		m.Dropped.Add(uint64(dropped))
	}
	m.TotalLatencyNs.Add(latencyNs)
	for i, bucket := range latencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Snapshot is a point-in-time, non-atomic view of Metrics suitable for
// printing.
type Snapshot struct {
	Replayed, Succeeded, Failed, Dropped uint64
	AvgLatencyNs                         uint64
	UptimeNs                             uint64
	LatencyHistogram                     [numLatencyBuckets]uint64
}

// Snapshot captures the current counters.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		Replayed:  m.Replayed.Load(),
		Succeeded: m.Succeeded.Load(),
		Failed:    m.Failed.Load(),
		Dropped:   m.Dropped.Load(),
		UptimeNs:  uint64(time.Now().UnixNano() - m.StartTime.Load()),
	}
	if s.Replayed > 0 {
		s.AvgLatencyNs = m.TotalLatencyNs.Load() / s.Replayed
	}
	for i := 0; i < numLatencyBuckets; i++ {
		s.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}
	return s
}
