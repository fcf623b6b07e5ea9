package corpus

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/ehrlich-b/gdslverify/report"
	"github.com/ehrlich-b/gdslverify/verifier"
)

// Result is one scenario's replay outcome.
type Result struct {
	Scenario Scenario
	Report   *report.Report
	Err      error
	Passed   bool // Report.Success == Scenario.WantSuccess
}

// ReplayAll verifies every scenario concurrently across a bounded
// worker pool, one goroutine per worker reading off a shared job
// channel until it's closed — the same shape as the teacher's queue
// runner, where each queue's goroutine pulls completions off its own
// ring until ctx is canceled, except here the "ring" is a channel of
// scenarios and there is no kernel on the other end.
//
// workers <= 0 selects runtime.GOMAXPROCS(0). ReplayAll returns early,
// with partial results for whatever finished, if ctx is canceled.
func ReplayAll(ctx context.Context, scenarios []Scenario, cfg verifier.Config, workers int, m *Metrics) []Result {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	jobs := make(chan int)
	results := make([]Result, len(scenarios))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case i, ok := <-jobs:
					if !ok {
						return
					}
					results[i] = replayOne(scenarios[i], cfg, m)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range scenarios {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()
	return results
}

func replayOne(s Scenario, cfg verifier.Config, m *Metrics) Result {
	cfg.Level = s.Level

	start := time.Now()
	rep, err := verifier.Verify(s.Stream, cfg)
	elapsed := uint64(time.Since(start).Nanoseconds())

	res := Result{Scenario: s, Report: rep, Err: err}
	if err == nil {
		res.Passed = rep.Success == s.WantSuccess
	}

	if m != nil {
		dropped := 0
		if rep != nil {
			dropped = rep.Dropped()
		}
		m.RecordRun(res.Passed, dropped, elapsed)
	}
	return res
}
