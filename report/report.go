// Package report implements the bounded diagnostic buffer the
// verifier writes into. The buffer never grows past its configured
// capacity — once full, further diagnostics are dropped, but the
// severity tallies keep counting so the caller knows something was
// lost. This mirrors the teacher's Metrics type (atomic counters that
// are always accurate even when the thing they describe, like a ring
// buffer slot, has been recycled).
package report

import "fmt"

// Severity is the diagnostic's severity level.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

// String renders the severity the way diagnostic messages are
// formatted: upper-case, fixed vocabulary, no locale dependence.
func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Diagnostic is a single verifier finding.
type Diagnostic struct {
	Instruction int
	Severity    Severity
	Message     string
}

// String renders a diagnostic deterministically for display.
func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] instruction %d: %s", d.Severity, d.Instruction, d.Message)
}

// Report is a caller-owned, fixed-capacity diagnostic buffer. The
// verifier writes into it and returns without taking ownership.
type Report struct {
	Success          bool
	InstructionCount int
	ErrorCount       int
	WarningCount     int
	InfoCount        int
	DiagnosticCount  int // total diagnostics observed, including dropped ones

	capacity    int
	diagnostics []Diagnostic
}

// New allocates a Report with the given diagnostic capacity. A
// capacity of 0 means diagnostics are tallied but never retained.
func New(capacity int) *Report {
	if capacity < 0 {
		capacity = 0
	}
	return &Report{
		Success:     true,
		capacity:    capacity,
		diagnostics: make([]Diagnostic, 0, capacity),
	}
}

// Append records a diagnostic, updating tallies unconditionally and
// appending to the retained slice only while capacity remains.
// Reports whether the diagnostic was dropped for being over capacity.
func (r *Report) Append(d Diagnostic) (dropped bool) {
	r.DiagnosticCount++

	switch d.Severity {
	case Error:
		r.ErrorCount++
		r.Success = false
	case Warning:
		r.WarningCount++
	case Info:
		r.InfoCount++
	}

	if len(r.diagnostics) >= r.capacity {
		return true
	}
	r.diagnostics = append(r.diagnostics, d)
	return false
}

// Diagnostics returns the retained diagnostics in the order they were
// appended. The backing array is owned by the Report; callers must not
// mutate the returned slice's elements through it across calls that
// might still append.
func (r *Report) Diagnostics() []Diagnostic {
	return r.diagnostics
}

// Capacity returns the diagnostic buffer's fixed capacity.
func (r *Report) Capacity() int {
	return r.capacity
}

// Dropped reports how many diagnostics were observed but not retained.
func (r *Report) Dropped() int {
	return r.DiagnosticCount - len(r.diagnostics)
}
