package report

import "testing"

func TestAppendTalliesSeverity(t *testing.T) {
	r := New(10)

	r.Append(Diagnostic{Instruction: 0, Severity: Info, Message: "starting"})
	r.Append(Diagnostic{Instruction: 1, Severity: Warning, Message: "implicit promotion"})
	r.Append(Diagnostic{Instruction: 2, Severity: Error, Message: "unknown opcode"})

	if r.InfoCount != 1 || r.WarningCount != 1 || r.ErrorCount != 1 {
		t.Errorf("tallies = info:%d warn:%d err:%d, want 1/1/1", r.InfoCount, r.WarningCount, r.ErrorCount)
	}
	if r.Success {
		t.Error("Success should be false once an error is appended")
	}
	if len(r.Diagnostics()) != 3 {
		t.Errorf("len(Diagnostics()) = %d, want 3", len(r.Diagnostics()))
	}
}

func TestAppendOverCapacityIsDroppedButTallied(t *testing.T) {
	r := New(2)

	for i := 0; i < 5; i++ {
		r.Append(Diagnostic{Instruction: i, Severity: Error, Message: "boom"})
	}

	if r.ErrorCount != 5 {
		t.Errorf("ErrorCount = %d, want 5", r.ErrorCount)
	}
	if r.DiagnosticCount != 5 {
		t.Errorf("DiagnosticCount = %d, want 5", r.DiagnosticCount)
	}
	if len(r.Diagnostics()) != 2 {
		t.Errorf("len(Diagnostics()) = %d, want 2 (capacity)", len(r.Diagnostics()))
	}
	if r.Dropped() != 3 {
		t.Errorf("Dropped() = %d, want 3", r.Dropped())
	}
}

func TestNewNegativeCapacityClampsToZero(t *testing.T) {
	r := New(-5)
	if r.Capacity() != 0 {
		t.Errorf("Capacity() = %d, want 0", r.Capacity())
	}
	dropped := r.Append(Diagnostic{Severity: Info})
	if !dropped {
		t.Error("expected diagnostic to be dropped at zero capacity")
	}
}

func TestSeverityString(t *testing.T) {
	tests := []struct {
		sev  Severity
		want string
	}{
		{Info, "INFO"},
		{Warning, "WARNING"},
		{Error, "ERROR"},
		{Severity(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.sev.String(); got != tt.want {
			t.Errorf("Severity(%d).String() = %q, want %q", tt.sev, got, tt.want)
		}
	}
}
