// +build !integration

package unit

import (
	"testing"

	"github.com/ehrlich-b/gdslverify/diff"
	"github.com/ehrlich-b/gdslverify/internal/corpus"
	"github.com/ehrlich-b/gdslverify/opcode"
	"github.com/ehrlich-b/gdslverify/verifier"
)

// These tests exercise the core packages end to end with nothing
// external (no GPU, no kernel, no file I/O) — the tier the teacher's
// unit suite occupies relative to its root-privileged integration
// suite.

func TestOpcodeTableCoversReservedVendorRange(t *testing.T) {
	for b := int(opcode.VendorRangeStart); b <= int(opcode.VendorRangeEnd); b++ {
		e, ok := opcode.Lookup(byte(b))
		if !ok {
			t.Fatalf("vendor byte 0x%02X should register, even though unknown", b)
		}
		if e.Name != opcode.VendorExt {
			t.Errorf("vendor byte 0x%02X: name = %q, want %q", b, e.Name, opcode.VendorExt)
		}
	}
}

func TestCorpusScenariosMatchWantSuccess(t *testing.T) {
	for _, s := range corpus.All() {
		cfg := verifier.DefaultConfig()
		cfg.Level = s.Level

		rep, err := verifier.Verify(s.Stream, cfg)
		if err != nil {
			t.Fatalf("%s: Verify returned error: %v", s.Name, err)
		}
		if rep.Success != s.WantSuccess {
			t.Errorf("%s: success = %v, want %v (diagnostics: %v)", s.Name, rep.Success, s.WantSuccess, rep.Diagnostics())
		}
	}
}

func TestDiffRoundTripSmallBuffers(t *testing.T) {
	base := []byte("the quick brown fox jumps over the lazy dog")
	target := []byte("the quick brown FOX jumps over the lazy dog!!")

	d, err := diff.Compute(base, target, 16)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	got, err := d.Patch(base)
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if string(got) != string(target) {
		t.Errorf("round-trip mismatch: got %q, want %q", got, target)
	}
}
