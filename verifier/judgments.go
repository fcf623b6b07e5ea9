package verifier

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/ehrlich-b/gdslverify/opcode"
	"github.com/ehrlich-b/gdslverify/report"
)

// PersistFlagBit is the bit in ALLOC_BUFFER/ALLOC_IMAGE's flags
// operand that marks a resource as persistent (must be Host-domain and
// transition-free at every SNAPSHOT_BEGIN).
const PersistFlagBit uint32 = 1 << 0

// judgment mutates m (and possibly emits diagnostics into rep) to
// realize one opcode's rule. Callers have already verified the
// opcode's generic phase-validity before invoking the judgment, so a
// judgment only needs to enforce what the generic table check cannot
// express: fence identity, resource state, domain coherence.
type judgment func(m *machine, idx int, operand []byte, level Level, rep *report.Report)

func errAt(rep *report.Report, idx int, format string, args ...any) {
	rep.Append(report.Diagnostic{
		Instruction: idx,
		Severity:    report.Error,
		Message:     fmt.Sprintf(format, args...),
	})
}

func warnAt(rep *report.Report, idx int, format string, args ...any) {
	rep.Append(report.Diagnostic{
		Instruction: idx,
		Severity:    report.Warning,
		Message:     fmt.Sprintf(format, args...),
	})
}

func judgeBeginStream(m *machine, idx int, operand []byte, level Level, rep *report.Report) {
	if level == Domain && m.snapshotActive {
		errAt(rep, idx, "BEGIN_STREAM issued inside an active snapshot region")
		return
	}
	m.phase = PhaseRecord
}

func judgeEndStream(m *machine, idx int, operand []byte, level Level, rep *report.Report) {
	if level == Domain && len(m.fences) > 0 {
		warnAt(rep, idx, "END_STREAM issued while GPU work is still pending (%d fence(s) outstanding)", len(m.fences))
	}
	// Per the chosen resolution of the END_STREAM/Finished ambiguity
	// (see DESIGN.md), END_STREAM is the stream terminator and moves
	// the machine directly to Finished.
	m.phase = PhaseFinished
}

func judgeSubmit(m *machine, idx int, operand []byte, level Level, rep *report.Report) {
	if level == Domain && m.snapshotActive {
		errAt(rep, idx, "SUBMIT issued inside an active snapshot region")
		return
	}
	if level >= Phase {
		// The fence id is derived deterministically from the
		// instruction index, which is itself monotonic per stream, so
		// I2 (each fence id introduced at most once) holds by
		// construction.
		m.fences[uint32(idx)] = struct{}{}
	}
	m.phase = PhaseSubmitted
}

func judgeFenceWait(m *machine, idx int, operand []byte, level Level, rep *report.Report) {
	fenceID := binary.LittleEndian.Uint32(operand[0:4])

	if level >= Phase {
		if _, ok := m.fences[fenceID]; !ok {
			errAt(rep, idx, "FENCE_WAIT references unknown fence id %d", fenceID)
			return
		}
		delete(m.fences, fenceID)
	}

	if level == Domain {
		for _, r := range m.resources {
			if r.pending != nil {
				r.domain = r.pending.dst
				r.pending = nil
			}
		}
	}

	m.phase = PhaseIdle
}

func judgeBarrier(m *machine, idx int, operand []byte, level Level, rep *report.Report) {
	if level != Domain {
		return
	}

	resID := binary.LittleEndian.Uint32(operand[0:4])
	src := Domain(binary.LittleEndian.Uint32(operand[4:8]))
	dst := Domain(binary.LittleEndian.Uint32(operand[8:12]))

	r := m.resourceOrNil(resID)
	if r == nil || !r.allocated {
		errAt(rep, idx, "BARRIER on unallocated resource %d", resID)
		return
	}
	if r.pending != nil {
		errAt(rep, idx, "BARRIER issued before FENCE_WAIT for resource %d; insert FENCE_WAIT first", resID)
		return
	}
	if r.domain != src {
		errAt(rep, idx, "BARRIER src domain mismatch for resource %d: expected %s, got %s", resID, r.domain, src)
		return
	}
	if src != DomainDevice {
		warnAt(rep, idx, "BARRIER issued outside Device domain for resource %d (implicit promotion)", resID)
	}
	r.pending = &transition{src: src, dst: dst}
}

func judgeAllocResource(m *machine, idx int, operand []byte, level Level, rep *report.Report) {
	if level != Domain {
		return
	}
	if m.snapshotActive {
		errAt(rep, idx, "ALLOC issued inside an active snapshot region")
		return
	}

	id := binary.LittleEndian.Uint32(operand[0:4])
	heapID := binary.LittleEndian.Uint32(operand[4:8])
	// operand[8:16] is the 8-byte size field; unused by verification.
	// operand[16:20] is the usage field; unused by verification.
	flags := binary.LittleEndian.Uint32(operand[20:24])

	r := m.ensureResource(id)
	if r.allocated {
		errAt(rep, idx, "ALLOC on already-allocated resource %d", id)
		return
	}
	if r.everAllocated {
		errAt(rep, idx, "ALLOC attempts to reuse resource id %d after FREE", id)
		return
	}

	r.domain = DomainDevice
	r.allocated = true
	r.everAllocated = true
	r.persist = flags&PersistFlagBit != 0
	r.heapID = heapID
}

func judgeFreeResource(m *machine, idx int, operand []byte, level Level, rep *report.Report) {
	if level != Domain {
		return
	}

	id := binary.LittleEndian.Uint32(operand[0:4])
	r := m.resourceOrNil(id)
	if r == nil || !r.allocated {
		errAt(rep, idx, "FREE on unallocated resource %d", id)
		return
	}
	r.allocated = false
}

func judgeCheckpoint(m *machine, idx int, operand []byte, level Level, rep *report.Report) {
	if level != Domain {
		return
	}

	labelID := binary.LittleEndian.Uint32(operand[0:4])
	if _, dup := m.labels[labelID]; dup {
		errAt(rep, idx, "duplicate checkpoint label %d", labelID)
		return
	}

	m.labels[labelID] = struct{}{}
	m.checkpoints = append(m.checkpoints, checkpoint{
		labelID:    labelID,
		heapMerkle: binary.LittleEndian.Uint64(operand[4:12]),
		pipeMerkle: binary.LittleEndian.Uint64(operand[12:20]),
		streamPtr:  binary.LittleEndian.Uint64(operand[20:28]),
	})
}

func judgeSnapshotBegin(m *machine, idx int, operand []byte, level Level, rep *report.Report) {
	if level != Domain {
		return
	}

	if m.snapshotActive {
		errAt(rep, idx, "SNAPSHOT_BEGIN issued while a snapshot region is already active")
		return
	}

	// Map iteration order is randomized, so offending ids are collected
	// and sorted before any diagnostic is emitted — otherwise two runs
	// over the same stream could report the same violations in a
	// different order, breaking the determinism contract (§5, §8).
	var offendingIDs []uint32
	for id, r := range m.resources {
		if !r.persist || !r.allocated {
			continue
		}
		if r.domain != DomainHost || r.pending != nil {
			offendingIDs = append(offendingIDs, id)
		}
	}
	if len(offendingIDs) == 0 {
		m.snapshotActive = true
		return
	}

	sort.Slice(offendingIDs, func(i, j int) bool { return offendingIDs[i] < offendingIDs[j] })
	for _, id := range offendingIDs {
		r := m.resources[id]
		if r.domain != DomainHost {
			errAt(rep, idx, "persistent resource %d is not in Host domain at SNAPSHOT_BEGIN (domain=%s)", id, r.domain)
		}
		if r.pending != nil {
			errAt(rep, idx, "persistent resource %d has a pending transition at SNAPSHOT_BEGIN", id)
		}
	}
}

func judgeSnapshotEnd(m *machine, idx int, operand []byte, level Level, rep *report.Report) {
	if level != Domain {
		return
	}
	if !m.snapshotActive {
		errAt(rep, idx, "SNAPSHOT_END with no active snapshot region")
		return
	}
	m.snapshotActive = false
}

func judgeAssertIdle(m *machine, idx int, operand []byte, level Level, rep *report.Report) {
	// No mutation — phase is already confirmed Idle by the generic
	// phase-validity gate. Exists purely to document inferred state.
}

func judgeEndProgram(m *machine, idx int, operand []byte, level Level, rep *report.Report) {
	if level >= Phase && len(m.fences) > 0 {
		errAt(rep, idx, "END_PROGRAM issued with %d fence(s) still outstanding", len(m.fences))
	}
}

// judgments maps opcodes with an explicit rule to their handler. Every
// opcode absent from this map falls to the generic meta-rule in
// verify.go: phase-valid implies no-op, otherwise a phase-violation
// diagnostic.
var judgments map[byte]judgment

func init() {
	judgments = map[byte]judgment{
		byte(opcode.BeginStream): judgeBeginStream,
		byte(opcode.EndStream):   judgeEndStream,
		byte(opcode.Submit):      judgeSubmit,
		byte(opcode.FenceWait):   judgeFenceWait,
		byte(opcode.Barrier):     judgeBarrier,
		byte(opcode.AllocBuffer): judgeAllocResource,
		byte(opcode.AllocImage):  judgeAllocResource,
		byte(opcode.FreeBuffer):  judgeFreeResource,
		byte(opcode.FreeImage):   judgeFreeResource,
		byte(opcode.Checkpoint):  judgeCheckpoint,
		byte(opcode.SnapBegin):   judgeSnapshotBegin,
		byte(opcode.SnapEnd):     judgeSnapshotEnd,
		byte(opcode.AssertIdle):  judgeAssertIdle,
		byte(opcode.EndProgram):  judgeEndProgram,
	}
}
