// Package verifier implements the GPU command-stream abstract machine:
// given a byte stream and a conformance level, it replays the stream
// against Γ and reports every violation it finds, the same
// read-the-whole-thing-and-report-everything discipline the teacher's
// control plane applies when validating a device's parameter block
// before admitting it.
package verifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ehrlich-b/gdslverify/opcode"
	"github.com/ehrlich-b/gdslverify/report"
)

// Verify replays stream against a fresh abstract machine at cfg.Level
// and returns the accumulated diagnostic report. Verify is a pure
// function of (stream, cfg): no process-global state is consulted or
// mutated, so the same arguments always produce a byte-for-byte
// identical report.
//
// Verify never returns a non-nil error for malformed input — malformed
// streams are reported as diagnostics, not Go errors. A non-nil error
// means the call itself was invalid (e.g. a negative report capacity
// that New cannot honor is clamped, not rejected, so in practice this
// path is reserved for future invocation-level failures).
func Verify(stream []byte, cfg Config) (*report.Report, error) {
	rep := report.New(cfg.ReportCapacity)
	m := newMachine()

	pos := 0
	idx := 0

	for pos < len(stream) {
		b := stream[pos]
		entry, ok := opcode.Lookup(b)

		if !ok || opcode.IsVendor(b) {
			if cfg.IgnoreUnknownOpcodes {
				pos++
				idx++
				rep.InstructionCount++
				continue
			}
			errAt(rep, idx, "unknown opcode 0x%02X", b)
			idx++
			rep.InstructionCount++
			pos++
			if !cfg.ContinueOnError {
				return rep, nil
			}
			continue
		}

		if pos+entry.Size > len(stream) {
			errAt(rep, idx, "truncated instruction: %s needs %d byte(s), %d remain", entry.Name, entry.Size, len(stream)-pos)
			rep.InstructionCount++
			break
		}

		operand := stream[pos+1 : pos+entry.Size]

		errsBefore := rep.ErrorCount
		if cfg.Level >= Phase {
			if !entry.Valid.Has(m.phase.opcodePhase()) {
				errAt(rep, idx, "%s is not valid in phase %s", entry.Name, m.phase)
			} else if j, hasJudgment := judgments[b]; hasJudgment {
				j(m, idx, operand, cfg.Level, rep)
			}
			// Opcodes with no explicit judgment are no-ops once
			// phase-valid: DRAW, DISPATCH, the arithmetic/control-flow
			// mnemonics, and the rest of the catch-all bucket carry no
			// additional Γ semantics in this verifier.
		}

		rep.InstructionCount++
		idx++
		pos += entry.Size

		if !cfg.ContinueOnError && rep.ErrorCount > errsBefore {
			return rep, nil
		}
	}

	if cfg.Level >= Phase && pos >= len(stream) {
		if cfg.Level == Domain && m.snapshotActive {
			errAt(rep, idx, "stream ended with an unterminated snapshot region")
		}
		if m.phase != PhaseFinished && m.phase != PhaseIdle {
			errAt(rep, idx, "stream ended in phase %s, expected Idle or Finished", m.phase)
		}
		if len(m.fences) > 0 {
			errAt(rep, idx, "stream ended with %d fence(s) still outstanding: %s", len(m.fences), formatFenceIDs(m.fences))
		}
	}

	return rep, nil
}

// formatFenceIDs renders the outstanding fence ids in ascending order
// for a deterministic terminal diagnostic — fences is a map, and map
// iteration order is randomized, so the ids must be sorted before
// they're interpolated into any message (§5, §8).
func formatFenceIDs(fences map[uint32]struct{}) string {
	ids := make([]uint32, 0, len(fences))
	for id := range fences {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
