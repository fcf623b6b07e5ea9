// Package corpus is the replay harness: a small library of named
// command streams exercised against the verifier, run
// concurrently across a worker pool the way the teacher's queue
// runners each own one goroutine per hardware queue.
package corpus

import (
	"encoding/binary"

	"github.com/ehrlich-b/gdslverify/opcode"
	"github.com/ehrlich-b/gdslverify/verifier"
)

// Scenario is one named command stream and the verification outcome
// it is expected to produce at its chosen conformance level.
type Scenario struct {
	Name        string
	Stream      []byte
	Level       verifier.Level
	WantSuccess bool
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func join(chunks ...[]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func op(o opcode.Op) []byte { return []byte{byte(o)} }

func allocBuffer(id, heapID uint32, size uint64, usage, flags uint32) []byte {
	return join(op(opcode.AllocBuffer), u32(id), u32(heapID), u64(size), u32(usage), u32(flags))
}

func freeBuffer(id uint32) []byte {
	return join(op(opcode.FreeBuffer), u32(id))
}

func fenceWait(id uint32) []byte {
	return join(op(opcode.FenceWait), u32(id))
}

func barrier(res uint32, src, dst uint32) []byte {
	return join(op(opcode.Barrier), u32(res), u32(src), u32(dst))
}

func snapBegin(label uint32) []byte {
	return join(op(opcode.SnapBegin), u32(label))
}

// All returns the built-in scenario library: a mix of well-formed
// streams and each of the standard ways a stream can be rejected, at
// the Domain conformance level unless noted. This is the harness's
// only fixed content; callers wanting broader coverage compose their
// own streams and replay them the same way.
func All() []Scenario {
	return []Scenario{
		{
			Name: "minimal-valid",
			Stream: join(
				op(opcode.BeginStream),
				op(opcode.Submit),
				fenceWait(1),
				op(opcode.EndProgram),
			),
			Level:       verifier.Domain,
			WantSuccess: true,
		},
		{
			Name: "draw-then-submit",
			Stream: join(
				op(opcode.BeginStream),
				op(opcode.Draw),
				op(opcode.Dispatch),
				op(opcode.Submit),
				fenceWait(3),
				op(opcode.EndProgram),
			),
			Level:       verifier.Domain,
			WantSuccess: true,
		},
		{
			Name: "resource-lifecycle",
			Stream: join(
				op(opcode.BeginStream),
				allocBuffer(1, 0, 4096, 0, 0),
				barrier(1, 0, 1), // Device -> Host
				op(opcode.Submit),
				fenceWait(3),
				freeBuffer(1),
			),
			Level:       verifier.Domain,
			WantSuccess: true,
		},
		{
			Name:        "missing-begin-stream",
			Stream:      op(opcode.Submit),
			Level:       verifier.Domain,
			WantSuccess: false,
		},
		{
			Name:        "unknown-opcode",
			Stream:      join(op(opcode.BeginStream), []byte{0x30}),
			Level:       verifier.Domain,
			WantSuccess: false,
		},
		{
			Name: "snapshot-while-submitted",
			Stream: join(
				op(opcode.BeginStream),
				op(opcode.Submit),
				snapBegin(1),
			),
			Level:       verifier.Domain,
			WantSuccess: false,
		},
		{
			Name: "unterminated-snapshot",
			Stream: join(
				op(opcode.BeginStream),
				op(opcode.Submit),
				fenceWait(1),
				snapBegin(1),
				op(opcode.EndProgram),
			),
			Level:       verifier.Domain,
			WantSuccess: false,
		},
	}
}
