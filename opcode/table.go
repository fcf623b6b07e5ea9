// Package opcode holds the static, read-only table that maps an opcode
// byte to its name, fixed instruction size, and phase-validity set.
//
// The table is consulted by the verifier on every instruction to (a)
// recognize the opcode, (b) know how many bytes to advance, and (c)
// determine whether the opcode is legal against the current phase. It
// is initialized once at package load and never mutated afterward —
// the same "dense array keyed by small integer" shape the teacher uses
// for per-tag state (internal/queue.Runner.tagStates), here applied to
// the 256-entry opcode space instead of a handful of in-flight tags.
package opcode

// Phase is a bit position in a Set, one per verifier.Phase value.
// Kept here (rather than imported from verifier) so the table has no
// dependency on the package that consumes it.
type Phase uint8

const (
	PhaseBuild Phase = iota
	PhaseRecord
	PhaseSubmitted
	PhaseIdle
	PhaseFinished
)

// Set is a bitmask over Phase values, used to express "valid in any of
// these phases" compactly, the way mos6502's addressing-mode table
// keys a small fixed vocabulary by integer rather than by string.
type Set uint8

func setOf(phases ...Phase) Set {
	var s Set
	for _, p := range phases {
		s |= 1 << p
	}
	return s
}

// Has reports whether phase is a member of the set.
func (s Set) Has(p Phase) bool {
	return s&(1<<p) != 0
}

// None is the empty set, registered below for every vendor-range byte.
// In the table, FENCE_WAIT is the only opcode valid in Submitted: the
// host must FENCE_WAIT before issuing anything further.
const None Set = 0

// Entry describes one opcode: its mnemonic, fixed wire size including
// the opcode byte itself, and the phases in which it may legally
// appear.
type Entry struct {
	Name  string
	Size  int
	Valid Set
}

// IsZero reports whether e is the zero Entry, the table's sentinel for
// "no opcode registered at this byte".
func (e Entry) IsZero() bool {
	return e.Name == ""
}

// Concrete opcode byte assignments. gdslverify defines its own
// numbering (no upstream opcode table was available to ground a byte
// assignment against — see DESIGN.md); what matters is that the table
// is static, total over byte space, and consulted consistently by the
// verifier.
const (
	BeginStream Op = 0x01
	EndStream   Op = 0x02
	Submit      Op = 0x03
	FenceWait   Op = 0x04
	Barrier     Op = 0x05
	AllocBuffer Op = 0x06
	AllocImage  Op = 0x07
	FreeBuffer  Op = 0x08
	FreeImage   Op = 0x09
	Checkpoint  Op = 0x0A
	SnapBegin   Op = 0x0B
	SnapEnd     Op = 0x0C
	AssertIdle  Op = 0x0D
	EndProgram  Op = 0x0E
	Draw        Op = 0x0F
	Dispatch    Op = 0x10
	CopyBuffer  Op = 0x11
	CopyImage   Op = 0x12
	Clear       Op = 0x13
	Upload      Op = 0x14
	Download    Op = 0x15
	PipeBind    Op = 0x16
	SetState    Op = 0x17
	BindRes     Op = 0x18
	PushConst   Op = 0x19
	BeginPass   Op = 0x1A
	EndPass     Op = 0x1B
	EventSignal Op = 0x1C
	MarkerPush  Op = 0x1D
	Log         Op = 0x1E
	QueryBegin  Op = 0x1F
	ConstLoad   Op = 0x20
	Add         Op = 0x21
	Sub         Op = 0x22
	Mul         Op = 0x23
	Div         Op = 0x24
	IfGt        Op = 0x25
	Else        Op = 0x26
	EndIf       Op = 0x27
	Loop        Op = 0x28
	EndLoop     Op = 0x29
	Call        Op = 0x2A
	Ret         Op = 0x2B
	Include     Op = 0x2C
	Nop         Op = 0x2D
	Timestamp   Op = 0x2E
	SleepMs     Op = 0x2F
)

// Op is a raw opcode byte.
type Op byte

// VendorRangeStart and VendorRangeEnd bound the reserved vendor
// extension range (inclusive), per the spec's 0xC0-0xFF reservation.
const (
	VendorRangeStart Op = 0xC0
	VendorRangeEnd   Op = 0xFF
)

// VendorExt is the shared name recorded for every byte in the vendor
// range; IgnoreUnknownOpcodes decides whether an unmapped byte
// (including vendor bytes) is a no-op of length 1 or an error.
const VendorExt = "VENDOR_EXT"

var table [256]Entry

func register(op Op, name string, size int, valid Set) {
	table[op] = Entry{Name: name, Size: size, Valid: valid}
}

func init() {
	build, record, submitted, idle, finished := PhaseBuild, PhaseRecord, PhaseSubmitted, PhaseIdle, PhaseFinished

	register(BeginStream, "BEGIN_STREAM", 1, setOf(build, idle))
	register(EndStream, "END_STREAM", 1, setOf(record))
	register(Submit, "SUBMIT", 1, setOf(record))
	register(FenceWait, "FENCE_WAIT", 5, setOf(submitted)) // the one opcode legal while every catch-all opcode is forbidden
	register(Barrier, "BARRIER", 13, setOf(record))
	register(AllocBuffer, "ALLOC_BUFFER", 25, setOf(idle, record))
	register(AllocImage, "ALLOC_IMAGE", 25, setOf(idle, record))
	register(FreeBuffer, "FREE_BUFFER", 5, setOf(idle, record))
	register(FreeImage, "FREE_IMAGE", 5, setOf(idle, record))
	register(Checkpoint, "CHECKPOINT", 29, setOf(idle))
	register(SnapBegin, "SNAPSHOT_BEGIN", 5, setOf(idle))
	register(SnapEnd, "SNAPSHOT_END", 1, setOf(idle))
	register(AssertIdle, "ASSERT_IDLE", 1, setOf(idle))
	register(EndProgram, "END_PROGRAM", 1, setOf(idle))
	register(Draw, "DRAW", 1, setOf(record))
	register(Dispatch, "DISPATCH", 1, setOf(record))
	register(CopyBuffer, "COPY_BUFFER", 1, setOf(record))
	register(CopyImage, "COPY_IMAGE", 1, setOf(record))
	register(Clear, "CLEAR", 1, setOf(record))
	register(Upload, "UPLOAD", 1, setOf(record))
	register(Download, "DOWNLOAD", 1, setOf(record))
	register(PipeBind, "PIPE_BIND", 1, setOf(record))
	register(SetState, "SET_STATE", 1, setOf(record))
	register(BindRes, "BIND_RESOURCE", 1, setOf(record))
	register(PushConst, "PUSH_CONST", 1, setOf(record))
	register(BeginPass, "BEGIN_PASS", 1, setOf(record))
	register(EndPass, "END_PASS", 1, setOf(record))
	register(EventSignal, "EVENT_SIGNAL", 1, setOf(record))
	register(MarkerPush, "MARKER_PUSH", 1, setOf(record, idle))
	register(Log, "LOG", 1, setOf(record, idle))
	register(QueryBegin, "QUERY_BEGIN", 1, setOf(record))
	register(ConstLoad, "CONST_LOAD", 1, setOf(record))
	register(Add, "ADD", 1, setOf(record))
	register(Sub, "SUB", 1, setOf(record))
	register(Mul, "MUL", 1, setOf(record))
	register(Div, "DIV", 1, setOf(record))
	register(IfGt, "IF_GT", 1, setOf(record))
	register(Else, "ELSE", 1, setOf(record))
	register(EndIf, "ENDIF", 1, setOf(record))
	register(Loop, "LOOP", 1, setOf(record))
	register(EndLoop, "ENDLOOP", 1, setOf(record))
	register(Call, "CALL", 1, setOf(record))
	register(Ret, "RET", 1, setOf(record))
	register(Include, "INCLUDE", 1, setOf(record))
	register(Nop, "NOP", 1, setOf(build, record, idle, finished))
	register(Timestamp, "TIMESTAMP", 1, setOf(record, idle))
	register(SleepMs, "SLEEP_MS", 1, setOf(record))

	for b := int(VendorRangeStart); b <= int(VendorRangeEnd); b++ {
		register(Op(b), VendorExt, 1, None)
	}
}

// Lookup returns the table entry for b and whether it is registered.
// Every registered opcode's Valid set is exactly its phase requirement
// from the judgment rules — the verifier's generic phase-validity gate
// and each opcode's own judgment handler agree on it by construction.
// Vendor-range bytes register with an empty Valid set: they are never
// phase-valid, and the verifier always sends them down its
// unknown-opcode path (an error, or a one-byte no-op when the caller
// configured IgnoreUnknownOpcodes).
func Lookup(b byte) (Entry, bool) {
	e := table[b]
	return e, !e.IsZero()
}

// IsVendor reports whether b falls in the reserved vendor extension
// range.
func IsVendor(b byte) bool {
	return Op(b) >= VendorRangeStart && Op(b) <= VendorRangeEnd
}
