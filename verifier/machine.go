package verifier

// transition records a resource's pending domain move, recorded by
// BARRIER and committed by FENCE_WAIT. A resource has at most one of
// these outstanding at a time (I4).
type transition struct {
	src Domain
	dst Domain
}

// resource is one entry of Γ.resources — the per-id record the spec
// describes as {domain, pending_transition, allocated, persist_flag,
// heap_id}. everAllocated distinguishes an id that was never used from
// one that was freed, enforcing I5's "not re-ALLOC'd after FREE".
type resource struct {
	domain        Domain
	pending       *transition
	allocated     bool
	everAllocated bool
	persist       bool
	heapID        uint32
}

// checkpoint is a Γ.checkpoints entry.
type checkpoint struct {
	labelID    uint32
	heapMerkle uint64
	pipeMerkle uint64
	streamPtr  uint64
}

// machine is the abstract machine Γ. It lives entirely within one call
// to Verify — no field survives across invocations, which is what
// makes the verifier's determinism contract possible (§5: no
// process-global mutable state).
//
// Mutation is confined to the handler functions in judgments.go, each
// named after the opcode it implements, the same discipline the
// teacher applies to per-tag completions in its queue runner: a
// tagged state is only ever touched from the function that owns that
// transition.
type machine struct {
	phase          Phase
	fences         map[uint32]struct{}
	resources      map[uint32]*resource
	labels         map[uint32]struct{}
	checkpoints    []checkpoint
	snapshotActive bool
}

func newMachine() *machine {
	return &machine{
		phase:     PhaseBuild,
		fences:    make(map[uint32]struct{}),
		resources: make(map[uint32]*resource),
		labels:    make(map[uint32]struct{}),
	}
}

// resourceOrNil returns the resource record for id, or nil if the id
// has never been allocated.
func (m *machine) resourceOrNil(id uint32) *resource {
	return m.resources[id]
}

// ensureResource returns the resource record for id, creating an
// unallocated placeholder on first reference. Only ALLOC uses it;
// FREE and BARRIER look ids up with resourceOrNil and treat a missing
// record as unallocated.
func (m *machine) ensureResource(id uint32) *resource {
	r, ok := m.resources[id]
	if !ok {
		r = &resource{}
		m.resources[id] = r
	}
	return r
}
