// Package diff implements the page-wise binary delta codec: it
// compares two memory images page by page and produces a compact
// change set that patch can replay against the base image to
// reconstruct the target, byte for byte. Compute makes two passes over
// the pages (size, then fill) so its payload is allocated once at its
// exact size, the same size-then-fill discipline the teacher's uapi
// package uses when marshaling a fixed-layout struct into a
// preallocated buffer; Patch makes a single pass over the chunks.
package diff

import (
	"fmt"

	"github.com/ehrlich-b/gdslverify/internal/bufpool"
	"github.com/ehrlich-b/gdslverify/internal/verrors"
)

// DefaultPageSize is the page granularity used when the caller does
// not specify one. The source specification and its original
// implementation disagree on this default (256 KiB vs 4 KiB); this
// codec follows the 4 KiB figure, matching the corpus of streams it
// was exercised against (see DESIGN.md).
const DefaultPageSize = 4096

// Chunk describes one changed page: PageIndex is in units of
// PageSize, Length is the number of valid bytes in that page (at most
// PageSize, less only for the final page of a target), and
// DataOffset indexes into the Diff's Payload.
type Chunk struct {
	PageIndex  uint64
	Length     uint64
	DataOffset uint64
}

// Diff is a page-granular change set: everything patch needs to turn
// a base image into a target image, without retaining either image
// itself. Chunks are always sorted by PageIndex and non-overlapping;
// Payload is the concatenation of every chunk's changed bytes in that
// same order.
type Diff struct {
	Version      uint32
	PageSize     uint32
	Flags        uint32
	TargetLength uint64
	Chunks       []Chunk
	Payload      []byte

	pooled bool // whether Payload came from bufpool and should be returned on Release
}

// wireVersion is the only version this codec emits or accepts.
const wireVersion = 1

// Compute compares base against target page by page at the given
// page size and returns the resulting Diff. A pageSize of 0 selects
// DefaultPageSize.
//
// Positions at or past the end of a shorter input read as zero, so
// Compute(base, target) where target is longer than base correctly
// reports the tail as changed, and Compute where target is shorter
// never reads past target's end: pages entirely beyond target_length
// are simply not inspected, since the diff only needs to describe how
// to reconstruct target.
func Compute(base, target []byte, pageSize uint32) (*Diff, error) {
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize == 0 || pageSize&(pageSize-1) != 0 {
		return nil, verrors.New("Compute", verrors.CodeInvocation, fmt.Sprintf("page size %d is not a power of two", pageSize))
	}

	targetLen := uint64(len(target))
	ps := uint64(pageSize)
	pageCount := (targetLen + ps - 1) / ps

	// First pass: count changed pages and total payload size, so the
	// second pass can fill preallocated, exactly-sized slices with no
	// further growth.
	changedPages := uint64(0)
	payloadLen := uint64(0)
	for p := uint64(0); p < pageCount; p++ {
		start := p * ps
		end := start + ps
		if end > targetLen {
			end = targetLen
		}
		if start >= targetLen {
			continue
		}
		if pageChanged(base, target, start, end) {
			changedPages++
			payloadLen += end - start
		}
	}

	d := &Diff{
		Version:      wireVersion,
		PageSize:     pageSize,
		TargetLength: targetLen,
		Chunks:       make([]Chunk, 0, changedPages),
		Payload:      bufpool.Get(int(payloadLen)),
		pooled:       true,
	}

	// Second pass: emit chunks in ascending page-index order, copying
	// target bytes into the payload. The payload buffer came from
	// bufpool already sized to payloadLen, so this only ever writes
	// into preallocated space.
	written := uint64(0)
	for p := uint64(0); p < pageCount; p++ {
		start := p * ps
		end := start + ps
		if end > targetLen {
			end = targetLen
		}
		if start >= targetLen {
			continue
		}
		if !pageChanged(base, target, start, end) {
			continue
		}
		offset := written
		written += uint64(copy(d.Payload[offset:offset+(end-start)], target[start:end]))
		d.Chunks = append(d.Chunks, Chunk{
			PageIndex:  p,
			Length:     end - start,
			DataOffset: offset,
		})
	}

	return d, nil
}

// Release returns d's payload buffer to the pool it came from,
// matching the explicit destroy-the-owned-storage contract this
// codec was built against. Release is safe to call on a Diff that was
// never pooled (e.g. one produced by UnmarshalBinary); it is then a
// no-op. A released Diff must not be used again.
func (d *Diff) Release() {
	if d.pooled {
		bufpool.Put(d.Payload)
		d.pooled = false
	}
	d.Payload = nil
}

// pageChanged reports whether target[start:end] differs from base at
// the same positions, treating any base position past len(base) as
// zero.
func pageChanged(base, target []byte, start, end uint64) bool {
	for i := start; i < end; i++ {
		var b byte
		if i < uint64(len(base)) {
			b = base[i]
		}
		if target[i] != b {
			return true
		}
	}
	return false
}

// Patch reconstructs the target image described by d from base,
// returning a freshly allocated buffer of exactly d.TargetLength
// bytes. Positions not covered by any chunk read as whatever base held
// at that position; base bytes beyond a shrunk target are dropped;
// positions past len(base) with no covering chunk read as zero.
func (d *Diff) Patch(base []byte) ([]byte, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}

	out := make([]byte, d.TargetLength)
	n := copy(out, base)
	for i := n; i < len(out); i++ {
		out[i] = 0
	}

	ps := uint64(d.PageSize)
	for _, c := range d.Chunks {
		dst := c.PageIndex * ps
		copy(out[dst:dst+c.Length], d.Payload[c.DataOffset:c.DataOffset+c.Length])
	}

	return out, nil
}

// ChangedPages enumerates the page indices covered by d's chunks, in
// the order the chunks appear (ascending, by construction).
func (d *Diff) ChangedPages() []uint64 {
	pages := make([]uint64, len(d.Chunks))
	for i, c := range d.Chunks {
		pages[i] = c.PageIndex
	}
	return pages
}

// validate checks every chunk against the header invariants from the
// wire-format contract: page bounds within target_length, payload
// bounds within the payload buffer, and length never exceeding one
// page.
func (d *Diff) validate() error {
	if d.PageSize == 0 || d.PageSize&(d.PageSize-1) != 0 {
		return verrors.New("validate", verrors.CodeMalformedResult, fmt.Sprintf("page size %d is not a power of two", d.PageSize))
	}
	ps := uint64(d.PageSize)
	payloadLen := uint64(len(d.Payload))

	var prevPage uint64
	for i, c := range d.Chunks {
		if i > 0 && c.PageIndex <= prevPage {
			return verrors.NewAt("validate", i, verrors.CodeMalformedResult, fmt.Sprintf("chunk out of order or overlapping (page %d after %d)", c.PageIndex, prevPage))
		}
		prevPage = c.PageIndex

		if c.Length > ps {
			return verrors.NewAt("validate", i, verrors.CodeMalformedResult, fmt.Sprintf("chunk length %d exceeds page size %d", c.Length, ps))
		}
		if c.PageIndex*ps+c.Length > d.TargetLength {
			return verrors.NewAt("validate", i, verrors.CodeMalformedResult, fmt.Sprintf("chunk extends past target length %d", d.TargetLength))
		}
		if c.DataOffset+c.Length > payloadLen {
			return verrors.NewAt("validate", i, verrors.CodeMalformedResult, fmt.Sprintf("chunk extends past payload length %d", payloadLen))
		}
	}
	return nil
}

// ExpectPageSize reports a *verrors.Error with CodePageSizeMismatch if
// d's page size does not match pageSize. Callers that received a Diff
// out-of-band (e.g. over the wire) and intend to Patch it against a
// base image captured at a known page granularity should call this
// before Patch, since Patch itself has no independent expectation to
// compare against and will happily apply a diff computed at the wrong
// granularity.
func (d *Diff) ExpectPageSize(pageSize uint32) error {
	if d.PageSize != pageSize {
		return verrors.New("ExpectPageSize", verrors.CodePageSizeMismatch,
			fmt.Sprintf("diff was computed at page size %d, expected %d", d.PageSize, pageSize))
	}
	return nil
}
