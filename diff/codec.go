package diff

import (
	"encoding/binary"
	"fmt"

	"github.com/ehrlich-b/gdslverify/internal/verrors"
)

// headerSize is the fixed on-the-wire header: u32 version, u32
// page_size, u32 flags, u32 chunk_count, u64 target_length.
const headerSize = 4 + 4 + 4 + 4 + 8

// chunkSize is one wire chunk: page_index, length, data_offset, each
// a u64.
const chunkSize = 8 + 8 + 8

// MarshalBinary encodes d into the wire format: header, chunk table,
// payload. Matches the struct-to-bytes-by-explicit-offset style used
// throughout this module's wire types, not reflection or gob.
func (d *Diff) MarshalBinary() ([]byte, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}

	total := headerSize + len(d.Chunks)*chunkSize + len(d.Payload)
	buf := make([]byte, total)

	binary.LittleEndian.PutUint32(buf[0:4], d.Version)
	binary.LittleEndian.PutUint32(buf[4:8], d.PageSize)
	binary.LittleEndian.PutUint32(buf[8:12], d.Flags)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(d.Chunks)))
	binary.LittleEndian.PutUint64(buf[16:24], d.TargetLength)

	off := headerSize
	for _, c := range d.Chunks {
		binary.LittleEndian.PutUint64(buf[off:off+8], c.PageIndex)
		binary.LittleEndian.PutUint64(buf[off+8:off+16], c.Length)
		binary.LittleEndian.PutUint64(buf[off+16:off+24], c.DataOffset)
		off += chunkSize
	}

	copy(buf[off:], d.Payload)
	return buf, nil
}

// UnmarshalBinary decodes data into d, replacing its contents. It
// rejects a version it does not recognize and any chunk that fails
// the header/chunk invariants (out-of-order, overlapping, or
// out-of-bounds), but does not otherwise trust the input: callers
// that decode untrusted streams get the same validation Compute's
// own output would pass.
func (d *Diff) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return verrors.New("UnmarshalBinary", verrors.CodeMalformedResult, fmt.Sprintf("header needs %d bytes, got %d", headerSize, len(data)))
	}

	version := binary.LittleEndian.Uint32(data[0:4])
	if version != wireVersion {
		return verrors.New("UnmarshalBinary", verrors.CodeMalformedResult, fmt.Sprintf("unsupported wire version %d", version))
	}

	pageSize := binary.LittleEndian.Uint32(data[4:8])
	flags := binary.LittleEndian.Uint32(data[8:12])
	chunkCount := binary.LittleEndian.Uint32(data[12:16])
	targetLength := binary.LittleEndian.Uint64(data[16:24])

	chunksEnd := headerSize + int(chunkCount)*chunkSize
	if len(data) < chunksEnd {
		return verrors.New("UnmarshalBinary", verrors.CodeMalformedResult, fmt.Sprintf("chunk table needs %d bytes, got %d", chunksEnd-headerSize, len(data)-headerSize))
	}

	chunks := make([]Chunk, chunkCount)
	off := headerSize
	for i := range chunks {
		chunks[i] = Chunk{
			PageIndex:  binary.LittleEndian.Uint64(data[off : off+8]),
			Length:     binary.LittleEndian.Uint64(data[off+8 : off+16]),
			DataOffset: binary.LittleEndian.Uint64(data[off+16 : off+24]),
		}
		off += chunkSize
	}

	payload := make([]byte, len(data)-chunksEnd)
	copy(payload, data[chunksEnd:])

	candidate := &Diff{
		Version:      version,
		PageSize:     pageSize,
		Flags:        flags,
		TargetLength: targetLength,
		Chunks:       chunks,
		Payload:      payload,
	}
	if err := candidate.validate(); err != nil {
		return err
	}

	*d = *candidate
	return nil
}
