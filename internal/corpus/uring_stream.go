//go:build gdsl_uring

// This file exists only under the gdsl_uring build tag. The verifier
// and diff engine are pure, synchronous, and in-memory (§5: "no
// operation blocks on I/O"), so nothing in the core ever needs a
// kernel ring. What follows is an optional corpus source for live
// fuzzing: it pulls raw stream bytes off a character device using
// io_uring reads instead of blocking read(2), the same ring the
// teacher submits URING_CMDs on, repurposed here from "dispatch a
// block I/O" to "fetch the next chunk of a command stream to verify".
package corpus

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/pawelgaczynski/giouring"
)

// UringStreamSource reads GDSL command stream bytes from a character
// device (or any file descriptor source) via io_uring, the way the
// teacher's internal/uring.Ring submits control and I/O commands
// against /dev/ublkc*. It never interprets the bytes it reads — that
// is the verifier's job once a full stream has been assembled.
type UringStreamSource struct {
	ring *giouring.Ring
	file *os.File
}

// OpenUringStreamSource opens path and prepares an io_uring instance
// with the given submission-queue depth for reading from it.
func OpenUringStreamSource(path string, entries uint32) (*UringStreamSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: open %s: %w", path, err)
	}

	ring, err := giouring.CreateRing(entries)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("corpus: create ring: %w", err)
	}

	return &UringStreamSource{ring: ring, file: f}, nil
}

// Close releases the ring and the underlying file descriptor.
func (s *UringStreamSource) Close() error {
	if s.ring != nil {
		s.ring.QueueExit()
	}
	return s.file.Close()
}

// ReadChunk submits one io_uring read for up to len(buf) bytes at
// offset and blocks until its completion, returning the number of
// bytes actually read. A zero-length result with a nil error means
// end of stream.
func (s *UringStreamSource) ReadChunk(buf []byte, offset int64) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	sqe := s.ring.GetSQE()
	if sqe == nil {
		return 0, fmt.Errorf("corpus: submission queue full")
	}
	sqe.PrepareRead(int(s.file.Fd()), uintptr(unsafe.Pointer(&buf[0])), uint32(len(buf)), uint64(offset))
	sqe.UserData = 1

	if _, err := s.ring.Submit(); err != nil {
		return 0, fmt.Errorf("corpus: submit: %w", err)
	}

	cqe, err := s.ring.WaitCQE()
	if err != nil {
		return 0, fmt.Errorf("corpus: wait completion: %w", err)
	}
	defer s.ring.CQESeen(cqe)

	if cqe.Res < 0 {
		return 0, fmt.Errorf("corpus: read completion failed: errno %d", -cqe.Res)
	}
	return int(cqe.Res), nil
}
