// Package verrors provides the structured error type returned for
// catastrophic invocation failures in the verifier and diff engine.
//
// Per-instruction problems found while verifying a stream are never
// represented as errors — they are appended to a report.Report as
// diagnostics (see report.Diagnostic). This package covers only the
// small set of invocation-level failures the core APIs can raise: a
// diff page size that is not a power of two, a malformed diff.Diff
// (from Patch, MarshalBinary or UnmarshalBinary), and a page-size
// mismatch reported by diff.Diff.ExpectPageSize.
package verrors

import (
	"errors"
	"fmt"
)

// Code represents a high-level error category.
type Code string

const (
	CodeInvocation       Code = "invalid invocation"
	CodeMalformedResult  Code = "malformed diff result"
	CodePageSizeMismatch Code = "page size mismatch"
	CodeCapacityExceeded Code = "capacity exceeded"
	CodeNotImplemented   Code = "not implemented"
)

// Error is a structured error with enough context to identify where,
// in which call, and why a core API refused to proceed.
type Error struct {
	Op          string // operation that failed, e.g. "Verify", "Patch"
	Instruction int    // instruction index, -1 if not applicable
	Code        Code   // high-level error category
	Msg         string // human-readable message
	Inner       error  // wrapped error, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if e.Instruction >= 0 {
		return fmt.Sprintf("gdslverify: %s: %s (instruction=%d)", e.Op, msg, e.Instruction)
	}
	return fmt.Sprintf("gdslverify: %s: %s", e.Op, msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is provides errors.Is support, comparing by Code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// New creates a new structured error with no associated instruction.
func New(op string, code Code, msg string) *Error {
	return &Error{Op: op, Instruction: -1, Code: code, Msg: msg}
}

// NewAt creates a new structured error tied to an instruction index.
func NewAt(op string, instruction int, code Code, msg string) *Error {
	return &Error{Op: op, Instruction: instruction, Code: code, Msg: msg}
}

// Wrap wraps an existing error with operation context, preserving the
// inner error's code when it is itself a *Error.
func Wrap(op string, inner error) *Error {
	if inner == nil {
		return nil
	}

	var ie *Error
	if errors.As(inner, &ie) {
		return &Error{
			Op:          op,
			Instruction: ie.Instruction,
			Code:        ie.Code,
			Msg:         ie.Msg,
			Inner:       ie.Inner,
		}
	}

	return &Error{
		Op:          op,
		Instruction: -1,
		Code:        CodeInvocation,
		Msg:         inner.Error(),
		Inner:       inner,
	}
}

// IsCode reports whether err is a *Error with the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
