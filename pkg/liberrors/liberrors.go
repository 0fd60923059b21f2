// Package liberrors contains the error taxonomy of the RTSP client core
// (spec §7): one struct type per failure kind, matching the teacher's
// own liberrors package shape (ErrClientWrongState,
// ErrClientWrongStatusCode, ...) rather than a flat sentinel-error
// design, so callers can type-switch or errors.As on exactly the
// information they need.
package liberrors

import (
	"fmt"

	"github.com/nwahlmeier/rtspcore/pkg/base"
)

// ErrInvalidURL is the taxonomy's URL-parse failure kind. No function in
// this module returns it: base.ParseURL reports failures by wrapping
// base.ErrInvalidURLScheme, base.ErrInvalidURLHost or
// base.ErrInvalidURLPort.
type ErrInvalidURL struct {
	Reason error
}

func (e ErrInvalidURL) Error() string { return fmt.Sprintf("invalid URL: %v", e.Reason) }
func (e ErrInvalidURL) Unwrap() error { return e.Reason }

// ErrTransportFailure is returned when connect/read/write on the
// underlying byte-stream fails.
type ErrTransportFailure struct {
	Cause error
}

func (e ErrTransportFailure) Error() string { return fmt.Sprintf("transport failure: %v", e.Cause) }
func (e ErrTransportFailure) Unwrap() error  { return e.Cause }

// ErrConnectionClosed is returned to every pending request, and to any
// later caller, once a Connection has been closed (by the peer or
// locally).
type ErrConnectionClosed struct{}

func (ErrConnectionClosed) Error() string { return "connection closed" }

// ErrMalformedStatusLine is returned when the codec cannot parse a
// response's status line.
type ErrMalformedStatusLine struct {
	Reason string
}

func (e ErrMalformedStatusLine) Error() string {
	return fmt.Sprintf("malformed status line: %s", e.Reason)
}

// ErrMalformedHeaders is returned when the header block is not valid
// UTF-8, or otherwise cannot be resynchronized.
type ErrMalformedHeaders struct {
	Reason string
}

func (e ErrMalformedHeaders) Error() string {
	return fmt.Sprintf("malformed headers: %s", e.Reason)
}

// ErrIncompleteMessage describes a connection closed while a message was
// still being framed. No function in this module returns it: when the
// peer closes mid-frame, the Connection fails pending requests with
// ErrConnectionClosed.
type ErrIncompleteMessage struct{}

func (ErrIncompleteMessage) Error() string { return "incomplete message at shutdown" }

// ErrIllegalState is returned when a Session rejects a method given its
// current state, before any bytes are written.
type ErrIllegalState struct {
	From   fmt.Stringer
	Method base.Method
}

func (e ErrIllegalState) Error() string {
	return fmt.Sprintf("%s is not valid from state %v", e.Method, e.From)
}

// ErrCSeqMismatch is returned when a response's CSeq does not match the
// CSeq of the request it was matched to. This should never occur in
// practice because the correlator matches by CSeq before this check
// runs; it exists as a consistency backstop.
type ErrCSeqMismatch struct {
	Expected int
	Got      int
}

func (e ErrCSeqMismatch) Error() string {
	return fmt.Sprintf("CSeq mismatch: expected %d, got %d", e.Expected, e.Got)
}

// ErrCSeqCollision is returned by the correlator when asked to register
// a CSeq that already has a pending slot. Should not happen in normal
// use, since CSeq values are assigned by the correlator itself.
type ErrCSeqCollision struct {
	CSeq int
}

func (e ErrCSeqCollision) Error() string {
	return fmt.Sprintf("CSeq %d already has a pending request", e.CSeq)
}

// ErrProtocolError is returned to the caller when a response carries a
// 4xx/5xx status. Session state is left unchanged.
type ErrProtocolError struct {
	StatusCode    base.StatusCode
	StatusMessage string
}

func (e ErrProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %d %s", e.StatusCode, e.StatusMessage)
}

// ErrSessionIDDrift is returned when a response carries a Session id
// different from the one the Session already holds.
type ErrSessionIDDrift struct {
	Expected string
	Got      string
}

func (e ErrSessionIDDrift) Error() string {
	return fmt.Sprintf("session id drift: expected %q, got %q", e.Expected, e.Got)
}

// ErrTimeout is returned when a response is not received within the
// caller-supplied deadline. The caller may retry with a fresh CSeq.
type ErrTimeout struct {
	CSeq int
}

func (e ErrTimeout) Error() string {
	return fmt.Sprintf("timed out waiting for response to CSeq %d", e.CSeq)
}
