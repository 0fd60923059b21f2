package liberrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nwahlmeier/rtspcore/pkg/base"
)

type fakeStringer string

func (f fakeStringer) String() string { return string(f) }

func TestErrIllegalStateMessage(t *testing.T) {
	err := ErrIllegalState{From: fakeStringer("Init"), Method: base.Play}
	require.Equal(t, "PLAY is not valid from state Init", err.Error())
}

func TestErrTransportFailureUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrTransportFailure{Cause: cause}
	require.ErrorIs(t, err, cause)
}

func TestErrInvalidURLUnwraps(t *testing.T) {
	cause := errors.New("bad scheme")
	err := ErrInvalidURL{Reason: cause}
	require.ErrorIs(t, err, cause)
}

func TestErrCSeqMismatchMessage(t *testing.T) {
	err := ErrCSeqMismatch{Expected: 3, Got: 4}
	require.Equal(t, "CSeq mismatch: expected 3, got 4", err.Error())
}

func TestErrSessionIDDriftMessage(t *testing.T) {
	err := ErrSessionIDDrift{Expected: "abc", Got: "xyz"}
	require.Contains(t, err.Error(), "abc")
	require.Contains(t, err.Error(), "xyz")
}

func TestErrProtocolErrorMessage(t *testing.T) {
	err := ErrProtocolError{StatusCode: base.StatusSessionNotFound, StatusMessage: "Session Not Found"}
	require.Contains(t, err.Error(), "454")
}

func TestErrTimeoutMessage(t *testing.T) {
	err := ErrTimeout{CSeq: 9}
	require.Contains(t, err.Error(), "9")
}

func TestErrCSeqCollisionMessage(t *testing.T) {
	err := ErrCSeqCollision{CSeq: 5}
	require.Contains(t, err.Error(), "5")
}

func TestErrConnectionClosedIsComparable(t *testing.T) {
	require.Equal(t, ErrConnectionClosed{}, ErrConnectionClosed{})
	require.Equal(t, "connection closed", ErrConnectionClosed{}.Error())
}
