package session

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nwahlmeier/rtspcore/pkg/base"
	"github.com/nwahlmeier/rtspcore/pkg/correlator"
	"github.com/nwahlmeier/rtspcore/pkg/headers"
	"github.com/nwahlmeier/rtspcore/pkg/liberrors"
)

// recordingWriter captures every request handed to Write and lets the
// test script a canned response for it via respond, simulating the
// Connection without any real I/O.
type recordingWriter struct {
	corr *correlator.Correlator
	sent []*base.Request
}

func (w *recordingWriter) Write(req *base.Request) error {
	w.sent = append(w.sent, req)
	return nil
}

func (w *recordingWriter) respond(res *base.Response) {
	w.corr.Dispatch(res)
}

func newTestSession(opts ...Option) (*Session, *recordingWriter) {
	corr := correlator.New(8)
	w := &recordingWriter{corr: corr}
	u := base.MustParseURL("rtsp://example.com/stream")
	s := New(u, w, corr, opts...)
	return s, w
}

// okResponse builds a 200 OK carrying the given CSeq, optionally with
// extra headers applied by the caller before Dispatch.
func okResponse(cseq int) *base.Response {
	res := base.NewResponse(base.RTSP10, base.StatusOK)
	res.Header.Set("CSeq", strconv.Itoa(cseq))
	return res
}

func lastCSeq(req *base.Request) int {
	n, _ := req.CSeq()
	return n
}

func TestOptionsHandshake(t *testing.T) {
	s, w := newTestSession()

	var got *base.Response
	var sendErr error
	done := make(chan struct{})
	go func() {
		got, sendErr = s.Options(context.Background(), time.Second)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(w.sent) == 1 }, time.Second, time.Millisecond)
	req := w.sent[0]
	require.Equal(t, base.Options, req.Method)
	require.Equal(t, 1, lastCSeq(req))

	res := okResponse(lastCSeq(req))
	res.Header.Set("Public", "OPTIONS, DESCRIBE, SETUP, PLAY, PAUSE, TEARDOWN")
	w.respond(res)

	<-done
	require.NoError(t, sendErr)
	require.NotNil(t, got)

	methods := PublicMethods(got)
	for _, m := range []base.Method{base.Options, base.Describe, base.Setup, base.Play, base.Pause, base.Teardown} {
		require.True(t, methods[m], "expected %s in Public", m)
	}
	require.Equal(t, Init, s.State())
}

func TestSetupEstablishesSessionID(t *testing.T) {
	s, w := newTestSession()

	target := base.MustParseURL("rtsp://example.com/stream/track1")
	tr, err := headers.ParseTransport("RTP/AVP;unicast;client_port=8000-8001")
	require.NoError(t, err)

	done := make(chan struct{})
	var sendErr error
	go func() {
		_, sendErr = s.Setup(context.Background(), target, tr, time.Second)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(w.sent) == 1 }, time.Second, time.Millisecond)
	req := w.sent[0]
	transportHeader, _ := req.Header.Get("transport")
	require.Equal(t, "RTP/AVP;unicast;client_port=8000-8001", transportHeader)

	res := okResponse(lastCSeq(req))
	res.Header.Set("Session", "f8f3d1a2;timeout=60")
	res.Header.Set("Transport", "RTP/AVP;unicast;client_port=8000-8001;server_port=5541-5542")
	w.respond(res)

	<-done
	require.NoError(t, sendErr)

	id, ok := s.ID()
	require.True(t, ok)
	require.Equal(t, "f8f3d1a2", id)
	require.Equal(t, Ready, s.State())

	// Subsequent requests carry the Session header.
	done2 := make(chan struct{})
	go func() {
		s.Options(context.Background(), time.Second)
		close(done2)
	}()
	require.Eventually(t, func() bool { return len(w.sent) == 2 }, time.Second, time.Millisecond)
	sessionHeader, _ := w.sent[1].Header.Get("session")
	require.Equal(t, "f8f3d1a2", sessionHeader)
	w.respond(okResponse(lastCSeq(w.sent[1])))
	<-done2
}

func TestPlayThenPause(t *testing.T) {
	s, w := newTestSession()
	forceState(s, Ready)
	s.sessionID = "sess1"

	done := make(chan struct{})
	var playErr error
	go func() {
		rng, _ := headers.ParseRange("npt=0-")
		_, playErr = s.Play(context.Background(), rng, time.Second)
		close(done)
	}()
	require.Eventually(t, func() bool { return len(w.sent) == 1 }, time.Second, time.Millisecond)
	w.respond(okResponse(lastCSeq(w.sent[0])))
	<-done
	require.NoError(t, playErr)
	require.Equal(t, Playing, s.State())

	done2 := make(chan struct{})
	var pauseErr error
	go func() {
		_, pauseErr = s.Pause(context.Background(), time.Second)
		close(done2)
	}()
	require.Eventually(t, func() bool { return len(w.sent) == 2 }, time.Second, time.Millisecond)
	w.respond(okResponse(lastCSeq(w.sent[1])))
	<-done2
	require.NoError(t, pauseErr)
	require.Equal(t, Ready, s.State())
}

func TestPauseFromInitIsIllegalAndDoesNotWrite(t *testing.T) {
	s, w := newTestSession()

	_, err := s.Pause(context.Background(), time.Second)
	require.Error(t, err)
	require.IsType(t, liberrors.ErrIllegalState{}, err)
	require.Empty(t, w.sent)
}

func TestTeardownClosesAndClearsSessionID(t *testing.T) {
	s, w := newTestSession()
	forceState(s, Playing)
	s.sessionID = "sess1"

	done := make(chan struct{})
	var err error
	go func() {
		_, err = s.Teardown(context.Background(), time.Second)
		close(done)
	}()
	require.Eventually(t, func() bool { return len(w.sent) == 1 }, time.Second, time.Millisecond)
	w.respond(okResponse(lastCSeq(w.sent[0])))
	<-done
	require.NoError(t, err)
	require.Equal(t, Closed, s.State())
	_, ok := s.ID()
	require.False(t, ok)

	_, err = s.Play(context.Background(), nil, time.Second)
	require.Error(t, err)
	require.IsType(t, liberrors.ErrIllegalState{}, err)
}

func TestSessionIDDriftPreservesState(t *testing.T) {
	s, w := newTestSession()
	forceState(s, Ready)
	s.sessionID = "sess1"

	done := make(chan struct{})
	var err error
	go func() {
		_, err = s.Play(context.Background(), nil, time.Second)
		close(done)
	}()
	require.Eventually(t, func() bool { return len(w.sent) == 1 }, time.Second, time.Millisecond)
	res := okResponse(lastCSeq(w.sent[0]))
	res.Header.Set("Session", "different-id")
	w.respond(res)
	<-done

	require.Error(t, err)
	require.IsType(t, liberrors.ErrSessionIDDrift{}, err)
	require.Equal(t, Ready, s.State())
}

func TestProtocolErrorLeavesStateUnchanged(t *testing.T) {
	s, w := newTestSession()
	forceState(s, Ready)

	done := make(chan struct{})
	var err error
	go func() {
		_, err = s.Play(context.Background(), nil, time.Second)
		close(done)
	}()
	require.Eventually(t, func() bool { return len(w.sent) == 1 }, time.Second, time.Millisecond)
	res := base.NewResponse(base.RTSP10, base.StatusSessionNotFound)
	res.Header.Set("CSeq", strconv.Itoa(lastCSeq(w.sent[0])))
	w.respond(res)
	<-done

	require.Error(t, err)
	require.IsType(t, liberrors.ErrProtocolError{}, err)
	require.Equal(t, Ready, s.State())
}

func TestCSeqsAreContiguousAndMonotonic(t *testing.T) {
	s, w := newTestSession()

	for i := 1; i <= 3; i++ {
		done := make(chan struct{})
		go func() {
			s.Options(context.Background(), time.Second)
			close(done)
		}()
		require.Eventually(t, func() bool { return len(w.sent) == i }, time.Second, time.Millisecond)
		require.Equal(t, i, lastCSeq(w.sent[i-1]))
		w.respond(okResponse(lastCSeq(w.sent[i-1])))
		<-done
	}
}

func TestAnnounceMovesInitToReady(t *testing.T) {
	s, w := newTestSession()

	sdp := []byte("v=0\r\no=- 0 0 IN IP4 127.0.0.1\r\ns=stream\r\n")
	done := make(chan struct{})
	var err error
	go func() {
		_, err = s.Announce(context.Background(), sdp, time.Second)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(w.sent) == 1 }, time.Second, time.Millisecond)
	req := w.sent[0]
	require.Equal(t, base.Announce, req.Method)
	require.Equal(t, sdp, req.Body)
	contentType, _ := req.Header.Get("content-type")
	require.Equal(t, "application/sdp", contentType)

	w.respond(okResponse(lastCSeq(req)))
	<-done
	require.NoError(t, err)
	require.Equal(t, Ready, s.State())
}

func TestSendDrivesArbitraryMethodThroughLegalityAndCorrelation(t *testing.T) {
	s, w := newTestSession()
	forceState(s, Ready)
	s.sessionID = "sess1"

	req := base.NewRequest(base.SetParameter, nil, base.RTSP10)
	req.Body = []byte("volume: 10")

	done := make(chan struct{})
	var err error
	go func() {
		_, err = s.Send(context.Background(), req, time.Second)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(w.sent) == 1 }, time.Second, time.Millisecond)
	sent := w.sent[0]
	require.Equal(t, 1, lastCSeq(sent))
	sessionHeader, _ := sent.Header.Get("session")
	require.Equal(t, "sess1", sessionHeader)

	w.respond(okResponse(lastCSeq(sent)))
	<-done
	require.NoError(t, err)
	require.Equal(t, Ready, s.State())
}

func TestSendRejectsIllegalMethodForState(t *testing.T) {
	s, w := newTestSession()

	req := base.NewRequest(base.Pause, nil, base.RTSP10)
	_, err := s.Send(context.Background(), req, time.Second)
	require.Error(t, err)
	require.IsType(t, liberrors.ErrIllegalState{}, err)
	require.Empty(t, w.sent)
}

func TestTimeoutCancelsPendingSlot(t *testing.T) {
	s, w := newTestSession()

	_, err := s.Options(context.Background(), 10*time.Millisecond)
	require.Error(t, err)
	require.IsType(t, liberrors.ErrTimeout{}, err)
	require.Len(t, w.sent, 1)

	// A late response for the timed-out CSeq becomes unsolicited rather
	// than panicking on a missing slot.
	w.respond(okResponse(lastCSeq(w.sent[0])))
}

func forceState(s *Session, st State) {
	s.state = st
}
