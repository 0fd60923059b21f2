// Package correlator implements the request/response correlator (spec
// §4.4): CSeq assignment, pending-slot bookkeeping, and delivery of
// unsolicited messages to an out-of-band event channel. Grounded on the
// teacher's ad hoc c.cseq counter and single-pending-request handling in
// client.go's do(), generalized to the concurrent multi-slot model
// pipelining requires (the teacher never pipelines, since every do()
// call blocks the single client goroutine end-to-end).
package correlator

import (
	"sync"

	"github.com/nwahlmeier/rtspcore/pkg/base"
	"github.com/nwahlmeier/rtspcore/pkg/liberrors"
)

// Event is delivered on the out-of-band channel for anything that isn't
// a solicited response: an unsolicited/late response, or an inbound
// server-initiated request (PLAY_NOTIFY/REDIRECT in RTSP/2.0).
type Event struct {
	Response *base.Response
	Request  *base.Request
}

// Outcome is what a pending slot resolves to: either a response, or an
// error (ConnectionClosed, Timeout, ...).
type Outcome struct {
	Response *base.Response
	Err      error
}

// Correlator owns the CSeq counter and the pending-request map. It is
// safe for concurrent use by one reader goroutine (Dispatch) and many
// writer goroutines (Register/NextCSeq).
type Correlator struct {
	mu      sync.Mutex
	cseq    int
	pending map[int]chan Outcome
	events  chan Event
	closed  bool
}

// New allocates a Correlator. eventBuffer sizes the out-of-band event
// channel; a full channel causes further events to be dropped rather
// than blocking the reader loop (spec §4.4 does not require guaranteed
// delivery of unsolicited traffic).
func New(eventBuffer int) *Correlator {
	if eventBuffer <= 0 {
		eventBuffer = 16
	}
	return &Correlator{
		pending: make(map[int]chan Outcome),
		events:  make(chan Event, eventBuffer),
	}
}

// NextCSeq returns the next CSeq, starting at 1 and increasing strictly
// monotonically (spec §4.4/§5/§8).
func (c *Correlator) NextCSeq() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cseq++
	return c.cseq
}

// Register inserts a fresh pending slot for cseq and returns the channel
// that will receive its Outcome. Fails with ErrCSeqCollision if a slot
// for this cseq already exists.
func (c *Correlator) Register(cseq int) (<-chan Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, liberrors.ErrConnectionClosed{}
	}
	if _, exists := c.pending[cseq]; exists {
		return nil, liberrors.ErrCSeqCollision{CSeq: cseq}
	}

	ch := make(chan Outcome, 1)
	c.pending[cseq] = ch
	return ch, nil
}

// Cancel removes a pending slot without fulfilling it, used when a
// caller's context is cancelled or send_request's timeout elapses
// (spec §5 "Cancellation and timeout"). A response that later arrives
// for this CSeq becomes unsolicited.
func (c *Correlator) Cancel(cseq int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, cseq)
}

// Dispatch routes a parsed response to its waiter by CSeq. If no slot
// exists (no registration, or it was already fulfilled/cancelled/timed
// out), the response is surfaced on the event channel instead.
func (c *Correlator) Dispatch(res *base.Response) {
	cseq, ok := res.CSeq()
	if !ok {
		c.emit(Event{Response: res})
		return
	}

	c.mu.Lock()
	ch, exists := c.pending[cseq]
	if exists {
		delete(c.pending, cseq)
	}
	c.mu.Unlock()

	if !exists {
		c.emit(Event{Response: res})
		return
	}

	ch <- Outcome{Response: res}
}

// DispatchRequest surfaces an inbound server-initiated request
// (PLAY_NOTIFY/REDIRECT) on the event channel. Dispatch policy is the
// caller's (spec.md §9 Open Questions).
func (c *Correlator) DispatchRequest(req *base.Request) {
	c.emit(Event{Request: req})
}

func (c *Correlator) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		// event channel full; drop rather than block the reader loop.
	}
}

// Events returns the out-of-band channel.
func (c *Correlator) Events() <-chan Event {
	return c.events
}

// CancelAll fails every pending request with err and marks the
// correlator closed, so future Register calls fail fast. Used on
// Connection teardown (spec §4.4/§4.3).
func (c *Correlator) CancelAll(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[int]chan Outcome)
	c.closed = true
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- Outcome{Err: err}
	}
}
