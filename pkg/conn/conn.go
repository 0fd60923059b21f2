// Package conn implements the Connection component (spec §4.3): it owns
// the byte-stream to a single RTSP peer, feeds inbound bytes through
// pkg/codec in a loop, and dispatches the results into a Dispatcher
// (satisfied by pkg/correlator.Correlator). Grounded on the teacher's
// client.go connOpen/runReader/runWriter/doClose for the TCP/TLS dial
// and shutdown sequencing, generalized from the teacher's blocking
// bufio.Reader consumer to the non-recursive buffer-pull loop
// pkg/codec.Decode requires.
package conn

import (
	"context"
	"crypto/tls"
	"net"
	"sync"

	"github.com/nwahlmeier/rtspcore/pkg/base"
	"github.com/nwahlmeier/rtspcore/pkg/codec"
	"github.com/nwahlmeier/rtspcore/pkg/liberrors"
)

// readBufferSize is the chunk size passed to the underlying Read call;
// unrelated to the accumulation buffer, which grows to fit whatever the
// codec needs to see a complete frame.
const readBufferSize = 4096

// Dispatcher receives parsed messages off the read loop. Satisfied by
// *correlator.Correlator; kept as an interface so pkg/conn does not
// import pkg/correlator, matching the teacher's preference for small
// dependency-inverted seams between client.go and its collaborators.
type Dispatcher interface {
	Dispatch(*base.Response)
	DispatchRequest(*base.Request)
	CancelAll(err error)
}

// DialOptions configures Connect.
type DialOptions struct {
	// TLSConfig, if non-nil, dials with TLS (rtsps). With
	// UseWebSocketTunnel, a non-nil TLSConfig selects the wss scheme and
	// is used as the WebSocket dialer's TLS configuration.
	TLSConfig *tls.Config

	// UseWebSocketTunnel selects the WebSocket-tunneled transport (spec
	// SPEC_FULL.md §2 "WebSocket tunnel" row) instead of a raw TCP/TLS
	// socket.
	UseWebSocketTunnel bool
}

// Connection owns a single byte-stream to an RTSP peer: a write path
// guarded by a mutex (RTSP request/response framing has no built-in
// message boundary marker other than the ones the codec computes, so
// concurrent writers could interleave two requests' bytes) and a read
// loop that feeds an accumulation buffer through codec.Decode.
type Connection struct {
	nc net.Conn
	d  Dispatcher

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// Connect dials addr ("host:port") and returns a Connection whose read
// loop has already been started in a background goroutine. Dispatcher
// receives every parsed message; it is typically a
// *correlator.Correlator.
func Connect(ctx context.Context, addr string, d Dispatcher, opts DialOptions) (*Connection, error) {
	var nc net.Conn
	var err error

	switch {
	case opts.UseWebSocketTunnel:
		nc, err = dialWebSocketTunnel(ctx, addr, opts.TLSConfig)
	case opts.TLSConfig != nil:
		dialer := &tls.Dialer{Config: opts.TLSConfig}
		nc, err = dialer.DialContext(ctx, "tcp", addr)
	default:
		nc, err = (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, liberrors.ErrTransportFailure{Cause: err}
	}

	c := &Connection{
		nc:   nc,
		d:    d,
		done: make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Write serializes and writes req under the write mutex.
func (c *Connection) Write(req *base.Request) error {
	return c.writeBytes(req.Marshal())
}

// WriteResponse serializes and writes res under the write mutex (used
// only if this Connection is carrying server-initiated traffic such as
// a reply to an inbound PLAY_NOTIFY; the core client path only ever
// calls Write).
func (c *Connection) WriteResponse(res *base.Response) error {
	return c.writeBytes(res.Marshal())
}

func (c *Connection) writeBytes(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.nc.Write(b); err != nil {
		cerr := liberrors.ErrTransportFailure{Cause: err}
		c.closeWith(cerr)
		return cerr
	}
	return nil
}

// readLoop accumulates inbound bytes and repeatedly calls codec.Decode,
// dispatching each Complete result and dropping Consumed bytes after
// every Complete or resynchronizable Invalid. A non-resynchronizable
// Invalid (Consumed==0, i.e. a malformed header block) is fatal and
// closes the Connection, per spec §4.3/§7.
func (c *Connection) readLoop() {
	buf := make([]byte, 0, readBufferSize)
	chunk := make([]byte, readBufferSize)

	for {
		for {
			res := codec.Decode(buf)
			switch res.Kind {
			case codec.Complete:
				switch msg := res.Message.(type) {
				case *base.Response:
					c.d.Dispatch(msg)
				case *base.Request:
					c.d.DispatchRequest(msg)
				}
				buf = buf[res.Consumed:]
				continue

			case codec.Invalid:
				if res.Consumed > 0 {
					// Frame boundary was known; drop it and resynchronize
					// on whatever follows.
					buf = buf[res.Consumed:]
					continue
				}
				c.closeWith(liberrors.ErrTransportFailure{Cause: res.Err})
				return

			case codec.NeedMore:
			}
			break
		}

		n, err := c.nc.Read(chunk)
		if err != nil {
			c.closeWith(liberrors.ErrConnectionClosed{})
			return
		}
		buf = append(buf, chunk[:n]...)
	}
}

func (c *Connection) closeWith(err error) {
	c.closeOnce.Do(func() {
		c.closeErr = err
		_ = c.nc.Close()
		c.d.CancelAll(err)
		close(c.done)
	})
}

// Close shuts down the Connection idempotently, failing every pending
// request registered with the Dispatcher with ErrConnectionClosed.
func (c *Connection) Close() error {
	c.closeWith(liberrors.ErrConnectionClosed{})
	return nil
}

// Done returns a channel closed once the Connection has shut down,
// whether by Close, a transport error, or the peer closing its end.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Err returns the reason the Connection closed, or nil if still open.
func (c *Connection) Err() error {
	select {
	case <-c.done:
		return c.closeErr
	default:
		return nil
	}
}
