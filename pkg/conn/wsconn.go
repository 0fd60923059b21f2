package conn

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsReader adapts a series of WebSocket binary messages into a
// continuous io.Reader, buffering whatever of the current message a
// short Read call didn't consume. Grounded on the teacher's wsReader in
// server_tunnel_websocket.go.
type wsReader struct {
	wc  *websocket.Conn
	buf []byte
}

func (r *wsReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		msgType, buf, err := r.wc.ReadMessage()
		if err != nil {
			return 0, err
		}
		if msgType != websocket.BinaryMessage {
			return 0, fmt.Errorf("unexpected websocket message type %v", msgType)
		}
		r.buf = buf
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// wsWriter adapts Write calls into WebSocket binary messages, one per
// call, serialized by a mutex since gorilla/websocket forbids
// concurrent writers on one connection.
type wsWriter struct {
	wc *websocket.Conn

	mu sync.Mutex
}

func (w *wsWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.wc.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// wsConn presents a WebSocket connection as a net.Conn, so it can be
// handed directly to Connect's read loop in place of a raw TCP/TLS
// socket. Grounded on the teacher's clientTunnelWebSocket in
// client_tunnel_websocket.go.
type wsConn struct {
	wc *websocket.Conn
	r  io.Reader
	w  io.Writer
}

func (c *wsConn) Read(b []byte) (int, error)  { return c.r.Read(b) }
func (c *wsConn) Write(b []byte) (int, error) { return c.w.Write(b) }
func (c *wsConn) Close() error                { return c.wc.Close() }
func (c *wsConn) LocalAddr() net.Addr         { return c.wc.LocalAddr() }
func (c *wsConn) RemoteAddr() net.Addr        { return c.wc.RemoteAddr() }
func (c *wsConn) SetDeadline(t time.Time) error {
	if err := c.wc.SetReadDeadline(t); err != nil {
		return err
	}
	return c.wc.SetWriteDeadline(t)
}
func (c *wsConn) SetReadDeadline(t time.Time) error  { return c.wc.SetReadDeadline(t) }
func (c *wsConn) SetWriteDeadline(t time.Time) error { return c.wc.SetWriteDeadline(t) }

// dialWebSocketTunnel opens a WebSocket connection to addr and wraps it
// as a net.Conn carrying raw RTSP bytes as binary frames. Used when a
// DialOption requests the WebSocket tunnel transport (spec
// SPEC_FULL.md §2, "WebSocket tunnel" row) instead of a direct TCP/TLS
// socket — for environments where only HTTP(S)-shaped egress is
// permitted.
func dialWebSocketTunnel(ctx context.Context, addr string, tlsConfig *tls.Config) (net.Conn, error) {
	scheme := "ws"
	if tlsConfig != nil {
		scheme = "wss"
	}

	dialer := &websocket.Dialer{
		TLSClientConfig: tlsConfig,
		Subprotocols:    []string{"rtsp.onvif.org"},
	}

	wc, _, err := dialer.DialContext(ctx, scheme+"://"+addr+"/", nil)
	if err != nil {
		return nil, err
	}

	return &wsConn{
		wc: wc,
		r:  &wsReader{wc: wc},
		w:  &wsWriter{wc: wc},
	}, nil
}
