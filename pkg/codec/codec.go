// Package codec implements the RTSP message codec (spec §4.2): a pure
// function from a byte buffer to Complete/NeedMore/Invalid, and a
// serializer for outgoing requests. Unlike the teacher's
// base.Request.Read/base.Response.Read, which block on a bufio.Reader
// tied to a live connection, Decode operates on an in-memory buffer that
// may represent a partial message, several concatenated messages, or a
// message split across arbitrary byte boundaries — exactly the shape
// spec §4.2/§4.3/§8 require for a Connection's read loop to drive
// without recursing (Design Notes §9).
package codec

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nwahlmeier/rtspcore/pkg/base"
	"github.com/nwahlmeier/rtspcore/pkg/liberrors"
)

// maxHeaderBlock bounds how many bytes of headers we will scan for the
// terminator before giving up and declaring the frame unrecoverable;
// guards against a malicious/broken peer that never sends \r\n\r\n.
const maxHeaderBlock = 1 << 20 // 1 MiB

// Kind classifies a Decode outcome.
type Kind int

const (
	// NeedMore means the buffer does not yet contain a complete message;
	// the caller should read more bytes and retry.
	NeedMore Kind = iota
	// Complete means a message was fully parsed; Consumed bytes should
	// be dropped from the front of the buffer before the next Decode.
	Complete
	// Invalid means the buffer's leading bytes are not a parseable RTSP
	// message. If Consumed > 0 the frame's length was still known and the
	// caller can drop those bytes and resynchronize on what follows; if
	// Consumed is 0 (a MalformedHeaders error such as invalid UTF-8 or a
	// bad Content-Length) the frame cannot be skipped safely.
	Invalid
)

// ParsedMessage is either *base.Response or *base.Request (the latter
// only for server-initiated requests such as PLAY_NOTIFY/REDIRECT in
// RTSP/2.0, spec §4.2 "Server push").
type ParsedMessage interface{}

// Result is the outcome of a single Decode call.
type Result struct {
	Kind     Kind
	Message  ParsedMessage
	Consumed int
	Err      error
}

// Decode scans buf for exactly one complete RTSP message starting at
// offset 0, per the algorithm in spec §4.2.
func Decode(buf []byte) Result {
	headerEnd := bytes.Index(buf, []byte("\r\n\r\n"))
	if headerEnd < 0 {
		if len(buf) > maxHeaderBlock {
			return Result{Kind: Invalid, Err: liberrors.ErrMalformedHeaders{
				Reason: "header block exceeds maximum size without a terminator",
			}}
		}
		return Result{Kind: NeedMore}
	}

	headerBlock := buf[:headerEnd]
	if !utf8.Valid(headerBlock) {
		return Result{Kind: Invalid, Err: liberrors.ErrMalformedHeaders{Reason: "invalid UTF-8"}}
	}

	lines := strings.Split(string(headerBlock), "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		// The terminator was found and an empty header block carries no
		// Content-Length, so the frame boundary is known even though the
		// message itself is junk: resynchronize past it instead of
		// treating it as fatal.
		return Result{Kind: Invalid, Err: liberrors.ErrMalformedStatusLine{Reason: "empty first line"}, Consumed: headerEnd + 4}
	}
	firstLine := lines[0]
	headerLines := lines[1:]

	header, err := parseHeaderLines(headerLines)
	if err != nil {
		return Result{Kind: Invalid, Err: err}
	}

	bodyStart := headerEnd + 4
	bodyLen, hasCL, err := contentLength(header)
	if err != nil {
		return Result{Kind: Invalid, Err: liberrors.ErrMalformedHeaders{Reason: err.Error()}}
	}

	available := len(buf) - bodyStart
	if hasCL {
		if available < bodyLen {
			return Result{Kind: NeedMore}
		}
	} else {
		bodyLen = 0
	}

	body := buf[bodyStart : bodyStart+bodyLen]
	consumed := bodyStart + bodyLen

	if proto, ok := matchStatusLine(firstLine); ok {
		res := &base.Response{
			Proto:         base.ProtoVersion(proto.proto),
			StatusCode:    base.StatusCode(proto.code),
			StatusMessage: proto.reason,
			Header:        header,
			Body:          cloneBytes(body),
		}
		return Result{Kind: Complete, Message: res, Consumed: consumed}
	}

	if m, ok := matchRequestLine(firstLine); ok {
		req := &base.Request{
			Method: m.method,
			URL:    m.url,
			Proto:  base.ProtoVersion(m.proto),
			Header: header,
			Body:   cloneBytes(body),
		}
		return Result{Kind: Complete, Message: req, Consumed: consumed}
	}

	// The header block and Content-Length framing were both well-formed;
	// only the first line failed to match either grammar. The frame's
	// byte length is still known, so the caller can skip past it and
	// resynchronize on the next message, per spec §4.3/§7 ("non-fatal;
	// frame dropped").
	return Result{Kind: Invalid, Err: liberrors.ErrMalformedStatusLine{Reason: firstLine}, Consumed: consumed}
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

type statusLine struct {
	proto  string
	code   int
	reason string
}

// matchStatusLine parses "RTSP/<major>.<minor> <code> <reason...>"
// (spec §4.2 step 4).
func matchStatusLine(line string) (statusLine, bool) {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 3 {
		return statusLine{}, false
	}
	if !strings.HasPrefix(fields[0], "RTSP/") {
		return statusLine{}, false
	}
	ver := fields[0][len("RTSP/"):]
	parts := strings.SplitN(ver, ".", 2)
	if len(parts) != 2 {
		return statusLine{}, false
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return statusLine{}, false
	}
	if _, err := strconv.Atoi(parts[1]); err != nil {
		return statusLine{}, false
	}

	codeField := fields[1]
	if len(codeField) != 3 {
		return statusLine{}, false
	}
	code, err := strconv.Atoi(codeField)
	if err != nil {
		return statusLine{}, false
	}

	return statusLine{proto: fields[0], code: code, reason: fields[2]}, true
}

type requestLine struct {
	method Method
	url    *base.URL
	proto  string
}

// Method is re-exported here only to keep matchRequestLine's return type
// self-contained; it is always base.Method in practice.
type Method = base.Method

// matchRequestLine parses "METHOD SP target-URI SP RTSP/<v>" (spec §4.2
// "Server push"): used to recognize inbound PLAY_NOTIFY/REDIRECT
// requests arriving on a client connection.
func matchRequestLine(line string) (requestLine, bool) {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) != 3 {
		return requestLine{}, false
	}
	if !strings.HasPrefix(fields[2], "RTSP/") {
		return requestLine{}, false
	}
	ver := fields[2][len("RTSP/"):]
	parts := strings.SplitN(ver, ".", 2)
	if len(parts) != 2 {
		return requestLine{}, false
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return requestLine{}, false
	}
	if _, err := strconv.Atoi(parts[1]); err != nil {
		return requestLine{}, false
	}

	u, err := base.ParseURL(fields[1])
	if err != nil {
		// fall back to a bare path/opaque target, e.g. "*"
		u = nil
	}

	method := base.Method(fields[0])
	switch method {
	case base.Options, base.Describe, base.Setup, base.Play, base.Pause,
		base.Record, base.Teardown, base.GetParameter, base.SetParameter,
		base.Announce, base.Redirect, base.PlayNotify:
	default:
		method = base.Unknown
	}

	return requestLine{method: method, url: u, proto: fields[2]}, true
}

// parseHeaderLines implements spec §4.2 step 5: each non-empty line is
// "Name: value"; name is trimmed/lowercased, value is trimmed; lines
// without a colon are skipped without any warning (the codec has no
// logger); duplicate names keep the first occurrence.
func parseHeaderLines(lines []string) (base.Header, error) {
	h := make(base.Header)
	for _, line := range lines {
		if line == "" {
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue // skipped silently; no warning is emitted
		}
		name := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		if name == "" {
			continue
		}
		h.SetFirst(name, value)
	}
	return h, nil
}

// contentLength extracts and validates the Content-Length header.
func contentLength(h base.Header) (int, bool, error) {
	v, ok := h.Get("content-length")
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, false, fmt.Errorf("invalid Content-Length %q", v)
	}
	return n, true, nil
}
