package base

import (
	"strconv"
	"strings"
)

// Request is a RTSP request: method, target URI, protocol version,
// headers, and an optional body. Invariant: if Body is non-empty,
// Content-Length equals len(Body); CSeq must be set before the request
// is handed to a Connection for writing (spec §3).
type Request struct {
	Method Method
	URL    *URL
	Proto  ProtoVersion
	Header Header
	Body   []byte

	// casing overrides the rendered capitalization of headers; nil for
	// every Request this module builds or parses (see firstSeenCasing).
	casing firstSeenCasing
}

// NewRequest allocates a Request with an empty Header map and the given
// protocol version (defaulting to RTSP/1.0 if empty).
func NewRequest(method Method, u *URL, proto ProtoVersion) *Request {
	if proto == "" {
		proto = RTSP10
	}
	return &Request{
		Method: method,
		URL:    u,
		Proto:  proto,
		Header: make(Header),
	}
}

// CSeq returns the request's CSeq header as an integer, or false if
// absent/malformed.
func (r *Request) CSeq() (int, bool) {
	v, ok := r.Header.Get("cseq")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Marshal serializes the request to wire bytes, per spec §4.2:
//
//	METHOD SP target-URI SP version CRLF
//	Name: value CRLF  (CSeq first, Content-Length auto-set when Body present)
//	CRLF
//	body
func (r *Request) Marshal() []byte {
	if r.Header == nil {
		r.Header = make(Header)
	}
	if len(r.Body) > 0 {
		r.Header.Set("Content-Length", strconv.Itoa(len(r.Body)))
	}

	proto := r.Proto
	if proto == "" {
		proto = RTSP10
	}

	urlStr := "*"
	if r.URL != nil {
		urlStr = r.URL.CloneWithoutCredentials().String()
	}

	var sb strings.Builder
	sb.WriteString(string(r.Method))
	sb.WriteByte(' ')
	sb.WriteString(urlStr)
	sb.WriteByte(' ')
	sb.WriteString(string(proto))
	sb.WriteString("\r\n")

	r.Header.writeTo(&sb, orderedKeys(r.Header), r.casing)
	sb.WriteString("\r\n")

	out := make([]byte, 0, sb.Len()+len(r.Body))
	out = append(out, []byte(sb.String())...)
	out = append(out, r.Body...)
	return out
}

// String implements fmt.Stringer.
func (r *Request) String() string {
	return string(r.Marshal())
}
