package base

import (
	"net/http"
	"sort"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// headerWriter is the minimal surface writeTo needs; satisfied by
// *strings.Builder and *bytes.Buffer alike.
type headerWriter interface {
	WriteString(string) (int, error)
}

// canonicalNames holds the exact on-wire capitalization for headers this
// core cares about, since http.CanonicalHeaderKey's generic
// dash-separated-title-case rule gets a few RTSP headers wrong
// ("CSeq", "WWW-Authenticate").
var canonicalNames = map[string]string{
	"cseq":             "CSeq",
	"content-length":   "Content-Length",
	"content-type":     "Content-Type",
	"content-base":     "Content-Base",
	"session":          "Session",
	"transport":        "Transport",
	"range":            "Range",
	"public":           "Public",
	"www-authenticate": "WWW-Authenticate",
	"accept":           "Accept",
	"authorization":    "Authorization",
	"user-agent":       "User-Agent",
	"server":           "Server",
	"location":         "Location",
}

// canonicalHeaderName renders the canonical on-wire capitalization for a
// lowercased header name. Unknown headers fall back to
// http.CanonicalHeaderKey's generic rule.
func canonicalHeaderName(lower string) string {
	if n, ok := canonicalNames[lower]; ok {
		return n
	}
	return http.CanonicalHeaderKey(lower)
}

// Header is a RTSP header map: normalized-lowercase field name to a
// single, whitespace-trimmed value. When the same field name appears
// multiple times on the wire, the first occurrence wins (spec §3): some
// servers duplicate CSeq with differing values, and preserving the
// first matches the outgoing request reliably.
type Header map[string]string

// firstSeenCasing maps a lowercased header name to the casing writeTo
// renders it with, taking precedence over canonicalHeaderName. Nothing
// in this module populates it: codec.Decode builds requests and
// responses without it, so headers not in canonicalNames are rendered
// with http.CanonicalHeaderKey's casing, not the casing seen on the wire.
type firstSeenCasing map[string]string

// Get returns a header value, matching case-insensitively. The empty
// string is returned (ok=false) if absent.
func (h Header) Get(name string) (string, bool) {
	v, ok := h[strings.ToLower(name)]
	return v, ok
}

// Set sets a header value, overwriting any prior value under the same
// normalized name.
func (h Header) Set(name, value string) {
	h[strings.ToLower(name)] = strings.TrimSpace(value)
}

// SetFirst sets a header value only if it is not already present,
// implementing the "first occurrence wins" rule for callers building a
// Header incrementally (e.g. while parsing duplicated wire headers).
func (h Header) SetFirst(name, value string) {
	k := strings.ToLower(name)
	if _, exists := h[k]; exists {
		return
	}
	h[k] = strings.TrimSpace(value)
}

// Clone returns a shallow copy.
func (h Header) Clone() Header {
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// writeTo renders headers in the given key order (as produced by
// orderedKeys: CSeq first, the rest sorted alphabetically), each on its
// own CRLF-terminated line, using canonical wire capitalization.
func (h Header) writeTo(buf headerWriter, order []string, casing firstSeenCasing) {
	for _, k := range order {
		v, ok := h[k]
		if !ok {
			continue
		}
		name := canonicalHeaderName(k)
		if casing != nil {
			if c, ok := casing[k]; ok {
				name = c
			}
		}
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(v)
		buf.WriteString("\r\n")
	}
}

// ValidateFieldName reports whether name is a syntactically valid RTSP
// header field token, using the same token grammar HTTP/1.1 uses
// (RFC 7230 field-name), which RTSP headers (RFC 2326 §4.2) share.
func ValidateFieldName(name string) bool {
	return httpguts.ValidHeaderFieldName(name)
}

// ValidateFieldValue reports whether value is free of characters that
// would break header-line framing (CR, LF, and other control bytes).
func ValidateFieldValue(value string) bool {
	return httpguts.ValidHeaderFieldValue(value)
}

// orderedKeys returns the header map's keys, CSeq first, remaining keys
// sorted for deterministic output (the teacher's base.Header.write does
// the same sort-for-determinism, minus the CSeq-first rule spec §4.2
// adds).
func orderedKeys(h Header) []string {
	keys := make([]string, 0, len(h))
	hasCSeq := false
	for k := range h {
		if k == "cseq" {
			hasCSeq = true
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if hasCSeq {
		keys = append([]string{"cseq"}, keys...)
	}
	return keys
}
