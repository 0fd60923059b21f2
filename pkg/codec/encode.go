package codec

import "github.com/nwahlmeier/rtspcore/pkg/base"

// EncodeRequest serializes a request to wire bytes. It is a thin
// wrapper over base.Request.Marshal, kept in this package so callers
// that think in terms of "the codec" have a single import for both
// directions of the wire format (spec §4.2 describes serialization and
// parsing as one component).
func EncodeRequest(r *base.Request) []byte {
	return r.Marshal()
}

// EncodeResponse serializes a response to wire bytes (used by tests
// that simulate a server, and by any future server-side reuse of this
// codec).
func EncodeResponse(r *base.Response) []byte {
	return r.Marshal()
}
