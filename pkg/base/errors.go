package base

import "errors"

// URL-level parse errors (spec §4.1). These are wrapped with
// fmt.Errorf("%w: ...", ...) by ParseURL so callers can match with
// errors.Is while still getting a descriptive message.
var (
	// ErrInvalidURLScheme is returned when the scheme is not one of
	// rtsp, rtsps, rtspu.
	ErrInvalidURLScheme = errors.New("invalid URL scheme")

	// ErrInvalidURLHost is returned when the host is missing or
	// unparsable.
	ErrInvalidURLHost = errors.New("invalid URL host")

	// ErrInvalidURLPort is returned when a port is present but not a
	// valid decimal port number.
	ErrInvalidURLPort = errors.New("invalid URL port")
)
