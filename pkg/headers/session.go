package headers

import (
	"fmt"
	"strconv"
	"strings"
)

// Session is a structured Session header: "<id>[;timeout=<seconds>]"
// (spec §4.5).
type Session struct {
	ID      string
	Timeout *uint
}

// ParseSession parses a Session header value. The id is the text before
// the first ';'.
func ParseSession(v string) (*Session, error) {
	if v == "" {
		return nil, fmt.Errorf("empty session header")
	}

	parts := strings.Split(v, ";")
	s := &Session{ID: strings.TrimSpace(parts[0])}
	if s.ID == "" {
		return nil, fmt.Errorf("empty session id")
	}

	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 || kv[0] != "timeout" {
			continue
		}
		n, err := strconv.ParseUint(kv[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q", kv[1])
		}
		u := uint(n)
		s.Timeout = &u
	}

	return s, nil
}

// String renders the Session header value.
func (s *Session) String() string {
	if s.Timeout != nil {
		return s.ID + ";timeout=" + strconv.FormatUint(uint64(*s.Timeout), 10)
	}
	return s.ID
}
