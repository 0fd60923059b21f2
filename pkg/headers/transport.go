package headers

import (
	"fmt"
	"strconv"
	"strings"
)

// TransportProtocol is the transport-protocol token (RTP, RTCP, ...).
type TransportProtocol string

// Recognized transport-protocol tokens.
const (
	TransportProtocolRTP  TransportProtocol = "RTP"
	TransportProtocolRTCP TransportProtocol = "RTCP"
)

// TransportProfile is the profile token (AVP, ...).
type TransportProfile string

// TransportProfileAVP is the only profile this core recognizes.
const TransportProfileAVP TransportProfile = "AVP"

// LowerTransport is the lower-transport token.
type LowerTransport int

// Lower-transport values.
const (
	LowerTransportUDP LowerTransport = iota
	LowerTransportTCP
)

func (lt LowerTransport) String() string {
	if lt == LowerTransportTCP {
		return "TCP"
	}
	return "UDP"
}

// Cast is the unicast/multicast delivery mode.
type Cast int

// Cast values.
const (
	CastUnicast Cast = iota
	CastMulticast
)

func (c Cast) String() string {
	if c == CastMulticast {
		return "multicast"
	}
	return "unicast"
}

// Mode is the play/record transport mode.
type Mode int

// Mode values.
const (
	ModePlay Mode = iota
	ModeRecord
)

func (m Mode) String() string {
	if m == ModeRecord {
		return "record"
	}
	return "play"
}

// Transport is a structured Transport header (spec §3): recognized
// options are transport-protocol, profile, lower-transport, cast,
// client_port, server_port, destination, source, ssrc, mode, ttl and
// interleaved. Round-tripping a parsed header produces a semantically
// equivalent one, though not necessarily byte-identical (field order
// and casing may differ).
type Transport struct {
	Protocol       TransportProtocol
	Profile        TransportProfile
	LowerTransport LowerTransport
	Cast           *Cast
	ClientPorts    *[2]int
	ServerPorts    *[2]int
	Ports          *[2]int
	InterleavedIDs *[2]int
	Destination    *string
	Source         *string
	SSRC           *string
	Mode           *Mode
	TTL            *uint
}

func parsePortRange(val string) (*[2]int, error) {
	parts := strings.Split(val, "-")
	switch len(parts) {
	case 1:
		p, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid port range %q", val)
		}
		return &[2]int{p, p + 1}, nil
	case 2:
		p1, err1 := strconv.Atoi(parts[0])
		p2, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("invalid port range %q", val)
		}
		return &[2]int{p1, p2}, nil
	default:
		return nil, fmt.Errorf("invalid port range %q", val)
	}
}

// ParseTransport parses a Transport header value.
func ParseTransport(v string) (*Transport, error) {
	parts := strings.Split(v, ";")
	if len(parts) == 0 || parts[0] == "" {
		return nil, fmt.Errorf("invalid transport header: %q", v)
	}

	t := &Transport{
		Profile:        TransportProfileAVP,
		LowerTransport: LowerTransportUDP,
	}

	switch strings.ToUpper(parts[0]) {
	case "RTP/AVP", "RTP/AVP/UDP":
		t.Protocol = TransportProtocolRTP
		t.LowerTransport = LowerTransportUDP
	case "RTP/AVP/TCP":
		t.Protocol = TransportProtocolRTP
		t.LowerTransport = LowerTransportTCP
	case "RTP/AVPF":
		t.Protocol = TransportProtocolRTP
		t.LowerTransport = LowerTransportUDP
	default:
		return nil, fmt.Errorf("invalid transport-protocol/profile %q", parts[0])
	}
	parts = parts[1:]

	for _, tok := range parts {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == "unicast":
			c := CastUnicast
			t.Cast = &c
		case tok == "multicast":
			c := CastMulticast
			t.Cast = &c
		case strings.HasPrefix(tok, "client_port="):
			p, err := parsePortRange(tok[len("client_port="):])
			if err != nil {
				return nil, err
			}
			t.ClientPorts = p
		case strings.HasPrefix(tok, "server_port="):
			p, err := parsePortRange(tok[len("server_port="):])
			if err != nil {
				return nil, err
			}
			t.ServerPorts = p
		case strings.HasPrefix(tok, "port="):
			p, err := parsePortRange(tok[len("port="):])
			if err != nil {
				return nil, err
			}
			t.Ports = p
		case strings.HasPrefix(tok, "interleaved="):
			p, err := parsePortRange(tok[len("interleaved="):])
			if err != nil {
				return nil, err
			}
			t.InterleavedIDs = p
		case strings.HasPrefix(tok, "destination="):
			v := tok[len("destination="):]
			t.Destination = &v
		case strings.HasPrefix(tok, "source="):
			v := tok[len("source="):]
			t.Source = &v
		case strings.HasPrefix(tok, "ssrc="):
			v := tok[len("ssrc="):]
			t.SSRC = &v
		case strings.HasPrefix(tok, "ttl="):
			n, err := strconv.ParseUint(tok[len("ttl="):], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid ttl %q", tok)
			}
			u := uint(n)
			t.TTL = &u
		case strings.HasPrefix(tok, "mode="):
			v := strings.Trim(tok[len("mode="):], `"`)
			switch strings.ToLower(v) {
			case "play":
				m := ModePlay
				t.Mode = &m
			case "record", "receive":
				m := ModeRecord
				t.Mode = &m
			default:
				return nil, fmt.Errorf("invalid transport mode %q", v)
			}
		}
		// unrecognized tokens are ignored, matching the permissive
		// "recognized options" wording in spec §3.
	}

	return t, nil
}

func formatPortRange(p [2]int) string {
	return strconv.Itoa(p[0]) + "-" + strconv.Itoa(p[1])
}

// String renders the Transport header value.
func (t *Transport) String() string {
	var parts []string

	switch {
	case t.LowerTransport == LowerTransportTCP:
		parts = append(parts, "RTP/AVP/TCP")
	default:
		parts = append(parts, "RTP/AVP")
	}

	if t.Cast != nil {
		parts = append(parts, t.Cast.String())
	}
	if t.Destination != nil {
		parts = append(parts, "destination="+*t.Destination)
	}
	if t.Source != nil {
		parts = append(parts, "source="+*t.Source)
	}
	if t.TTL != nil {
		parts = append(parts, "ttl="+strconv.FormatUint(uint64(*t.TTL), 10))
	}
	if t.Ports != nil {
		parts = append(parts, "port="+formatPortRange(*t.Ports))
	}
	if t.ClientPorts != nil {
		parts = append(parts, "client_port="+formatPortRange(*t.ClientPorts))
	}
	if t.ServerPorts != nil {
		parts = append(parts, "server_port="+formatPortRange(*t.ServerPorts))
	}
	if t.InterleavedIDs != nil {
		parts = append(parts, "interleaved="+formatPortRange(*t.InterleavedIDs))
	}
	if t.SSRC != nil {
		parts = append(parts, "ssrc="+*t.SSRC)
	}
	if t.Mode != nil {
		parts = append(parts, "mode="+t.Mode.String())
	}

	return strings.Join(parts, ";")
}
