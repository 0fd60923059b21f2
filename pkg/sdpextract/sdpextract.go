// Package sdpextract is a non-core collaborator: it reads a DESCRIBE
// response's SDP body and produces the per-media control URL map the
// core consumes when building SETUP requests (spec.md §1, "the core
// consumes a simple mapping from an external SDP collaborator, not a
// full SDP object model"). Deliberately not imported by pkg/session,
// pkg/conn, or pkg/correlator, preserving that boundary.
//
// Grounded on the teacher's findBaseURL (client.go) and Media.url
// (media.go) control-attribute resolution, rebuilt here on top of
// pion/sdp/v3's own Unmarshal instead of the teacher's from-scratch SDP
// parser (sdp.go), since nothing else in this core needs the teacher's
// compatibility shims for non-conformant SDP producers.
package sdpextract

import (
	"fmt"
	"strings"

	psdp "github.com/pion/sdp/v3"

	"github.com/nwahlmeier/rtspcore/pkg/base"
)

// Media describes one SDP media section's resolved control URL,
// alongside the attributes a caller commonly needs to match a SETUP
// response's Transport header against (type and payload formats).
type Media struct {
	// Type is the SDP media type: "audio", "video", "application", ...
	Type string

	// Formats lists the payload type numbers/names from the "m=" line.
	Formats []string

	// ControlURL is the absolute URL to SETUP/PLAY this media, resolved
	// against the session-level base URL per RFC 2326 §C.1.1.
	ControlURL *base.URL
}

// Extract parses an SDP body and resolves every media section's control
// URL against base (the DESCRIBE target URL, or the response's
// Content-Base if the caller already applied that precedence — spec.md
// §1 leaves Content-Base precedence to the collaborator's caller).
func Extract(body []byte, baseURL *base.URL) ([]Media, error) {
	var sd psdp.SessionDescription
	if err := sd.Unmarshal(body); err != nil {
		return nil, fmt.Errorf("invalid SDP: %w", err)
	}

	sessionBase := baseURL
	if control, ok := sd.Attribute("control"); ok && control != "" && control != "*" {
		u, err := resolveControl(control, baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid session control attribute: %w", err)
		}
		sessionBase = u
	}

	out := make([]Media, len(sd.MediaDescriptions))
	for i, md := range sd.MediaDescriptions {
		m := Media{
			Type:    md.MediaName.Media,
			Formats: append([]string(nil), md.MediaName.Formats...),
		}

		mediaBase := sessionBase
		if control, ok := mediaAttribute(md, "control"); ok && control != "" {
			u, err := resolveControl(control, sessionBase)
			if err != nil {
				return nil, fmt.Errorf("media %d: invalid control attribute: %w", i, err)
			}
			mediaBase = u
		}
		m.ControlURL = mediaBase

		out[i] = m
	}

	return out, nil
}

func mediaAttribute(md *psdp.MediaDescription, key string) (string, bool) {
	for _, a := range md.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// resolveControl resolves a control attribute against base, per the
// teacher's Media.url: an absolute "rtsp://" or "rtsps://" control
// attribute keeps its own host and path and takes base's credentials;
// anything else is appended to base's
// path (after its query, if any), matching RFC 2326 Appendix C.1.1.
func resolveControl(control string, baseURL *base.URL) (*base.URL, error) {
	if strings.HasPrefix(control, "rtsp://") || strings.HasPrefix(control, "rtsps://") {
		u, err := base.ParseURL(control)
		if err != nil {
			return nil, err
		}
		if baseURL != nil {
			u.User = baseURL.Clone().User
		}
		return u, nil
	}

	if baseURL == nil {
		return nil, fmt.Errorf("no base URL to resolve relative control attribute %q against", control)
	}

	s := baseURL.String()
	if len(control) == 0 || control[0] != '?' {
		if !strings.HasSuffix(s, "/") {
			s += "/"
		}
	}
	return base.ParseURL(s + control)
}
