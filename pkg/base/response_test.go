package base

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseMarshalStatusLine(t *testing.T) {
	res := NewResponse(RTSP10, StatusOK)
	res.Header.Set("CSeq", "1")

	lines := strings.Split(string(res.Marshal()), "\r\n")
	require.Equal(t, "RTSP/1.0 200 OK", lines[0])
}

func TestResponseMarshalUsesCustomStatusMessage(t *testing.T) {
	res := NewResponse(RTSP10, StatusOK)
	res.StatusMessage = "Custom Reason"
	lines := strings.Split(string(res.Marshal()), "\r\n")
	require.Equal(t, "RTSP/1.0 200 Custom Reason", lines[0])
}

func TestResponseMarshalSetsContentLength(t *testing.T) {
	res := NewResponse(RTSP10, StatusOK)
	res.Header.Set("CSeq", "1")
	res.Body = []byte("v=0\r\n")
	out := string(res.Marshal())
	require.Contains(t, out, "Content-Length: 5")
}

func TestResponseCSeqRoundTrip(t *testing.T) {
	res := NewResponse(RTSP10, StatusOK)
	res.Header.Set("CSeq", "42")
	n, ok := res.CSeq()
	require.True(t, ok)
	require.Equal(t, 42, n)
}

func TestStatusCodeIsSuccess(t *testing.T) {
	require.True(t, StatusOK.IsSuccess())
	require.False(t, StatusNotFound.IsSuccess())
}

func TestStatusCodeString(t *testing.T) {
	require.Equal(t, "200 OK", StatusOK.String())
	require.Equal(t, "999", StatusCode(999).String())
}
