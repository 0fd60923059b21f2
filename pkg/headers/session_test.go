package headers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSessionIDOnly(t *testing.T) {
	s, err := ParseSession("f8f3d1a2")
	require.NoError(t, err)
	require.Equal(t, "f8f3d1a2", s.ID)
	require.Nil(t, s.Timeout)
}

func TestParseSessionWithTimeout(t *testing.T) {
	s, err := ParseSession("f8f3d1a2;timeout=60")
	require.NoError(t, err)
	require.Equal(t, "f8f3d1a2", s.ID)
	require.NotNil(t, s.Timeout)
	require.Equal(t, uint(60), *s.Timeout)
}

func TestParseSessionEmptyFails(t *testing.T) {
	_, err := ParseSession("")
	require.Error(t, err)
}

func TestParseSessionEmptyIDFails(t *testing.T) {
	_, err := ParseSession(";timeout=60")
	require.Error(t, err)
}

func TestSessionStringWithTimeout(t *testing.T) {
	s := &Session{ID: "abc"}
	timeout := uint(30)
	s.Timeout = &timeout
	require.Equal(t, "abc;timeout=30", s.String())
}

func TestSessionStringWithoutTimeout(t *testing.T) {
	s := &Session{ID: "abc"}
	require.Equal(t, "abc", s.String())
}
