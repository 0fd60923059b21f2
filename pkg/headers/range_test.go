package headers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRangeNPTOpenEnded(t *testing.T) {
	r, err := ParseRange("npt=0-")
	require.NoError(t, err)

	npt, ok := r.Value.(*RangeNPT)
	require.True(t, ok)
	require.Equal(t, time.Duration(0), npt.Start)
	require.Nil(t, npt.End)
}

func TestParseRangeNPTBounded(t *testing.T) {
	r, err := ParseRange("npt=10-25.5")
	require.NoError(t, err)

	npt := r.Value.(*RangeNPT)
	require.Equal(t, 10*time.Second, npt.Start)
	require.NotNil(t, npt.End)
	require.Equal(t, 25500*time.Millisecond, *npt.End)
}

func TestParseRangeSMPTE(t *testing.T) {
	r, err := ParseRange("smpte=10:07:33-10:07:45:10")
	require.NoError(t, err)

	s := r.Value.(*RangeSMPTE)
	require.Equal(t, 10*time.Hour+7*time.Minute+33*time.Second, s.Start.Time)
	require.NotNil(t, s.End)
	require.Equal(t, uint(10), s.End.Frame)
}

func TestParseRangeUTC(t *testing.T) {
	r, err := ParseRange("clock=19961108T142300Z-19961108T143520Z")
	require.NoError(t, err)

	u := r.Value.(*RangeUTC)
	require.Equal(t, 1996, u.Start.Year())
	require.NotNil(t, u.End)
}

func TestParseRangeMissingSpecFails(t *testing.T) {
	_, err := ParseRange("time=19961108T142300Z")
	require.Error(t, err)
}

func TestParseRangeEmptyFails(t *testing.T) {
	_, err := ParseRange("")
	require.Error(t, err)
}

func TestRangeStringRoundTripsNPT(t *testing.T) {
	r, err := ParseRange("npt=0-10")
	require.NoError(t, err)
	require.Equal(t, "npt=0-10", r.String())
}
