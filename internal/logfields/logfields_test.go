package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStringHelpers(t *testing.T) {
	cases := []struct {
		attr slog.Attr
		key  string
		val  string
	}{
		{Path("docs/a.md"), KeyPath, "docs/a.md"},
		{RunID("r1"), KeyRunID, "r1"},
		{Category("parse"), KeyCategory, "parse"},
		{Method("POST"), KeyMethod, "POST"},
		{RequestID("rid"), KeyRequestID, "rid"},
		{RemoteAddr("1.2.3.4"), KeyRemoteAddr, "1.2.3.4"},
		{UserAgent("curl"), KeyUserAgent, "curl"},
		{Event("WRITE"), KeyEvent, "WRITE"},
		{Branch("renovate/foo"), KeyBranch, "renovate/foo"},
	}
	for _, c := range cases {
		require.Equal(t, c.key, c.attr.Key)
		require.Equal(t, c.val, c.attr.Value.String())
	}
}

func TestNumericHelpers(t *testing.T) {
	require.Equal(t, int64(3), Matches(3).Value.Int64())
	require.Equal(t, int64(404), Status(404).Value.Int64())
	require.InDelta(t, 1.5, Duration(1500*time.Microsecond).Value.Float64(), 1e-9)
}

func TestError(t *testing.T) {
	require.Equal(t, "", Error(nil).Value.String())
	require.Equal(t, "boom", Error(errors.New("boom")).Value.String())
}
