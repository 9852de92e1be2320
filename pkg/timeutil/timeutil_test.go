package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseStartTime(t *testing.T) {
	ts, err := ParseStartTime("2026-08-27 14:30")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 8, 27, 14, 30, 0, 0, time.UTC), ts)

	_, err = ParseStartTime("27/08/2026 14:30")
	require.Error(t, err)
}

func TestStampTruncatesToMinute(t *testing.T) {
	ts := time.Date(2026, 8, 27, 14, 30, 59, 999, time.UTC)
	require.Equal(t, "20260827-1430", Stamp(ts))

	// Non-UTC inputs are stamped in UTC.
	loc := time.FixedZone("CEST", 2*3600)
	require.Equal(t, "20260827-1430", Stamp(time.Date(2026, 8, 27, 16, 30, 10, 0, loc)))
}
