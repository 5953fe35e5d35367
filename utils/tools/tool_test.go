package tools

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMapPeriodToCandleEndpoint(t *testing.T) {
	endpoint, err := MapPeriodToCandleEndpoint("1h")
	require.NoError(t, err)
	require.Equal(t, "minutes/60", endpoint)

	_, err = MapPeriodToCandleEndpoint("2h")
	require.Error(t, err)
}

func TestWarmupStart(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	got, err := WarmupStart(start, "1d", 3)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), got)

	_, err = WarmupStart(start, "7x", 3)
	require.Error(t, err)
}
