package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		in   string
		want Timeframe
		ok   bool
	}{
		{"", Timeframe30d, true},
		{"7d", Timeframe7d, true},
		{" 90D ", Timeframe90d, true},
		{"1y", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseTimeframe(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, 7*24*time.Hour, Timeframe7d.Lookback())
}

func TestRecallRateJSON(t *testing.T) {
	raw, err := json.Marshal(NewRecallRate(7, 100))
	require.NoError(t, err)
	assert.JSONEq(t, `"7.00"`, string(raw))

	raw, err = json.Marshal(NewRecallRate(0, 0))
	require.NoError(t, err)
	assert.Equal(t, `0`, string(raw))

	assert.Equal(t, "33.33", NewRecallRate(1, 3).String())
}
