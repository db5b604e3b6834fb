package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339", `"2026-03-01T10:30:00Z"`, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"offset", `"2026-03-01T12:30:00+02:00"`, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"no zone", `"2026-03-01T10:30:00"`, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"fractional no zone", `"2026-03-01T10:30:00.123456"`, time.Date(2026, 3, 1, 10, 30, 0, 123456000, time.UTC)},
		{"space separated", `"2026-03-01 10:30:00"`, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"date only", `"2026-03-01"`, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"epoch millis", `1772361000000`, time.UnixMilli(1772361000000).UTC()},
		{"garbage", `"last tuesday"`, time.Time{}},
		{"null", `null`, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "want %v, got %v", tt.want, ts.Time)
		})
	}
}

func TestTimestamp_UnparseableDoesNotFailRecord(t *testing.T) {
	var c Crisis
	err := json.Unmarshal([]byte(`{"crisis_id":"x","last_updated":"soon","timestamp_verified":"2026-01-02T00:00:00Z"}`), &c)
	require.NoError(t, err)

	assert.False(t, c.LastUpdated.Known())
	assert.True(t, c.TimestampVerified.Known())

	var missing Crisis
	require.NoError(t, json.Unmarshal([]byte(`{"crisis_id":"y"}`), &missing))
	assert.False(t, missing.LastUpdated.Known())
}

func TestTimestamp_MarshalZeroIsNull(t *testing.T) {
	out, err := json.Marshal(struct {
		At Timestamp `json:"at"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":null}`, string(out))
}
