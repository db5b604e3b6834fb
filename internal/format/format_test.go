package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0K"},
		{1234, "1.2K"},
		{78000, "78.0K"},
		{999_999, "1000.0K"},
		{1_000_000, "1.0M"},
		{1_900_000, "1.9M"},
		{2_300_000, "2.3M"},
		{12_345_678, "12.3M"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Count(tt.in), "Count(%d)", tt.in)
	}
}

func TestExact(t *testing.T) {
	assert.Equal(t, "1,900,000", Exact(1_900_000))
	assert.Equal(t, "35", Exact(35))
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		then time.Time
		want string
	}{
		{"seconds", now.Add(-30 * time.Second), "Just now"},
		{"59 minutes", now.Add(-59 * time.Minute), "Just now"},
		{"one hour", now.Add(-time.Hour), "1 hour ago"},
		{"just under two hours", now.Add(-119 * time.Minute), "1 hour ago"},
		{"five hours", now.Add(-5 * time.Hour), "5 hours ago"},
		{"23 hours", now.Add(-23*time.Hour - 59*time.Minute), "23 hours ago"},
		{"one day", now.Add(-24 * time.Hour), "1 day ago"},
		{"three days", now.Add(-80 * time.Hour), "3 days ago"},
		{"a year", now.Add(-365 * 24 * time.Hour), "365 days ago"},
		{"same instant", now, "Just now"},
		{"future", now.Add(3 * time.Hour), "Just now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeAgo(tt.then, now))
		})
	}
}
