// Package format renders impact counts and timestamps for display.
package format

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Count abbreviates n with one decimal: 1234 -> "1.2K", 2300000 -> "2.3M".
// Values under a thousand are printed as is.
func Count(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1e6)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1e3)
	default:
		return strconv.FormatInt(n, 10)
	}
}

// Exact prints n with thousands separators.
func Exact(n int64) string {
	return humanize.Comma(n)
}

var agoMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Hour, Format: "Just now", DivBy: time.Second},
	{D: 2 * time.Hour, Format: "%d hour %s", DivBy: time.Hour},
	{D: 24 * time.Hour, Format: "%d hours %s", DivBy: time.Hour},
	{D: 48 * time.Hour, Format: "%d day %s", DivBy: 24 * time.Hour},
	{D: math.MaxInt64, Format: "%d days %s", DivBy: 24 * time.Hour},
}

// TimeAgo describes then relative to now in whole days or hours, or
// "Just now" under an hour. Times in the future are "Just now".
func TimeAgo(then, now time.Time) string {
	if !then.Before(now) {
		return "Just now"
	}
	return humanize.CustomRelTime(then, now, "ago", "from now", agoMagnitudes)
}
