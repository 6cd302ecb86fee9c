package stats

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"
)

// median of a non-empty sample, averaging the two middle values of an even
// sized one.
func median(values []float64) float64 {
	s := sortedCopy(values)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// medianDelta summarizes transition gaps in seconds, rounded to the second.
func medianDelta(deltas []float64) time.Duration {
	return time.Duration(math.RoundToEven(median(deltas))) * time.Second
}

// smallest sorts deltas ascending and keeps the first n.
func smallest(deltas []scored, n int) []scored {
	out := slices.Clone(deltas)
	slices.SortFunc(out, func(a, b scored) int {
		if c := cmp.Compare(a.Value, b.Value); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// FormatDelta renders a duration as "<days> days HH:MM:SS".
func FormatDelta(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	secs := int64(d / time.Second)
	days := secs / 86400
	secs %= 86400
	return fmt.Sprintf("%s%d days %02d:%02d:%02d", sign, days, secs/3600, secs%3600/60, secs%60)
}

func durationOf(v float64) time.Duration { return time.Duration(v) }
