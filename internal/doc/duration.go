package doc

import (
	"math"
	"strconv"
	"time"
)

var durationUnits = []struct {
	size   time.Duration
	suffix string
}{
	{24 * time.Hour, "d"},
	{time.Hour, "h"},
	{time.Minute, "m"},
	{time.Second, "s"},
	{time.Millisecond, "ms"},
	{time.Microsecond, "micros"},
	{time.Nanosecond, "nanos"},
}

// FormatDuration renders d in the largest unit it fills, with at most one
// decimal: 10m, 1.5h, 250ms. Zero renders as 0s.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	for i, u := range durationUnits {
		if d < u.size {
			continue
		}
		v := math.Round(float64(d)/float64(u.size)*10) / 10
		// Rounding up can fill the next unit: 59.96s is 1m, not 60s.
		if i > 0 && v*float64(u.size) >= float64(durationUnits[i-1].size) {
			u = durationUnits[i-1]
			v = math.Round(float64(d)/float64(u.size)*10) / 10
		}
		return sign + strconv.FormatFloat(v, 'f', -1, 64) + u.suffix
	}
	return sign + strconv.FormatInt(int64(d), 10) + "nanos"
}
