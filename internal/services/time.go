package services

import (
	"strconv"
	"time"
)

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// FormatRemaining renders the time left until deadline for announcements,
// using the largest unit that fits.
func FormatRemaining(now, deadline time.Time) string {
	left := deadline.Sub(now)
	if left <= 0 {
		return "ended"
	}
	switch {
	case left >= 24*time.Hour:
		return plural(int(left/(24*time.Hour)), "day")
	case left >= time.Hour:
		return plural(int(left/time.Hour), "hour")
	case left >= time.Minute:
		return plural(int(left/time.Minute), "minute")
	default:
		return plural(int(left/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
