package timefmt

import (
	"fmt"
	"time"
)

// Remaining renders a duration the way users read countdowns: seconds under
// a minute, minutes and seconds up to five minutes, then coarser units.
func Remaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int(d.Seconds())
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d seconds", seconds)
	case seconds <= 300:
		minutes := seconds / 60
		secs := seconds % 60
		if secs > 0 {
			return fmt.Sprintf("%s %s", plural(minutes, "minute"), plural(secs, "second"))
		}
		return plural(minutes, "minute")
	case seconds < 3600:
		return plural(seconds/60, "minute")
	default:
		hours := seconds / 3600
		minutes := (seconds % 3600) / 60
		if minutes > 0 {
			return fmt.Sprintf("%s %s", plural(hours, "hour"), plural(minutes, "minute"))
		}
		return plural(hours, "hour")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
