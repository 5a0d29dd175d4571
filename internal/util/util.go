// Package util renders limits and waits in the short form used by API error details.
package util

import (
	"strconv"
	"time"
)

var byteUnits = [...]string{"KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n in binary units with one decimal, e.g. "20.0 MB". Values below 1 KiB stay exact.
func FormatBytes(n int64) string {
	if n < 1024 {
		return strconv.FormatInt(n, 10) + " B"
	}

	value := float64(n) / 1024
	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}

	return strconv.FormatFloat(value, 'f', 1, 64) + " " + byteUnits[unit]
}

// FormatDuration rounds d to the second and keeps the two most significant parts: "45s", "5m10s", "1h30m".
func FormatDuration(d time.Duration) string {
	secs := int64(d.Round(time.Second) / time.Second)
	h, m, s := secs/3600, secs/60%60, secs%60

	switch {
	case h > 0:
		return strconv.FormatInt(h, 10) + "h" + strconv.FormatInt(m, 10) + "m"
	case m > 0:
		return strconv.FormatInt(m, 10) + "m" + strconv.FormatInt(s, 10) + "s"
	default:
		return strconv.FormatInt(s, 10) + "s"
	}
}
