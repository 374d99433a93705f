package utils

import (
	"time"
)

// PosixSeconds converts a timestamp to fractional seconds since the Unix epoch.
func PosixSeconds(value time.Time) float64 {
	if value.IsZero() {
		return 0
	}
	return float64(value.UnixNano()) / float64(time.Second)
}
