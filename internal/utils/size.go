package utils

import (
	"strconv"
	"strings"
)

const (
	byteUnitStep      = 1024
	unlimitedSizeText = "unlimited"
)

var byteUnitSuffixes = []string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize renders a byte count with a lower-case binary unit, keeping
// one decimal below ten units ("1.5kb", "10mb", "512b").
func FormatFileSize(byteCount uint64) string {
	if byteCount < byteUnitStep {
		return strconv.FormatUint(byteCount, 10) + byteUnitSuffixes[0]
	}
	scaled := float64(byteCount)
	suffixIndex := 0
	for scaled >= byteUnitStep && suffixIndex < len(byteUnitSuffixes)-1 {
		scaled /= byteUnitStep
		suffixIndex++
	}
	precision := 0
	if scaled < 10 {
		precision = 1
	}
	formatted := strings.TrimSuffix(strconv.FormatFloat(scaled, 'f', precision, 64), ".0")
	return formatted + byteUnitSuffixes[suffixIndex]
}

// FormatSizeLimit renders a content size limit, where nil means no limit.
func FormatSizeLimit(limit *uint64) string {
	if limit == nil {
		return unlimitedSizeText
	}
	return FormatFileSize(*limit)
}
