package extractor

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber converts a numeric token as printed in lab reports. A comma is
// read as the decimal separator. When both separators appear the last one is
// the decimal separator and the other groups thousands. Trailing separators
// are ignored. Negative and non-finite values are rejected.
func ParseNumber(token string) (float64, bool) {
	s := strings.TrimSpace(token)
	s = strings.TrimRight(s, ".,")
	if s == "" {
		return 0, false
	}

	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	default:
		s = strings.ReplaceAll(s, ",", ".")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
