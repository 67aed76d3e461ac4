package model

import (
	"strconv"
	"strings"
)

// NormalizeZip returns the canonical text form of a zipcode so that values
// read as "98178", " 98178 " or 98178.0 all compare equal.
func NormalizeZip(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}
