package utils

import (
	"fmt"
	"strings"
)

// SafeArea reduces a full address to its first two comma-separated parts, a
// coarse label safe to show to non-participants.
func SafeArea(address string) string {
	if address == "" {
		return "Selected area"
	}
	parts := strings.Split(address, ",")
	kept := make([]string, 0, 2)
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kept = append(kept, p)
		if len(kept) == 2 {
			break
		}
	}
	if len(kept) == 0 {
		return address
	}
	return strings.Join(kept, ", ")
}

// MapLink builds a shareable map URL for a coordinate.
func MapLink(lat, lng float64) string {
	return fmt.Sprintf("https://maps.google.com/?q=%f,%f", lat, lng)
}

// Truncate limits a string to max runes.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// ClampInt bounds v to [min, max].
func ClampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
