package util

import (
	"fmt"
	"math"
)

// FormatDuration renders a duration in seconds as H:MM:SS, or M:SS when it
// is under an hour. Unknown (non-positive) durations render as "--:--".
func FormatDuration(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) {
		return "--:--"
	}
	total := int(math.Round(seconds))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
