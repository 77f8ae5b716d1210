package availability

import (
	"strconv"
	"strings"
)

// Minutes converts a wall-clock "HH:MM" (optionally "HH:MM:SS") string into
// minutes since midnight. Anything it cannot read counts as midnight.
func Minutes(s string) int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0
	}
	return h*60 + m
}
