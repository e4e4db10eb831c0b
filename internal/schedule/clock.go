package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock converts "HH:MM" or "HH:MM:SS" to minutes since midnight.
// Seconds are accepted for storage compatibility but must be zero.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec != 0 {
			return 0, fmt.Errorf("invalid seconds in %q", s)
		}
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM:SS", the format
// appointment start times are stored and returned in.
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d:00", min/60, min%60)
}
