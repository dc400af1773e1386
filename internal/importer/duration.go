// Package importer reads the operator-maintained CSV files: the user list
// that seeds teams and rosters, and activity lists exported from a previous
// run or assembled by hand.
package importer

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/challenge-tally/internal/domain"
)

// Durations in activity lists are informal, "1h 15m" or "45m". Hours are
// optional, minutes are mandatory, whitespace between tokens is not
// significant.
var durationPattern = regexp.MustCompile(`^\s*(?:(\d+)\s*h)?\s*(\d+)\s*m\s*$`)

// ParseDuration converts an "Xh Ym" duration string to seconds. Returns
// domain.ErrInvalidDuration when the mandatory minutes component cannot be
// matched.
func ParseDuration(text string) (int, error) {
	m := durationPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("parsing duration %q: %w", text, domain.ErrInvalidDuration)
	}

	hours := 0
	if m[1] != "" {
		hours, _ = strconv.Atoi(m[1])
	}
	minutes, _ := strconv.Atoi(m[2])
	return hours*3600 + minutes*60, nil
}
