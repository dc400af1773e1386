package strava

import (
	"regexp"
	"strconv"
)

// Stat line values embed durations as HTML, e.g.
// "1<abbr class='unit' title='hour'>h</abbr> 22<abbr title='minute'>m</abbr>".
// Each unit is recognized by the title attribute of the tag that follows the
// number, so attribute order and class names do not matter. A number inside a
// tag, or a title like 'minutes', does not match.
var unitPatterns = []struct {
	re      *regexp.Regexp
	seconds int
}{
	{regexp.MustCompile(`(\d+)\s*<[^<>]*title='hour'[^<>]*>`), 3600},
	{regexp.MustCompile(`(\d+)\s*<[^<>]*title='minute'[^<>]*>`), 60},
	{regexp.MustCompile(`(\d+)\s*<[^<>]*title='second'[^<>]*>`), 1},
}

func movingSecondsFromValue(value string) (int, bool) {
	total := 0
	matched := false
	for _, unit := range unitPatterns {
		if m := unit.re.FindStringSubmatch(value); m != nil {
			n, _ := strconv.Atoi(m[1])
			total += n * unit.seconds
			matched = true
		}
	}
	return total, matched
}

// MovingSecondsFromStats scans an activity's stat lines for one that encodes
// a duration and returns it in seconds. Any subset of hour, minute and second
// units counts; the first stat line with at least one matched unit wins. The
// second return is false when no line encodes a duration, which is distinct
// from a duration of zero.
func MovingSecondsFromStats(stats []StatEntry) (int, bool) {
	for _, entry := range stats {
		if seconds, ok := movingSecondsFromValue(entry.Value); ok {
			return seconds, true
		}
	}
	return 0, false
}
