// Package score implements the challenge scoring pipeline: it turns a raw
// activity stream into per-user daily active time, per-user daily points,
// per-team daily points and ranked cumulative team totals. Every stage is a
// pure function over in-memory collections; persistence and ingestion live
// elsewhere.
package score

import (
	"fmt"
	"time"

	"github.com/challenge-tally/internal/domain"
)

// Config fixes the scoring window and the time zone used to localize
// activity start instants to calendar dates. It is constructed once per
// scoring run and read-only afterwards.
type Config struct {
	StartDate domain.Date
	EndDate   domain.Date
	Location  *time.Location
}

// NewConfig builds a Config for the inclusive [start, end] window. timeZone
// is an IANA zone name such as "America/Los_Angeles".
func NewConfig(start, end domain.Date, timeZone string) (Config, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return Config{}, fmt.Errorf("loading time zone %q: %w", timeZone, err)
	}
	return Config{StartDate: start, EndDate: end, Location: loc}, nil
}
