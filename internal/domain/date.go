package domain

import (
	"fmt"
	"time"
)

// Date is a calendar date with no time component. Unlike time.Time it is
// safe to use as a map key: two dates are equal iff they name the same day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in the given location. This is a
// timezone conversion, not a truncation: an instant near midnight UTC may
// land on a different local day.
func DateOf(t time.Time, loc *time.Location) Date {
	year, month, day := t.In(loc).Date()
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return DateOf(t, time.UTC), nil
}

func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Prev returns the previous calendar day.
func (d Date) Prev() Date { return DateOf(d.utc().AddDate(0, 0, -1), time.UTC) }

// Next returns the next calendar day.
func (d Date) Next() Date { return DateOf(d.utc().AddDate(0, 0, 1), time.UTC) }

// Before reports whether d names an earlier day than other.
func (d Date) Before(other Date) bool { return d.utc().Before(other.utc()) }

// After reports whether d names a later day than other.
func (d Date) After(other Date) bool { return d.utc().After(other.utc()) }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// StartOfDay returns midnight at the beginning of d in the given location.
func (d Date) StartOfDay(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) String() string { return d.utc().Format("2006-01-02") }

// MarshalText implements encoding.TextMarshaler so Date fields serialize as
// YYYY-MM-DD in JSON payloads.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
