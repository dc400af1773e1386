package importer

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/challenge-tally/internal/domain"
)

// ActivityRow is one line of an activity list CSV. Link and UserLink are
// Strava URLs whose trailing path segment is the ID; Date is a local
// calendar date and ActiveTime an "Xh Ym" duration.
type ActivityRow struct {
	Link        string
	UserLink    string
	Title       string
	WorkoutType string
	Date        string
	ActiveTime  string
}

// ActivityID returns the activity ID embedded in the row's link.
func (r ActivityRow) ActivityID() string { return lastPathSegment(r.Link) }

// UserID returns the athlete ID embedded in the row's user link.
func (r ActivityRow) UserID() string { return lastPathSegment(r.UserLink) }

// ActiveSeconds parses the row's active time.
func (r ActivityRow) ActiveSeconds() (int, error) { return ParseDuration(r.ActiveTime) }

func (r ActivityRow) incomplete() bool {
	return r.Link == "" || r.UserLink == "" || r.Title == "" ||
		r.WorkoutType == "" || r.Date == "" || r.ActiveTime == ""
}

// Activity converts the row into a domain activity. A list row carries no
// start instant, only a local date, so the activity is pinned to the start
// of that day in loc. The parsed active time is recorded as both elapsed and
// moving seconds so the scoring selection rule yields it either way.
func (r ActivityRow) Activity(loc *time.Location) (domain.Activity, error) {
	date, err := domain.ParseDate(r.Date)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("activity %s: %w", r.ActivityID(), err)
	}
	activeSeconds, err := r.ActiveSeconds()
	if err != nil {
		return domain.Activity{}, fmt.Errorf("activity %s: %w", r.ActivityID(), err)
	}

	moving := activeSeconds
	return domain.Activity{
		ID:             r.ActivityID(),
		UserID:         r.UserID(),
		StartTime:      date.StartOfDay(loc),
		ElapsedSeconds: activeSeconds,
		MovingSeconds:  &moving,
		Title:          r.Title,
		WorkoutType:    r.WorkoutType,
	}, nil
}

// ParseActivityList reads an activity list CSV. Expected headers (case and
// spacing insensitive): Link, User Link, Title, Workout Type, Date, Active
// Time. Rows with any empty field are skipped with a warning rather than
// failing the whole import.
func ParseActivityList(r io.Reader, logger *slog.Logger) ([]ActivityRow, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, fmt.Errorf("parsing activity list: %w", err)
	}

	var rows []ActivityRow
	skipped := 0
	for i, record := range records {
		row := ActivityRow{
			Link:        record["link"],
			UserLink:    record["user_link"],
			Title:       record["title"],
			WorkoutType: record["workout_type"],
			Date:        record["date"],
			ActiveTime:  record["active_time"],
		}
		if row.incomplete() {
			logger.Warn("skipping incomplete activity row", "row", i+1)
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	logger.Info("parsed activity list", "rows", len(rows), "skipped", skipped)
	return rows, nil
}
