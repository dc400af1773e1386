// Package export writes challenge data as CSV, in the same column layout the
// importer reads back.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/challenge-tally/internal/domain"
	"github.com/challenge-tally/internal/score"
)

// ActivityLink returns the public Strava URL for an activity.
func ActivityLink(activityID string) string {
	return "https://www.strava.com/activities/" + activityID
}

// UserLink returns the public Strava URL for an athlete profile.
func UserLink(userID string) string {
	return "https://www.strava.com/athletes/" + userID
}

// FormatDuration renders seconds as the informal "Xh Ym" form the activity
// list uses, dropping the hour component when zero. Partial minutes are
// truncated.
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := seconds % 3600 / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// WriteActivities writes activities as an activity list CSV that
// ParseActivityList can read back. Each activity's date is its start
// localized to loc, and the active time column carries the seconds that
// would count toward scoring.
func WriteActivities(w io.Writer, activities []domain.Activity, loc *time.Location) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"Link", "User Link", "Title", "Workout Type", "Date", "Active Time"}); err != nil {
		return fmt.Errorf("writing activity header: %w", err)
	}
	for _, activity := range activities {
		record := []string{
			ActivityLink(activity.ID),
			UserLink(activity.UserID),
			activity.Title,
			activity.WorkoutType,
			domain.DateOf(activity.StartTime, loc).String(),
			FormatDuration(score.ActiveSeconds(activity)),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing activity %s: %w", activity.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteStandings writes the ranked team standings. Standings are written in
// the order given; a missing team name falls back to the team ID.
func WriteStandings(w io.Writer, standings []domain.TeamStanding) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"Team", "Points"}); err != nil {
		return fmt.Errorf("writing score header: %w", err)
	}
	for _, standing := range standings {
		name := standing.Name
		if name == "" {
			name = standing.TeamID
		}
		if err := writer.Write([]string{name, fmt.Sprintf("%d", standing.Points)}); err != nil {
			return fmt.Errorf("writing score for team %s: %w", standing.TeamID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
