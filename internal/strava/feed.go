// Package strava fetches club activity data from the Strava web feed. The
// feed endpoint serves the same JSON the club page renders from, so it needs
// only a logged-in session cookie rather than API credentials, and it carries
// richer per-activity stats than the public API.
package strava

import (
	"log/slog"
	"time"

	"github.com/challenge-tally/internal/domain"
)

// Athlete identifies the activity owner inside a feed entry.
type Athlete struct {
	AthleteID   string `json:"athleteId"`
	AthleteName string `json:"athleteName"`
}

// StatEntry is one rendered stat line on an activity card. Value is an HTML
// fragment; duration stats are recovered from it by MovingSecondsFromStats.
type StatEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FeedActivity is one activity as the club feed serves it.
type FeedActivity struct {
	ID           string      `json:"id"`
	Athlete      Athlete     `json:"athlete"`
	ActivityName string      `json:"activityName"`
	StartDate    string      `json:"startDate"`
	ElapsedTime  int         `json:"elapsedTime"`
	Stats        []StatEntry `json:"stats"`
	Type         string      `json:"type"`
}

type rowData struct {
	Activities []FeedActivity `json:"activities"`
}

type cursorData struct {
	UpdatedAt int64 `json:"updated_at"`
}

// FeedEntry is one row of the club feed. A row holds either a single
// activity or a group of activities; exactly one of Activity and RowData is
// set depending on the row shape.
type FeedEntry struct {
	CursorData cursorData    `json:"cursorData"`
	Activity   *FeedActivity `json:"activity,omitempty"`
	RowData    *rowData      `json:"rowData,omitempty"`
}

func (e FeedEntry) activities() []FeedActivity {
	if e.RowData != nil {
		return e.RowData.Activities
	}
	if e.Activity != nil {
		return []FeedActivity{*e.Activity}
	}
	return nil
}

type pagination struct {
	HasMore bool `json:"hasMore"`
}

// FeedResponse is one page of the club feed.
type FeedResponse struct {
	Entries    []FeedEntry `json:"entries"`
	Pagination pagination  `json:"pagination"`
}

// ActivitiesFromFeed flattens one feed page into domain activities. Entries
// whose start date cannot be parsed are dropped with a warning; a missing
// moving time leaves MovingSeconds nil rather than zero.
func ActivitiesFromFeed(feed *FeedResponse, logger *slog.Logger) []domain.Activity {
	var activities []domain.Activity
	for _, entry := range feed.Entries {
		for _, feedActivity := range entry.activities() {
			startTime, err := time.Parse(time.RFC3339, feedActivity.StartDate)
			if err != nil {
				logger.Warn("skipping activity with unparseable start date",
					"activity_id", feedActivity.ID,
					"start_date", feedActivity.StartDate)
				continue
			}

			var movingSeconds *int
			if seconds, ok := MovingSecondsFromStats(feedActivity.Stats); ok {
				movingSeconds = &seconds
			} else {
				logger.Debug("no moving time found for activity", "activity_id", feedActivity.ID)
			}

			activities = append(activities, domain.Activity{
				ID:             feedActivity.ID,
				UserID:         feedActivity.Athlete.AthleteID,
				StartTime:      startTime,
				ElapsedSeconds: feedActivity.ElapsedTime,
				MovingSeconds:  movingSeconds,
				Title:          feedActivity.ActivityName,
				WorkoutType:    feedActivity.Type,
			})
		}
	}
	return activities
}
