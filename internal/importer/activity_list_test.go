package importer

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const activityListCSV = `Link,User Link,Title,Workout Type,Date,Active Time
https://www.strava.com/activities/111,https://www.strava.com/athletes/501,Morning Run,Run,2023-01-15,45m
https://www.strava.com/activities/222,https://www.strava.com/athletes/502,Long Ride,Ride,2023-01-16,1h 30m
`

func TestParseActivityList(t *testing.T) {
	rows, err := ParseActivityList(strings.NewReader(activityListCSV), discardLogger())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "111", rows[0].ActivityID())
	assert.Equal(t, "501", rows[0].UserID())
	assert.Equal(t, "Morning Run", rows[0].Title)
	assert.Equal(t, "Run", rows[0].WorkoutType)
	assert.Equal(t, "2023-01-15", rows[0].Date)

	seconds, err := rows[0].ActiveSeconds()
	require.NoError(t, err)
	assert.Equal(t, 2700, seconds)

	seconds, err = rows[1].ActiveSeconds()
	require.NoError(t, err)
	assert.Equal(t, 5400, seconds)
}

func TestParseActivityListSkipsIncompleteRows(t *testing.T) {
	csv := `Link,User Link,Title,Workout Type,Date,Active Time
https://www.strava.com/activities/111,https://www.strava.com/athletes/501,Morning Run,Run,2023-01-15,45m
https://www.strava.com/activities/222,,Missing User,Run,2023-01-15,45m
https://www.strava.com/activities/333,https://www.strava.com/athletes/503,Short Row
`

	rows, err := ParseActivityList(strings.NewReader(csv), discardLogger())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "111", rows[0].ActivityID())
}

func TestParseActivityListEmptyInput(t *testing.T) {
	rows, err := ParseActivityList(strings.NewReader(""), discardLogger())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestActivityRowActivity(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	row := ActivityRow{
		Link:        "https://www.strava.com/activities/111",
		UserLink:    "https://www.strava.com/athletes/501",
		Title:       "Morning Run",
		WorkoutType: "Run",
		Date:        "2023-01-15",
		ActiveTime:  "1h 15m",
	}

	activity, err := row.Activity(loc)
	require.NoError(t, err)

	assert.Equal(t, "111", activity.ID)
	assert.Equal(t, "501", activity.UserID)
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, loc), activity.StartTime)
	assert.Equal(t, 4500, activity.ElapsedSeconds)
	require.NotNil(t, activity.MovingSeconds)
	assert.Equal(t, 4500, *activity.MovingSeconds)
	assert.Equal(t, "Run", activity.WorkoutType)
}

func TestActivityRowActivityInvalidFields(t *testing.T) {
	loc := time.UTC

	badDate := ActivityRow{Link: "x/1", UserLink: "y/2", Title: "t", WorkoutType: "Run", Date: "15-01-2023", ActiveTime: "45m"}
	_, err := badDate.Activity(loc)
	assert.Error(t, err)

	badDuration := ActivityRow{Link: "x/1", UserLink: "y/2", Title: "t", WorkoutType: "Run", Date: "2023-01-15", ActiveTime: "45"}
	_, err = badDuration.Activity(loc)
	assert.Error(t, err)
}
