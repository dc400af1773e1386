package strava

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func feedActivity(id, athleteID, start string) FeedActivity {
	return FeedActivity{
		ID:           id,
		Athlete:      Athlete{AthleteID: athleteID, AthleteName: "Athlete " + athleteID},
		ActivityName: "Morning Run",
		StartDate:    start,
		ElapsedTime:  3600,
		Type:         "Run",
	}
}

func TestActivitiesFromFeedSingleActivityEntries(t *testing.T) {
	activity := feedActivity("a1", "user1", "2024-01-15T10:00:00Z")
	activity.Stats = []StatEntry{
		{Key: "moving_time", Value: "55<abbr class='unit' title='minute'>m</abbr>"},
	}
	feed := &FeedResponse{
		Entries: []FeedEntry{{Activity: &activity}},
	}

	result := ActivitiesFromFeed(feed, discardLogger())

	require.Len(t, result, 1)
	assert.Equal(t, "a1", result[0].ID)
	assert.Equal(t, "user1", result[0].UserID)
	assert.Equal(t, "Morning Run", result[0].Title)
	assert.Equal(t, "Run", result[0].WorkoutType)
	assert.Equal(t, 3600, result[0].ElapsedSeconds)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), result[0].StartTime.UTC())
	require.NotNil(t, result[0].MovingSeconds)
	assert.Equal(t, 55*60, *result[0].MovingSeconds)
}

func TestActivitiesFromFeedGroupedEntries(t *testing.T) {
	feed := &FeedResponse{
		Entries: []FeedEntry{
			{
				RowData: &rowData{Activities: []FeedActivity{
					feedActivity("a1", "user1", "2024-01-15T10:00:00Z"),
					feedActivity("a2", "user2", "2024-01-15T10:05:00Z"),
				}},
			},
			{Activity: ptrActivity(feedActivity("a3", "user3", "2024-01-15T11:00:00Z"))},
		},
	}

	result := ActivitiesFromFeed(feed, discardLogger())

	require.Len(t, result, 3)
	assert.Equal(t, "a1", result[0].ID)
	assert.Equal(t, "a2", result[1].ID)
	assert.Equal(t, "a3", result[2].ID)
}

func TestActivitiesFromFeedMissingMovingTime(t *testing.T) {
	activity := feedActivity("a1", "user1", "2024-01-15T10:00:00Z")
	activity.Stats = []StatEntry{{Key: "distance", Value: "5.2 km"}}
	feed := &FeedResponse{Entries: []FeedEntry{{Activity: &activity}}}

	result := ActivitiesFromFeed(feed, discardLogger())

	require.Len(t, result, 1)
	assert.Nil(t, result[0].MovingSeconds)
}

func TestActivitiesFromFeedSkipsUnparseableStartDate(t *testing.T) {
	bad := feedActivity("a1", "user1", "not-a-date")
	good := feedActivity("a2", "user2", "2024-01-15T10:00:00Z")
	feed := &FeedResponse{
		Entries: []FeedEntry{{Activity: &bad}, {Activity: &good}},
	}

	result := ActivitiesFromFeed(feed, discardLogger())

	require.Len(t, result, 1)
	assert.Equal(t, "a2", result[0].ID)
}

func TestActivitiesFromFeedEmptyFeed(t *testing.T) {
	assert.Empty(t, ActivitiesFromFeed(&FeedResponse{}, discardLogger()))
}

func ptrActivity(a FeedActivity) *FeedActivity { return &a }
