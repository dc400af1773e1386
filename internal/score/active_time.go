package score

import "github.com/challenge-tally/internal/domain"

// movingTimeWorkoutTypes are the workout types where the feed's auto-pause
// keeps moving time honest; for these, moving time is the fairer active-time
// measure when the user forgets to end the activity. Other types (Yoga,
// Swim, ...) have no auto-pause and elapsed time is authoritative.
var movingTimeWorkoutTypes = map[string]bool{
	"Walk":      true,
	"Run":       true,
	"EBikeRide": true,
	"Ride":      true,
	"Hike":      true,
}

// ActiveSeconds returns the portion of an activity's duration that counts
// toward scoring.
func ActiveSeconds(activity domain.Activity) int {
	if movingTimeWorkoutTypes[activity.WorkoutType] && activity.MovingSeconds != nil {
		return *activity.MovingSeconds
	}
	return activity.ElapsedSeconds
}

// UserActiveTime accumulates a user's active seconds on one local calendar
// day.
type UserActiveTime struct {
	UserID        string
	Date          domain.Date
	ActiveSeconds int
}

type userDayKey struct {
	userID string
	date   domain.Date
}

// UserActiveTimes groups activities by (user, local date) and sums each
// day's active seconds. An activity's date is its start instant localized to
// cfg.Location; activities landing strictly outside [cfg.StartDate,
// cfg.EndDate] are dropped. Output holds one entry per (user, date) key in
// first-seen order; callers must not depend on any particular ordering.
func UserActiveTimes(activities []domain.Activity, cfg Config) []UserActiveTime {
	index := make(map[userDayKey]int)
	var out []UserActiveTime

	for _, activity := range activities {
		date := domain.DateOf(activity.StartTime, cfg.Location)
		if date.Before(cfg.StartDate) || date.After(cfg.EndDate) {
			continue
		}

		key := userDayKey{userID: activity.UserID, date: date}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, UserActiveTime{UserID: activity.UserID, Date: date})
		}
		out[i].ActiveSeconds += ActiveSeconds(activity)
	}

	return out
}
