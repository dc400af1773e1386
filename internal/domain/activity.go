package domain

import "time"

// Activity is a single workout record, fetched from a club feed or imported
// from a CSV export. ElapsedSeconds is always present; MovingSeconds is nil
// when the upstream feed did not report a moving time for the activity.
type Activity struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	StartTime      time.Time `json:"start_time"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	MovingSeconds  *int      `json:"moving_seconds,omitempty"`
	Title          string    `json:"title"`
	WorkoutType    string    `json:"workout_type"`
}
