package score

import (
	"sort"

	"github.com/challenge-tally/internal/domain"
)

// UserDailyScore is the computed point total for one user on one day,
// including threshold and streak bonuses. Immutable once created.
type UserDailyScore struct {
	UserID string
	Date   domain.Date
	Points int
}

// UserDailyScores converts per-day active time into points with streak
// bonuses applied. A streak counts consecutive calendar days with active
// seconds > 0: each entry looks up the streak recorded for the same user on
// the literal previous date, so correctness does not depend on input order —
// entries are walked in date order internally. A day with zero active
// seconds records a streak of 0, and a missing day leaves the lookup empty;
// either breaks the chain. The output carries one score per input entry, in
// input order.
func UserDailyScores(activeTimes []UserActiveTime) []UserDailyScore {
	order := make([]int, len(activeTimes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return activeTimes[order[a]].Date.Before(activeTimes[order[b]].Date)
	})

	scores := make([]UserDailyScore, len(activeTimes))
	streaks := make(map[userDayKey]int)

	for _, i := range order {
		entry := activeTimes[i]
		streak := 0
		if entry.ActiveSeconds > 0 {
			streak = streaks[userDayKey{userID: entry.UserID, date: entry.Date.Prev()}] + 1
		}
		streaks[userDayKey{userID: entry.UserID, date: entry.Date}] = streak

		scores[i] = UserDailyScore{
			UserID: entry.UserID,
			Date:   entry.Date,
			Points: ActivityPoints(entry.ActiveSeconds) + StreakBonus(streak),
		}
	}

	return scores
}
