package score

// pointThresholds awards extra points once a day's active minutes reach each
// threshold. Thresholds are evaluated independently: every met threshold
// adds on top of the hourly base points.
var pointThresholds = []struct {
	minutes int
	points  int
}{
	{minutes: 30, points: 5},
	{minutes: 60, points: 2},
	{minutes: 120, points: 1},
}

const (
	streakBonusPoints   = 5
	streakBonusInterval = 7
	teamBonusPoints     = 5
)

// ActivityPoints converts a day's active seconds into points: one point per
// full hour of active time plus the threshold bonuses at 30, 60 and 120
// minutes.
func ActivityPoints(activeSeconds int) int {
	activeMinutes := activeSeconds / 60
	points := activeMinutes / 60
	for _, threshold := range pointThresholds {
		if activeMinutes >= threshold.minutes {
			points += threshold.points
		}
	}
	return points
}

// StreakBonus awards a flat bonus for every 7th consecutive active day.
func StreakBonus(streak int) int {
	if streak > 0 && streak%streakBonusInterval == 0 {
		return streakBonusPoints
	}
	return 0
}

// TeamBonus awards a flat bonus when every roster member was active with
// points on a given day. Teams with an empty roster never earn the bonus.
func TeamBonus(activeUserCount, rosterSize int) int {
	if rosterSize > 0 && activeUserCount == rosterSize {
		return teamBonusPoints
	}
	return 0
}
