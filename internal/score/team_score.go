package score

import (
	"fmt"
	"sort"

	"github.com/challenge-tally/internal/domain"
)

// TeamDailyScore groups the user scores contributed by one team's roster on
// one day. Roster holds every member of the team, active or not, so the
// full-participation bonus can be evaluated against the whole team.
type TeamDailyScore struct {
	TeamID     string
	Date       domain.Date
	Roster     []domain.User
	UserScores []UserDailyScore
}

// Points sums the member scores plus the full-participation team bonus.
// Computed on demand so scores added after grouping are always reflected.
func (s TeamDailyScore) Points() int {
	points := 0
	activeCount := 0
	for _, userScore := range s.UserScores {
		points += userScore.Points
		if userScore.Points > 0 {
			activeCount++
		}
	}
	return points + TeamBonus(activeCount, len(s.Roster))
}

type teamDayKey struct {
	teamID string
	date   domain.Date
}

// TeamDailyScores groups user daily scores by (team, date). users must hold
// every challenge participant, including those with no scores: the roster is
// built from it and every scored user is resolved through it. A user whose
// team has no roster entry returns domain.ErrUnknownTeamForUser — that means
// the activity stream and the roster snapshot are inconsistent, and no
// partial result is produced.
func TeamDailyScores(userScores []UserDailyScore, users []domain.User) ([]TeamDailyScore, error) {
	rosters := make(map[string][]domain.User)
	teamByUser := make(map[string]string, len(users))
	for _, user := range users {
		rosters[user.TeamID] = append(rosters[user.TeamID], user)
		teamByUser[user.ID] = user.TeamID
	}

	index := make(map[teamDayKey]int)
	var out []TeamDailyScore

	for _, userScore := range userScores {
		teamID, ok := teamByUser[userScore.UserID]
		if !ok {
			return nil, fmt.Errorf("user %s: %w", userScore.UserID, domain.ErrUnknownTeamForUser)
		}

		key := teamDayKey{teamID: teamID, date: userScore.Date}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, TeamDailyScore{
				TeamID: teamID,
				Date:   userScore.Date,
				Roster: rosters[teamID],
			})
		}
		out[i].UserScores = append(out[i].UserScores, userScore)
	}

	return out, nil
}

// TeamCumulativeScore is a team's running point total across the scoring
// window.
type TeamCumulativeScore struct {
	TeamID string
	Points int
}

// TeamCumulativeScores folds team daily scores into one total per team,
// ranked by points descending. Every team referenced in users appears even
// with no daily scores; a team referenced only by daily scores is tolerated
// and created on the fly. The sort is stable, so equal totals keep their
// first-seen order.
func TeamCumulativeScores(teamScores []TeamDailyScore, users []domain.User) []TeamCumulativeScore {
	index := make(map[string]int)
	var out []TeamCumulativeScore

	entry := func(teamID string) int {
		i, ok := index[teamID]
		if !ok {
			i = len(out)
			index[teamID] = i
			out = append(out, TeamCumulativeScore{TeamID: teamID})
		}
		return i
	}

	for _, user := range users {
		entry(user.TeamID)
	}
	for _, teamScore := range teamScores {
		out[entry(teamScore.TeamID)].Points += teamScore.Points()
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Points > out[b].Points
	})
	return out
}
