package score

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/challenge-tally/internal/domain"
)

func challengeRoster() []domain.User {
	return []domain.User{
		{ID: "alice", Name: "Alice", TeamID: "team1"},
		{ID: "bob", Name: "Bob", TeamID: "team1"},
		{ID: "carol", Name: "Carol", TeamID: "team2"},
		{ID: "dave", Name: "Dave", TeamID: "team3"},
	}
}

func userScore(t *testing.T, userID, date string, points int) UserDailyScore {
	t.Helper()
	return UserDailyScore{UserID: userID, Date: mustDate(t, date), Points: points}
}

func TestTeamDailyScoresGroupsByTeamAndDate(t *testing.T) {
	users := challengeRoster()
	scores := []UserDailyScore{
		userScore(t, "alice", "2023-01-10", 8),
		userScore(t, "bob", "2023-01-10", 5),
		userScore(t, "alice", "2023-01-11", 5),
		userScore(t, "carol", "2023-01-10", 10),
	}

	result, err := TeamDailyScores(scores, users)
	require.NoError(t, err)

	require.Len(t, result, 3)

	assert.Equal(t, "team1", result[0].TeamID)
	assert.Equal(t, "2023-01-10", result[0].Date.String())
	assert.Len(t, result[0].UserScores, 2)
	assert.Len(t, result[0].Roster, 2)

	assert.Equal(t, "team1", result[1].TeamID)
	assert.Equal(t, "2023-01-11", result[1].Date.String())
	assert.Len(t, result[1].UserScores, 1)
	assert.Len(t, result[1].Roster, 2, "roster is the full team, not just scorers")

	assert.Equal(t, "team2", result[2].TeamID)
	assert.Len(t, result[2].Roster, 1)
}

func TestTeamDailyScorePoints(t *testing.T) {
	users := challengeRoster()

	tests := []struct {
		name   string
		scores []UserDailyScore
		teamID string
		want   int
	}{
		{
			name: "full roster active earns the bonus",
			scores: []UserDailyScore{
				userScore(t, "alice", "2023-01-10", 8),
				userScore(t, "bob", "2023-01-10", 5),
			},
			teamID: "team1",
			want:   8 + 5 + 5,
		},
		{
			name: "partial roster gets no bonus",
			scores: []UserDailyScore{
				userScore(t, "alice", "2023-01-10", 8),
			},
			teamID: "team1",
			want:   8,
		},
		{
			name: "zero-point score does not count as active",
			scores: []UserDailyScore{
				userScore(t, "alice", "2023-01-10", 8),
				userScore(t, "bob", "2023-01-10", 0),
			},
			teamID: "team1",
			want:   8,
		},
		{
			name: "solo team fully active",
			scores: []UserDailyScore{
				userScore(t, "carol", "2023-01-10", 10),
			},
			teamID: "team2",
			want:   10 + 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := TeamDailyScores(tt.scores, users)
			require.NoError(t, err)
			require.Len(t, result, 1)
			assert.Equal(t, tt.teamID, result[0].TeamID)
			assert.Equal(t, tt.want, result[0].Points())
		})
	}
}

func TestTeamDailyScoresUnknownUser(t *testing.T) {
	users := challengeRoster()
	scores := []UserDailyScore{
		userScore(t, "alice", "2023-01-10", 8),
		userScore(t, "mallory", "2023-01-10", 5),
	}

	result, err := TeamDailyScores(scores, users)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownTeamForUser))
	assert.Contains(t, err.Error(), "mallory")
	assert.Nil(t, result, "no partial result on inconsistent input")
}

func TestTeamDailyScoresEmptyInput(t *testing.T) {
	result, err := TeamDailyScores(nil, challengeRoster())
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestTeamCumulativeScoresWorkedExample(t *testing.T) {
	users := challengeRoster()
	scores := []UserDailyScore{
		userScore(t, "alice", "2023-01-10", 8),
		userScore(t, "bob", "2023-01-10", 5),
		userScore(t, "alice", "2023-01-11", 5),
		userScore(t, "carol", "2023-01-10", 10),
	}

	teamScores, err := TeamDailyScores(scores, users)
	require.NoError(t, err)

	result := TeamCumulativeScores(teamScores, users)

	// team1: day one 8+5+5 bonus, day two 5 solo. team2: 10+5 bonus.
	// team3 never scored but still appears.
	require.Len(t, result, 3)
	assert.Equal(t, TeamCumulativeScore{TeamID: "team1", Points: 23}, result[0])
	assert.Equal(t, TeamCumulativeScore{TeamID: "team2", Points: 15}, result[1])
	assert.Equal(t, TeamCumulativeScore{TeamID: "team3", Points: 0}, result[2])
}

func TestTeamCumulativeScoresZeroSeedsAllTeams(t *testing.T) {
	result := TeamCumulativeScores(nil, challengeRoster())

	require.Len(t, result, 3)
	for _, entry := range result {
		assert.Equal(t, 0, entry.Points)
	}
}

func TestTeamCumulativeScoresStableTies(t *testing.T) {
	users := []domain.User{
		{ID: "u1", TeamID: "teamA"},
		{ID: "u2", TeamID: "teamB"},
		{ID: "u3", TeamID: "teamC"},
	}
	teamScores := []TeamDailyScore{
		{TeamID: "teamB", Date: mustDate(t, "2023-01-10"), Roster: []domain.User{users[1]}, UserScores: []UserDailyScore{userScore(t, "u2", "2023-01-10", 5)}},
		{TeamID: "teamC", Date: mustDate(t, "2023-01-10"), Roster: []domain.User{users[2]}, UserScores: []UserDailyScore{userScore(t, "u3", "2023-01-10", 5)}},
	}

	result := TeamCumulativeScores(teamScores, users)

	require.Len(t, result, 3)
	// teamB and teamC tie at 10: the roster order (A, B, C) decides, so the
	// tie keeps B before C and A trails with zero.
	assert.Equal(t, "teamB", result[0].TeamID)
	assert.Equal(t, "teamC", result[1].TeamID)
	assert.Equal(t, "teamA", result[2].TeamID)
}

func TestTeamCumulativeScoresToleratesUnrosteredTeam(t *testing.T) {
	users := []domain.User{{ID: "u1", TeamID: "teamA"}}
	teamScores := []TeamDailyScore{
		{TeamID: "ghosts", Date: mustDate(t, "2023-01-10"), UserScores: []UserDailyScore{userScore(t, "gx", "2023-01-10", 5)}},
	}

	result := TeamCumulativeScores(teamScores, users)

	require.Len(t, result, 2)
	assert.Equal(t, "ghosts", result[0].TeamID)
	assert.Equal(t, 5, result[0].Points)
	assert.Equal(t, "teamA", result[1].TeamID)
}
