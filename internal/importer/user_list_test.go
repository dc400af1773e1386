package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userListCSV = `Team ID,Team Name,User Name,User Link
team1,Trail Blazers,Alice,https://www.strava.com/athletes/501
team1,Trail Blazers,Bob,https://www.strava.com/athletes/502
team2,Road Runners,Carol,https://www.strava.com/athletes/503
`

func TestParseUserList(t *testing.T) {
	rows, err := ParseUserList(strings.NewReader(userListCSV), discardLogger())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "team1", rows[0].TeamID)
	assert.Equal(t, "Trail Blazers", rows[0].TeamName)
	assert.Equal(t, "Alice", rows[0].UserName)
	assert.Equal(t, "501", rows[0].UserID())
}

func TestParseUserListSkipsIncompleteRows(t *testing.T) {
	csv := `Team ID,Team Name,User Name,User Link
team1,Trail Blazers,Alice,https://www.strava.com/athletes/501
team1,,No Team Name,https://www.strava.com/athletes/502
team2,Road Runners,Carol,
`

	rows, err := ParseUserList(strings.NewReader(csv), discardLogger())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0].UserName)
}

func TestTeamsDedupesFirstSeen(t *testing.T) {
	rows, err := ParseUserList(strings.NewReader(userListCSV), discardLogger())
	require.NoError(t, err)

	teams := Teams(rows)
	require.Len(t, teams, 2)
	assert.Equal(t, "team1", teams[0].ID)
	assert.Equal(t, "Trail Blazers", teams[0].Name)
	assert.Equal(t, "team2", teams[1].ID)
}

func TestUsersDedupesByID(t *testing.T) {
	csv := `Team ID,Team Name,User Name,User Link
team1,Trail Blazers,Alice,https://www.strava.com/athletes/501
team2,Road Runners,Alice Again,https://www.strava.com/athletes/501
`

	rows, err := ParseUserList(strings.NewReader(csv), discardLogger())
	require.NoError(t, err)

	users := Users(rows)
	require.Len(t, users, 1)
	assert.Equal(t, "501", users[0].ID)
	assert.Equal(t, "Alice", users[0].Name)
	assert.Equal(t, "team1", users[0].TeamID)
}

func TestUsersMapsRowsToDomain(t *testing.T) {
	rows, err := ParseUserList(strings.NewReader(userListCSV), discardLogger())
	require.NoError(t, err)

	users := Users(rows)
	require.Len(t, users, 3)
	assert.Equal(t, "502", users[1].ID)
	assert.Equal(t, "Bob", users[1].Name)
	assert.Equal(t, "team1", users[1].TeamID)
	assert.Equal(t, "team2", users[2].TeamID)
}
