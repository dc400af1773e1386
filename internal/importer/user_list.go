package importer

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/challenge-tally/internal/domain"
)

// UserRow is one line of the user list CSV that seeds teams and rosters.
type UserRow struct {
	TeamID   string
	TeamName string
	UserName string
	UserLink string
}

// UserID returns the athlete ID embedded in the row's user link.
func (r UserRow) UserID() string { return lastPathSegment(r.UserLink) }

func (r UserRow) incomplete() bool {
	return r.TeamID == "" || r.TeamName == "" || r.UserName == "" || r.UserLink == ""
}

// ParseUserList reads a user list CSV. Expected headers (case and spacing
// insensitive): Team ID, Team Name, User Name, User Link. Rows with any
// empty field are skipped with a warning rather than failing the whole
// import.
func ParseUserList(r io.Reader, logger *slog.Logger) ([]UserRow, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, fmt.Errorf("parsing user list: %w", err)
	}

	var rows []UserRow
	skipped := 0
	for i, record := range records {
		row := UserRow{
			TeamID:   record["team_id"],
			TeamName: record["team_name"],
			UserName: record["user_name"],
			UserLink: record["user_link"],
		}
		if row.incomplete() {
			logger.Warn("skipping incomplete user row", "row", i+1)
			skipped++
			continue
		}
		rows = append(rows, row)
	}

	logger.Info("parsed user list", "rows", len(rows), "skipped", skipped)
	return rows, nil
}

// Teams collapses user rows into unique teams, first-seen order.
func Teams(rows []UserRow) []domain.Team {
	seen := make(map[string]bool)
	var teams []domain.Team
	for _, row := range rows {
		if seen[row.TeamID] {
			continue
		}
		seen[row.TeamID] = true
		teams = append(teams, domain.Team{ID: row.TeamID, Name: row.TeamName})
	}
	return teams
}

// Users converts user rows into domain users, dropping duplicate IDs in
// favor of the first occurrence.
func Users(rows []UserRow) []domain.User {
	seen := make(map[string]bool)
	var users []domain.User
	for _, row := range rows {
		id := row.UserID()
		if seen[id] {
			continue
		}
		seen[id] = true
		users = append(users, domain.User{ID: id, Name: row.UserName, TeamID: row.TeamID})
	}
	return users
}
