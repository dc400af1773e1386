package domain

// User is a challenge participant. A user belongs to exactly one team for
// the lifetime of the challenge.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	TeamID string `json:"team_id"`
}

// Team groups users for the challenge. The roster is the set of users whose
// TeamID points at it.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TeamStanding is one row of the ranked scoreboard served to clients.
type TeamStanding struct {
	Rank   int    `json:"rank"`
	TeamID string `json:"team_id"`
	Name   string `json:"name,omitempty"`
	Points int    `json:"points"`
}
