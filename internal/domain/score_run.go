package domain

import "time"

// ScoreRun records one execution of the scoring pipeline and the ranked
// standings it produced.
type ScoreRun struct {
	ID            string         `json:"id"`
	StartDate     Date           `json:"start_date"`
	EndDate       Date           `json:"end_date"`
	ActivityCount int            `json:"activity_count"`
	Standings     []TeamStanding `json:"standings"`
	CreatedAt     time.Time      `json:"created_at"`
}
