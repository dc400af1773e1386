package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/challenge-tally/internal/config"
	"github.com/challenge-tally/internal/domain"
	"github.com/challenge-tally/internal/export"
	"github.com/challenge-tally/internal/score"
)

// Repository is the persistence surface the scoring service needs.
type Repository interface {
	UpsertTeams(ctx context.Context, teams []domain.Team) error
	UpsertUsers(ctx context.Context, users []domain.User) error
	UpsertActivities(ctx context.Context, activities []domain.Activity) error
	GetTeam(ctx context.Context, teamID string) (*domain.Team, error)
	ListTeams(ctx context.Context) ([]domain.Team, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListActivities(ctx context.Context) ([]domain.Activity, error)
	LatestActivityStart(ctx context.Context) (time.Time, error)
	SaveScoreRun(ctx context.Context, run domain.ScoreRun) error
	LatestStandings(ctx context.Context) ([]domain.TeamStanding, error)
}

// StandingsCache caches ranked standings between scoring runs.
type StandingsCache interface {
	ReplaceStandings(ctx context.Context, challenge string, standings []domain.TeamStanding) error
	GetStandings(ctx context.Context, challenge string) ([]domain.TeamStanding, bool, error)
	InvalidateStandings(ctx context.Context, challenge string) error
}

// Broadcaster pushes standings updates to connected clients.
type Broadcaster interface {
	BroadcastStandings(challenge string, standings []domain.TeamStanding)
}

// FeedSource fetches activities from the Strava club feed.
type FeedSource interface {
	GetActivities(ctx context.Context, clubID string, after time.Time) ([]domain.Activity, error)
}

// ScoringService runs the scoring pipeline and serves its results
type ScoringService struct {
	repo      Repository
	standings StandingsCache
	hub       Broadcaster
	feed      FeedSource
	challenge config.ChallengeConfig
	clubID    string
	logger    *slog.Logger
}

// NewScoringService creates a new scoring service. standings, hub and feed
// may be nil; the corresponding caching, broadcasting and tracking steps are
// then skipped.
func NewScoringService(
	repo Repository,
	standings StandingsCache,
	hub Broadcaster,
	feed FeedSource,
	challenge config.ChallengeConfig,
	clubID string,
	logger *slog.Logger,
) *ScoringService {
	return &ScoringService{
		repo:      repo,
		standings: standings,
		hub:       hub,
		feed:      feed,
		challenge: challenge,
		clubID:    clubID,
		logger:    logger,
	}
}

func (s *ScoringService) window() (score.Config, error) {
	return s.challenge.Window(time.Now())
}

// Run executes the full scoring pipeline over the given window: active time
// aggregation, user daily scores, team daily scores and the cumulative
// ranking. The ranked standings are persisted as a score run, cached, and
// broadcast to connected clients.
func (s *ScoringService) Run(ctx context.Context, window score.Config) (*domain.ScoreRun, error) {
	standings, activityCount, err := s.computeStandings(ctx, window)
	if err != nil {
		return nil, err
	}

	run := domain.ScoreRun{
		ID:            uuid.New().String(),
		StartDate:     window.StartDate,
		EndDate:       window.EndDate,
		ActivityCount: activityCount,
		Standings:     standings,
		CreatedAt:     time.Now(),
	}
	if err := s.repo.SaveScoreRun(ctx, run); err != nil {
		return nil, fmt.Errorf("saving score run: %w", err)
	}

	if s.standings != nil {
		if err := s.standings.ReplaceStandings(ctx, s.challenge.Name, standings); err != nil {
			// The run is already persisted; a cold cache is recoverable.
			s.logger.Warn("failed to cache standings", "error", err)
		}
	}
	if s.hub != nil {
		s.hub.BroadcastStandings(s.challenge.Name, standings)
	}

	s.logger.Info("scoring run completed",
		"run_id", run.ID,
		"start_date", run.StartDate.String(),
		"end_date", run.EndDate.String(),
		"activities", activityCount,
		"teams", len(standings),
	)
	return &run, nil
}

// RunRange runs the scoring pipeline over an explicit date range, falling
// back to the configured challenge window for omitted dates.
func (s *ScoringService) RunRange(ctx context.Context, startDate, endDate string) (*domain.ScoreRun, error) {
	challenge := s.challenge
	if startDate != "" {
		challenge.StartDate = startDate
	}
	if endDate != "" {
		challenge.EndDate = endDate
	}
	window, err := challenge.Window(time.Now())
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidRequest)
	}
	return s.Run(ctx, window)
}

// computeStandings runs the engine stages over the stored roster and
// activities and returns the ranked standings.
func (s *ScoringService) computeStandings(ctx context.Context, window score.Config) ([]domain.TeamStanding, int, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("loading users: %w", err)
	}
	teams, err := s.repo.ListTeams(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("loading teams: %w", err)
	}
	activities, err := s.repo.ListActivities(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("loading activities: %w", err)
	}

	activeTimes := score.UserActiveTimes(activities, window)
	userScores := score.UserDailyScores(activeTimes)
	teamScores, err := score.TeamDailyScores(userScores, users)
	if err != nil {
		return nil, 0, fmt.Errorf("scoring teams: %w", err)
	}
	cumulative := score.TeamCumulativeScores(teamScores, users)

	namesByID := make(map[string]string, len(teams))
	for _, team := range teams {
		namesByID[team.ID] = team.Name
	}

	standings := make([]domain.TeamStanding, len(cumulative))
	for i, teamScore := range cumulative {
		standings[i] = domain.TeamStanding{
			Rank:   i + 1,
			TeamID: teamScore.TeamID,
			Name:   namesByID[teamScore.TeamID],
			Points: teamScore.Points,
		}
	}
	return standings, len(activities), nil
}

// Standings returns the current ranked standings. The Redis cache is tried
// first, then the last persisted scoring run; only when neither exists (no
// run has completed yet) are standings computed on the fly.
func (s *ScoringService) Standings(ctx context.Context) ([]domain.TeamStanding, error) {
	if s.standings != nil {
		cached, ok, err := s.standings.GetStandings(ctx, s.challenge.Name)
		if err != nil {
			s.logger.Warn("failed to read cached standings", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	standings, err := s.repo.LatestStandings(ctx)
	if err != nil && !errors.Is(err, domain.ErrNoChallenge) {
		return nil, fmt.Errorf("loading latest standings: %w", err)
	}
	if errors.Is(err, domain.ErrNoChallenge) {
		window, err := s.window()
		if err != nil {
			return nil, err
		}
		standings, _, err = s.computeStandings(ctx, window)
		if err != nil {
			return nil, err
		}
	}

	if s.standings != nil {
		if err := s.standings.ReplaceStandings(ctx, s.challenge.Name, standings); err != nil {
			s.logger.Warn("failed to cache standings", "error", err)
		}
	}
	return standings, nil
}

// TeamDailyReport is one team's scoring detail for one day.
type TeamDailyReport struct {
	Date       domain.Date            `json:"date"`
	Points     int                    `json:"points"`
	UserScores []score.UserDailyScore `json:"user_scores"`
}

// TeamDaily returns the per-day scoring detail for one team across the
// challenge window. Returns domain.ErrTeamNotFound for an unknown team.
func (s *ScoringService) TeamDaily(ctx context.Context, teamID string) ([]TeamDailyReport, error) {
	if _, err := s.repo.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}

	window, err := s.window()
	if err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	activities, err := s.repo.ListActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading activities: %w", err)
	}

	activeTimes := score.UserActiveTimes(activities, window)
	userScores := score.UserDailyScores(activeTimes)
	teamScores, err := score.TeamDailyScores(userScores, users)
	if err != nil {
		return nil, fmt.Errorf("scoring teams: %w", err)
	}

	var reports []TeamDailyReport
	for _, teamScore := range teamScores {
		if teamScore.TeamID != teamID {
			continue
		}
		reports = append(reports, TeamDailyReport{
			Date:       teamScore.Date,
			Points:     teamScore.Points(),
			UserScores: teamScore.UserScores,
		})
	}
	return reports, nil
}

// Teams lists all teams
func (s *ScoringService) Teams(ctx context.Context) ([]domain.Team, error) {
	return s.repo.ListTeams(ctx)
}

// StoreActivities persists activities, dropping any that start before the
// challenge does. They can never contribute to a score, and keeping them out
// makes the feed cutoff monotonic.
func (s *ScoringService) StoreActivities(ctx context.Context, activities []domain.Activity) error {
	window, err := s.window()
	if err != nil {
		return err
	}

	kept := make([]domain.Activity, 0, len(activities))
	for _, activity := range activities {
		date := domain.DateOf(activity.StartTime, window.Location)
		if date.Before(window.StartDate) {
			s.logger.Debug("dropping pre-challenge activity", "activity_id", activity.ID)
			continue
		}
		kept = append(kept, activity)
	}

	if err := s.repo.UpsertActivities(ctx, kept); err != nil {
		return fmt.Errorf("storing activities: %w", err)
	}
	s.invalidateCache(ctx)
	s.logger.Info("stored activities", "count", len(kept), "dropped", len(activities)-len(kept))
	return nil
}

// invalidateCache drops the cached standings after a write that makes them
// stale. The next read falls back to the last persisted run until a fresh
// scoring run repopulates the cache.
func (s *ScoringService) invalidateCache(ctx context.Context) {
	if s.standings == nil {
		return
	}
	if err := s.standings.InvalidateStandings(ctx, s.challenge.Name); err != nil {
		s.logger.Warn("failed to invalidate cached standings", "error", err)
	}
}

// LoadRoster replaces the stored teams and users
func (s *ScoringService) LoadRoster(ctx context.Context, teams []domain.Team, users []domain.User) error {
	if err := s.repo.UpsertTeams(ctx, teams); err != nil {
		return fmt.Errorf("storing teams: %w", err)
	}
	if err := s.repo.UpsertUsers(ctx, users); err != nil {
		return fmt.Errorf("storing users: %w", err)
	}
	s.invalidateCache(ctx)
	s.logger.Info("loaded roster", "teams", len(teams), "users", len(users))
	return nil
}

// Track fetches new activities from the club feed and stores them. Feed
// entries from athletes outside the stored roster are discarded: club feeds
// include anyone who joined the Strava club, not just challenge
// participants, and unrosted users would make scoring fail.
func (s *ScoringService) Track(ctx context.Context) error {
	if s.feed == nil {
		return fmt.Errorf("no feed source configured")
	}

	after, err := s.repo.LatestActivityStart(ctx)
	if err != nil {
		return err
	}

	fetched, err := s.feed.GetActivities(ctx, s.clubID, after)
	if err != nil {
		return fmt.Errorf("fetching club feed: %w", err)
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("loading users: %w", err)
	}
	rostered := make(map[string]bool, len(users))
	for _, user := range users {
		rostered[user.ID] = true
	}

	kept := make([]domain.Activity, 0, len(fetched))
	for _, activity := range fetched {
		if !rostered[activity.UserID] {
			s.logger.Debug("dropping activity from unrostered athlete",
				"activity_id", activity.ID, "user_id", activity.UserID)
			continue
		}
		kept = append(kept, activity)
	}

	s.logger.Info("tracked club feed", "fetched", len(fetched), "kept", len(kept))
	return s.StoreActivities(ctx, kept)
}

// ExportStandings writes the current ranked standings as CSV
func (s *ScoringService) ExportStandings(ctx context.Context, w io.Writer) error {
	standings, err := s.Standings(ctx)
	if err != nil {
		return err
	}
	return export.WriteStandings(w, standings)
}

// ExportActivities writes all stored activities as CSV
func (s *ScoringService) ExportActivities(ctx context.Context, w io.Writer) error {
	window, err := s.window()
	if err != nil {
		return err
	}
	activities, err := s.repo.ListActivities(ctx)
	if err != nil {
		return fmt.Errorf("loading activities: %w", err)
	}
	return export.WriteActivities(w, activities, window.Location)
}
