package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/challenge-tally/internal/config"
	"github.com/challenge-tally/internal/domain"
)

// Repository provides PostgreSQL-based data access
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS teams (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			team_id VARCHAR(64) NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			start_time TIMESTAMPTZ NOT NULL,
			elapsed_seconds INT NOT NULL,
			moving_seconds INT,
			title TEXT NOT NULL DEFAULT '',
			workout_type VARCHAR(64) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS score_runs (
			id VARCHAR(64) PRIMARY KEY,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			activity_count INT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS team_score_snapshots (
			id BIGSERIAL PRIMARY KEY,
			run_id VARCHAR(64) NOT NULL REFERENCES score_runs(id) ON DELETE CASCADE,
			team_id VARCHAR(64) NOT NULL,
			points INT NOT NULL,
			rank INT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_team ON users(team_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_user ON activities(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_start_time ON activities(start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_run ON team_score_snapshots(run_id)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// UpsertTeams inserts or updates teams by ID
func (r *Repository) UpsertTeams(ctx context.Context, teams []domain.Team) error {
	if len(teams) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO teams (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id)
		DO UPDATE SET name = $2, updated_at = $3
	`
	now := time.Now()
	for _, team := range teams {
		batch.Queue(query, team.ID, team.Name, now)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range teams {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upserting teams: %w", err)
		}
	}
	return nil
}

// UpsertUsers inserts or updates users by ID
func (r *Repository) UpsertUsers(ctx context.Context, users []domain.User) error {
	if len(users) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO users (id, name, team_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (id)
		DO UPDATE SET name = $2, team_id = $3, updated_at = $4
	`
	now := time.Now()
	for _, user := range users {
		batch.Queue(query, user.ID, user.Name, user.TeamID, now)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range users {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upserting users: %w", err)
		}
	}
	return nil
}

// UpsertActivities inserts or updates activities by ID. Re-fetching a feed
// replaces edited activities in place.
func (r *Repository) UpsertActivities(ctx context.Context, activities []domain.Activity) error {
	if len(activities) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO activities (id, user_id, start_time, elapsed_seconds, moving_seconds, title, workout_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (id)
		DO UPDATE SET
			user_id = $2,
			start_time = $3,
			elapsed_seconds = $4,
			moving_seconds = $5,
			title = $6,
			workout_type = $7,
			updated_at = $8
	`
	now := time.Now()
	for _, activity := range activities {
		batch.Queue(query,
			activity.ID,
			activity.UserID,
			activity.StartTime,
			activity.ElapsedSeconds,
			activity.MovingSeconds,
			activity.Title,
			activity.WorkoutType,
			now,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range activities {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upserting activities: %w", err)
		}
	}
	return nil
}

// GetTeam retrieves a team by ID
func (r *Repository) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	query := `SELECT id, name FROM teams WHERE id = $1`
	var team domain.Team
	err := r.pool.QueryRow(ctx, query, teamID).Scan(&team.ID, &team.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTeamNotFound
		}
		return nil, fmt.Errorf("getting team: %w", err)
	}
	return &team, nil
}

// ListTeams retrieves all teams ordered by name
func (r *Repository) ListTeams(ctx context.Context) ([]domain.Team, error) {
	query := `SELECT id, name FROM teams ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.Name); err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, nil
}

// ListUsers retrieves all users ordered by team then name
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT id, name, team_id FROM users ORDER BY team_id ASC, name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Name, &user.TeamID); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

// ListActivities retrieves all activities ordered by start time
func (r *Repository) ListActivities(ctx context.Context) ([]domain.Activity, error) {
	query := `
		SELECT id, user_id, start_time, elapsed_seconds, moving_seconds, title, workout_type
		FROM activities
		ORDER BY start_time ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		var activity domain.Activity
		err := rows.Scan(
			&activity.ID,
			&activity.UserID,
			&activity.StartTime,
			&activity.ElapsedSeconds,
			&activity.MovingSeconds,
			&activity.Title,
			&activity.WorkoutType,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		activities = append(activities, activity)
	}
	return activities, nil
}

// LatestActivityStart returns the most recent activity start time, or the
// zero time when no activities are stored. Feed tracking uses it as the
// pagination cutoff.
func (r *Repository) LatestActivityStart(ctx context.Context) (time.Time, error) {
	query := `SELECT COALESCE(MAX(start_time), 'epoch'::timestamptz) FROM activities`
	var latest time.Time
	if err := r.pool.QueryRow(ctx, query).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("getting latest activity start: %w", err)
	}
	return latest, nil
}

// SaveScoreRun records a completed scoring run and its ranked standings
func (r *Repository) SaveScoreRun(ctx context.Context, run domain.ScoreRun) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning score run transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO score_runs (id, start_date, end_date, activity_count, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.StartDate.String(), run.EndDate.String(), run.ActivityCount, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting score run: %w", err)
	}

	for _, standing := range run.Standings {
		_, err = tx.Exec(ctx,
			`INSERT INTO team_score_snapshots (run_id, team_id, points, rank)
			 VALUES ($1, $2, $3, $4)`,
			run.ID, standing.TeamID, standing.Points, standing.Rank,
		)
		if err != nil {
			return fmt.Errorf("inserting score snapshot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing score run: %w", err)
	}
	return nil
}

// LatestStandings returns the standings saved by the most recent scoring run,
// or domain.ErrNoChallenge when no run has completed yet.
func (r *Repository) LatestStandings(ctx context.Context) ([]domain.TeamStanding, error) {
	query := `
		SELECT s.team_id, t.name, s.points, s.rank
		FROM team_score_snapshots s
		JOIN teams t ON t.id = s.team_id
		WHERE s.run_id = (SELECT id FROM score_runs ORDER BY created_at DESC LIMIT 1)
		ORDER BY s.rank ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("getting latest standings: %w", err)
	}
	defer rows.Close()

	var standings []domain.TeamStanding
	for rows.Next() {
		var standing domain.TeamStanding
		if err := rows.Scan(&standing.TeamID, &standing.Name, &standing.Points, &standing.Rank); err != nil {
			return nil, fmt.Errorf("scanning standing: %w", err)
		}
		standings = append(standings, standing)
	}
	if len(standings) == 0 {
		return nil, domain.ErrNoChallenge
	}
	return standings, nil
}
