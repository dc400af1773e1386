package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/challenge-tally/internal/config"
	"github.com/challenge-tally/internal/domain"
)

// StandingsStore caches the ranked team standings in a Redis sorted set so
// reads do not touch PostgreSQL or rerun the scoring pipeline.
type StandingsStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewStandingsStore creates a new Redis standings store
func NewStandingsStore(cfg *config.RedisConfig, logger *slog.Logger) (*StandingsStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &StandingsStore{
		client: client,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (s *StandingsStore) Close() error {
	return s.client.Close()
}

// Client returns the underlying Redis client
func (s *StandingsStore) Client() *redis.Client {
	return s.client
}

// standingsKey returns the Redis key for a challenge's standings sorted set
func (s *StandingsStore) standingsKey(challenge string) string {
	return fmt.Sprintf("challenge:%s:standings", challenge)
}

// teamNamesKey returns the Redis key for the challenge's team name hash
func (s *StandingsStore) teamNamesKey(challenge string) string {
	return fmt.Sprintf("challenge:%s:team-names", challenge)
}

// ReplaceStandings atomically replaces the cached standings for a challenge.
// Rescoring recomputes every team's total, so the previous set is dropped
// rather than merged.
func (s *StandingsStore) ReplaceStandings(ctx context.Context, challenge string, standings []domain.TeamStanding) error {
	key := s.standingsKey(challenge)
	namesKey := s.teamNamesKey(challenge)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.Del(ctx, namesKey)
	for _, standing := range standings {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(standing.Points),
			Member: standing.TeamID,
		})
		if standing.Name != "" {
			pipe.HSet(ctx, namesKey, standing.TeamID, standing.Name)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replacing standings: %w", err)
	}
	return nil
}

// GetStandings returns the cached standings ranked by points descending. The
// second return is false when nothing is cached for the challenge.
func (s *StandingsStore) GetStandings(ctx context.Context, challenge string) ([]domain.TeamStanding, bool, error) {
	key := s.standingsKey(challenge)
	results, err := s.client.ZRevRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("getting standings: %w", err)
	}
	if len(results) == 0 {
		return nil, false, nil
	}

	names, err := s.client.HGetAll(ctx, s.teamNamesKey(challenge)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("getting team names: %w", err)
	}

	standings := make([]domain.TeamStanding, len(results))
	for i, result := range results {
		teamID := result.Member.(string)
		standings[i] = domain.TeamStanding{
			Rank:   i + 1,
			TeamID: teamID,
			Name:   names[teamID],
			Points: int(result.Score),
		}
	}
	return standings, true, nil
}

// InvalidateStandings drops the cached standings for a challenge
func (s *StandingsStore) InvalidateStandings(ctx context.Context, challenge string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.standingsKey(challenge))
	pipe.Del(ctx, s.teamNamesKey(challenge))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidating standings: %w", err)
	}
	return nil
}
