package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfigFile(t, `
challenge:
  name: winter-challenge
  start_date: "2023-01-01"
  end_date: "2023-01-31"
  time_zone: UTC
server:
  port: 9090
kafka:
  enabled: true
  brokers:
    - broker1:9092
strava:
  club_id: "12345"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "winter-challenge", cfg.Challenge.Name)
	assert.Equal(t, "2023-01-01", cfg.Challenge.StartDate)
	assert.Equal(t, "UTC", cfg.Challenge.TimeZone)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"broker1:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "12345", cfg.Strava.ClubID)

	// Unset values fall back to defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "activity-events", cfg.Kafka.Topic)
	assert.Equal(t, "tally-consumer", cfg.Kafka.GroupID)
	assert.Equal(t, 30*time.Minute, cfg.Rescore.Interval)
	assert.Equal(t, 5*time.Second, cfg.Strava.PageDelay)
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_STRAVA_SESSION", "secret-cookie")
	path := writeConfigFile(t, `
strava:
  session_cookie: ${TEST_STRAVA_SESSION}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-cookie", cfg.Strava.SessionCookie)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestChallengeWindow(t *testing.T) {
	challenge := ChallengeConfig{
		StartDate: "2023-01-01",
		EndDate:   "2023-01-31",
		TimeZone:  "UTC",
	}

	window, err := challenge.Window(time.Date(2023, 1, 20, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01", window.StartDate.String())
	assert.Equal(t, "2023-01-31", window.EndDate.String())
}

func TestChallengeWindowDefaultsEndToYesterday(t *testing.T) {
	challenge := ChallengeConfig{
		StartDate: "2023-01-01",
		TimeZone:  "America/Los_Angeles",
	}

	// 02:00 UTC on Jan 20 is still Jan 19 on the west coast, so yesterday
	// there is Jan 18.
	window, err := challenge.Window(time.Date(2023, 1, 20, 2, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2023-01-18", window.EndDate.String())
}

func TestChallengeWindowInvalidDates(t *testing.T) {
	challenge := ChallengeConfig{StartDate: "01/01/2023", TimeZone: "UTC"}
	_, err := challenge.Window(time.Now())
	assert.Error(t, err)

	challenge = ChallengeConfig{StartDate: "2023-01-01", EndDate: "bad", TimeZone: "UTC"}
	_, err = challenge.Window(time.Now())
	assert.Error(t, err)

	challenge = ChallengeConfig{StartDate: "2023-01-01", TimeZone: "Not/AZone"}
	_, err = challenge.Window(time.Now())
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Rescore.Enabled)
	assert.Equal(t, "America/Los_Angeles", cfg.Challenge.TimeZone)
}

func TestPostgresConnectionString(t *testing.T) {
	pg := PostgresConfig{
		Host:     "db",
		Port:     5432,
		User:     "tally",
		Password: "pw",
		Database: "tally",
	}
	assert.Equal(t, "postgres://tally:pw@db:5432/tally?sslmode=disable", pg.ConnectionString())
}
