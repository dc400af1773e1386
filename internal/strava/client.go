package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/challenge-tally/internal/domain"
)

const (
	defaultBaseURL   = "https://www.strava.com"
	sessionCookie    = "_strava4_session"
	defaultPageDelay = 5 * time.Second
)

// Client fetches paginated club feeds. Authentication is a logged-in web
// session cookie supplied by the operator; requests are spaced by pageDelay
// to stay clear of rate limiting.
type Client struct {
	baseURL    string
	session    string
	pageDelay  time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed client. session is the _strava4_session cookie
// value. A zero pageDelay falls back to the default spacing.
func NewClient(session string, pageDelay time.Duration, logger *slog.Logger) *Client {
	if pageDelay <= 0 {
		pageDelay = defaultPageDelay
	}
	return &Client{
		baseURL:    defaultBaseURL,
		session:    session,
		pageDelay:  pageDelay,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// GetClubFeed fetches one page of a club's feed. An empty cursor fetches the
// newest page; otherwise cursor is the updated_at value of the oldest entry
// already seen.
func (c *Client) GetClubFeed(ctx context.Context, clubID, cursor string) (*FeedResponse, error) {
	params := url.Values{}
	params.Set("feed_type", "club")
	params.Set("club_id", clubID)
	if cursor != "" {
		params.Set("before", cursor)
		params.Set("cursor", cursor)
	}

	feedURL := fmt.Sprintf("%s/clubs/%s/feed?%s", c.baseURL, clubID, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: c.session})

	c.logger.Debug("fetching club feed", "club_id", clubID, "cursor", cursor)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching club feed for club %s: %w", clubID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching club feed for club %s: unexpected status %d", clubID, resp.StatusCode)
	}

	var feed FeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing feed response for club %s: %w", clubID, err)
	}
	return &feed, nil
}

// GetActivities walks a club's feed from the newest entry backwards and
// returns every activity updated at or after the given instant. The cursor
// compares against updated_at rather than the activity start, so activities
// started before the cutoff but edited after it are still picked up.
func (c *Client) GetActivities(ctx context.Context, clubID string, after time.Time) ([]domain.Activity, error) {
	var activities []domain.Activity
	cursor := ""

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pageDelay):
		}

		feed, err := c.GetClubFeed(ctx, clubID, cursor)
		if err != nil {
			return nil, err
		}
		activities = append(activities, ActivitiesFromFeed(feed, c.logger)...)

		if len(feed.Entries) == 0 || !feed.Pagination.HasMore {
			break
		}
		oldest := feed.Entries[len(feed.Entries)-1].CursorData.UpdatedAt
		if oldest < after.Unix() {
			break
		}
		cursor = strconv.FormatInt(oldest, 10)
	}

	return activities, nil
}
