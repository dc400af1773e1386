package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{
		baseURL:    srv.URL,
		session:    "test-session",
		pageDelay:  time.Millisecond,
		httpClient: srv.Client(),
		logger:     discardLogger(),
	}
}

func feedPage(updatedAt int64, hasMore bool, activities ...FeedActivity) FeedResponse {
	var entries []FeedEntry
	for i := range activities {
		entries = append(entries, FeedEntry{
			CursorData: cursorData{UpdatedAt: updatedAt},
			Activity:   &activities[i],
		})
	}
	return FeedResponse{Entries: entries, Pagination: pagination{HasMore: hasMore}}
}

func TestGetClubFeedRequestShape(t *testing.T) {
	var gotRequest *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequest = r.Clone(context.Background())
		json.NewEncoder(w).Encode(feedPage(100, false))
	}))
	defer srv.Close()

	feed, err := testClient(srv).GetClubFeed(context.Background(), "club1", "12345")
	require.NoError(t, err)
	assert.False(t, feed.Pagination.HasMore)

	require.NotNil(t, gotRequest)
	assert.Equal(t, "/clubs/club1/feed", gotRequest.URL.Path)
	query := gotRequest.URL.Query()
	assert.Equal(t, "club", query.Get("feed_type"))
	assert.Equal(t, "club1", query.Get("club_id"))
	assert.Equal(t, "12345", query.Get("before"))
	assert.Equal(t, "12345", query.Get("cursor"))

	cookie, err := gotRequest.Cookie("_strava4_session")
	require.NoError(t, err)
	assert.Equal(t, "test-session", cookie.Value)
}

func TestGetClubFeedOmitsEmptyCursor(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		json.NewEncoder(w).Encode(feedPage(100, false))
	}))
	defer srv.Close()

	_, err := testClient(srv).GetClubFeed(context.Background(), "club1", "")
	require.NoError(t, err)
	assert.NotContains(t, query, "cursor")
	assert.NotContains(t, query, "before")
}

func TestGetClubFeedNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(srv).GetClubFeed(context.Background(), "club1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestGetActivitiesPagesUntilCursorPassesCutoff(t *testing.T) {
	// Three pages at updated_at 300, 200, 100. With a cutoff of 150 the
	// client must fetch the first two pages, see cursor 200 is still newer
	// than the cutoff, fetch the page at 100 and then stop.
	pages := map[string]FeedResponse{
		"":    feedPage(300, true, feedActivity("a1", "user1", "2024-01-15T10:00:00Z")),
		"300": feedPage(200, true, feedActivity("a2", "user1", "2024-01-14T10:00:00Z")),
		"200": feedPage(100, true, feedActivity("a3", "user1", "2024-01-13T10:00:00Z")),
	}
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("cursor")
		requests = append(requests, cursor)
		page, ok := pages[cursor]
		require.True(t, ok, "unexpected cursor %q", cursor)
		json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	activities, err := testClient(srv).GetActivities(context.Background(), "club1", time.Unix(150, 0))
	require.NoError(t, err)

	assert.Equal(t, []string{"", "300", "200"}, requests)
	require.Len(t, activities, 3)
	assert.Equal(t, "a1", activities[0].ID)
	assert.Equal(t, "a3", activities[2].ID)
}

func TestGetActivitiesStopsWhenNoMorePages(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(feedPage(300, false, feedActivity("a1", "user1", "2024-01-15T10:00:00Z")))
	}))
	defer srv.Close()

	activities, err := testClient(srv).GetActivities(context.Background(), "club1", time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, activities, 1)
}

func TestGetActivitiesStopsOnEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(FeedResponse{Pagination: pagination{HasMore: true}})
	}))
	defer srv.Close()

	activities, err := testClient(srv).GetActivities(context.Background(), "club1", time.Unix(0, 0))
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestGetActivitiesPropagatesFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	}))
	defer srv.Close()

	_, err := testClient(srv).GetActivities(context.Background(), "club1", time.Unix(0, 0))
	require.Error(t, err)
}
