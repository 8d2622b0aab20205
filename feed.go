package douyin

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Feed fetches one page of the feed starting at latestTime (0 = most recent).
// It works without a session; when one exists the token is sent so the server
// can fill in is_favorite.
func (c *Client) Feed(ctx context.Context, latestTime int64) (FeedPage, error) {
	if err := c.feedLimiter.Wait(ctx); err != nil {
		return FeedPage{}, fmt.Errorf("feed: %w", err)
	}

	q := url.Values{}
	q.Set("latest_time", strconv.FormatInt(latestTime, 10))
	if token := c.session.Token(); token != "" {
		q.Set("token", token)
	}

	var resp feedResponse
	if err := c.getJSON(ctx, c.endpoints.Feed, q, &resp); err != nil {
		return FeedPage{}, fmt.Errorf("feed latest_time=%d: %w", latestTime, err)
	}

	return FeedPage{
		Videos:   parseVideos(resp.VideoList),
		NextTime: resp.NextTime,
	}, nil
}
