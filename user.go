package douyin

import (
	"context"
	"fmt"
	"net/url"
)

// GetUser fetches a user profile.
func (c *Client) GetUser(ctx context.Context, userID int64) (User, error) {
	q, err := c.userQuery(ctx, userID)
	if err != nil {
		return User{}, fmt.Errorf("get user %d: %w", userID, err)
	}

	var resp userResponse
	if err := c.getJSON(ctx, c.endpoints.User, q, &resp); err != nil {
		return User{}, fmt.Errorf("get user %d: %w", userID, err)
	}
	if resp.User == nil {
		return User{}, fmt.Errorf("get user %d: %w: user missing", userID, ErrInvalidResponse)
	}
	return parseUser(*resp.User), nil
}

// PublishList returns the videos a user has published.
func (c *Client) PublishList(ctx context.Context, userID int64) ([]Video, error) {
	videos, err := c.videoList(ctx, c.endpoints.PublishList, userID)
	if err != nil {
		return nil, fmt.Errorf("publish list %d: %w", userID, err)
	}
	return videos, nil
}

// FavoriteList returns the videos a user has liked.
func (c *Client) FavoriteList(ctx context.Context, userID int64) ([]Video, error) {
	videos, err := c.videoList(ctx, c.endpoints.FavoriteList, userID)
	if err != nil {
		return nil, fmt.Errorf("favorite list %d: %w", userID, err)
	}
	return videos, nil
}

func (c *Client) videoList(ctx context.Context, path string, userID int64) ([]Video, error) {
	q, err := c.userQuery(ctx, userID)
	if err != nil {
		return nil, err
	}
	var resp videoListResponse
	if err := c.getJSON(ctx, path, q, &resp); err != nil {
		return nil, err
	}
	return parseVideos(resp.VideoList), nil
}

// userQuery builds the user_id+token query shared by the profile endpoints
// and applies profile pacing.
func (c *Client) userQuery(ctx context.Context, userID int64) (url.Values, error) {
	token, err := c.requireToken()
	if err != nil {
		return nil, err
	}
	if err := c.profileLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("user_id", formatID(userID))
	q.Set("token", token)
	return q, nil
}
