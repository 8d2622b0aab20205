package douyin

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Profile is everything a profile page shows for one user.
type Profile struct {
	User   User
	Videos []Video
	Liked  []Video

	FollowingCount int
	FollowerCount  int

	// IsFollowing is true when the session user appears in the follower list.
	// A truncated follower list can hide a real follow.
	IsFollowing bool
	IsOwn       bool
}

// LoadProfile fetches the user, their videos, their likes and both relation
// lists concurrently. A section the server refuses with a non-zero status_code
// is left empty. Any other failure cancels the remaining requests.
func (c *Client) LoadProfile(ctx context.Context, userID int64) (Profile, error) {
	if _, err := c.requireToken(); err != nil {
		return Profile{}, fmt.Errorf("load profile: %w", err)
	}

	var (
		p         Profile
		following []User
		followers []User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := c.GetUser(gctx, userID)
		p.User = u
		return c.sectionErr("user", userID, err)
	})
	g.Go(func() error {
		v, err := c.PublishList(gctx, userID)
		p.Videos = v
		return c.sectionErr("videos", userID, err)
	})
	g.Go(func() error {
		v, err := c.FavoriteList(gctx, userID)
		p.Liked = v
		return c.sectionErr("liked", userID, err)
	})
	g.Go(func() error {
		u, err := c.FollowList(gctx, userID)
		following = u
		return c.sectionErr("following", userID, err)
	})
	g.Go(func() error {
		u, err := c.FollowerList(gctx, userID)
		followers = u
		return c.sectionErr("followers", userID, err)
	})
	if err := g.Wait(); err != nil {
		return Profile{}, fmt.Errorf("load profile %d: %w", userID, err)
	}

	p.FollowingCount = len(following)
	p.FollowerCount = len(followers)

	if me, err := strconv.ParseInt(c.session.UserID(), 10, 64); err == nil {
		p.IsOwn = me == userID
		p.IsFollowing = !p.IsOwn && containsUser(followers, me)
	}
	return p, nil
}

// sectionErr drops status refusals so the section renders empty.
func (c *Client) sectionErr(section string, userID int64, err error) error {
	se, ok := IsStatus(err)
	if !ok {
		return err
	}
	c.log.Debug("profile section refused",
		zap.String("section", section),
		zap.Int64("user_id", userID),
		zap.Int32("status_code", se.Code),
		zap.String("status_msg", se.Msg),
	)
	return nil
}
