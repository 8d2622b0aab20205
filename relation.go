package douyin

import (
	"context"
	"fmt"
	"strconv"
)

// FollowAction follows (ActionDo) or unfollows (ActionUndo) a user.
func (c *Client) FollowAction(ctx context.Context, toUserID int64, action ActionType) error {
	if !action.valid() {
		return fmt.Errorf("follow action: %w: action type %d", ErrInvalidArgument, action)
	}
	token, err := c.requireToken()
	if err != nil {
		return fmt.Errorf("follow action: %w", err)
	}

	req := relationActionRequest{
		Token:      token,
		ToUserID:   formatID(toUserID),
		ActionType: strconv.Itoa(int(action)),
	}
	var resp actionResponse
	if err := c.postJSON(ctx, c.endpoints.Relation, req, &resp); err != nil {
		return fmt.Errorf("follow action user=%d type=%d: %w", toUserID, action, err)
	}
	return nil
}

// FollowList returns the users userID follows.
func (c *Client) FollowList(ctx context.Context, userID int64) ([]User, error) {
	users, err := c.userList(ctx, c.endpoints.FollowList, userID)
	if err != nil {
		return nil, fmt.Errorf("follow list %d: %w", userID, err)
	}
	return users, nil
}

// FollowerList returns the users following userID.
func (c *Client) FollowerList(ctx context.Context, userID int64) ([]User, error) {
	users, err := c.userList(ctx, c.endpoints.FollowerList, userID)
	if err != nil {
		return nil, fmt.Errorf("follower list %d: %w", userID, err)
	}
	return users, nil
}

func (c *Client) userList(ctx context.Context, path string, userID int64) ([]User, error) {
	q, err := c.userQuery(ctx, userID)
	if err != nil {
		return nil, err
	}
	var resp userListResponse
	if err := c.getJSON(ctx, path, q, &resp); err != nil {
		return nil, err
	}
	return parseUsers(resp.UserList), nil
}

// containsUser reports whether id appears in users. Used to infer follow state
// from a follower list, which is only as complete as that list.
func containsUser(users []User, id int64) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}
