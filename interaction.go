package douyin

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxCommentLength is the longest comment, in runes, the client will send.
const MaxCommentLength = 150

// FavoriteAction likes (ActionDo) or unlikes (ActionUndo) a video.
func (c *Client) FavoriteAction(ctx context.Context, videoID int64, action ActionType) error {
	if !action.valid() {
		return fmt.Errorf("favorite action: %w: action type %d", ErrInvalidArgument, action)
	}
	token, err := c.requireToken()
	if err != nil {
		return fmt.Errorf("favorite action: %w", err)
	}

	req := favoriteActionRequest{
		Token:      token,
		VideoID:    formatID(videoID),
		ActionType: strconv.Itoa(int(action)),
	}
	var resp actionResponse
	if err := c.postJSON(ctx, c.endpoints.Favorite, req, &resp); err != nil {
		return fmt.Errorf("favorite action video=%d type=%d: %w", videoID, action, err)
	}
	return nil
}

// PostComment publishes text under a video and returns the stored comment.
func (c *Client) PostComment(ctx context.Context, videoID int64, text string) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, fmt.Errorf("post comment: %w: empty text", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return Comment{}, fmt.Errorf("post comment: %w: longer than %d characters", ErrInvalidArgument, MaxCommentLength)
	}
	token, err := c.requireToken()
	if err != nil {
		return Comment{}, fmt.Errorf("post comment: %w", err)
	}

	req := commentActionRequest{
		Token:       token,
		VideoID:     formatID(videoID),
		ActionType:  strconv.Itoa(int(ActionDo)),
		CommentText: text,
	}
	var resp commentResponse
	if err := c.postJSON(ctx, c.endpoints.Comment, req, &resp); err != nil {
		return Comment{}, fmt.Errorf("post comment video=%d: %w", videoID, err)
	}
	if resp.Comment == nil {
		return Comment{}, fmt.Errorf("post comment video=%d: %w: comment missing", videoID, ErrInvalidResponse)
	}
	return parseComment(*resp.Comment), nil
}

// DeleteComment removes one of the session user's comments.
func (c *Client) DeleteComment(ctx context.Context, videoID, commentID int64) error {
	token, err := c.requireToken()
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	req := commentActionRequest{
		Token:      token,
		VideoID:    formatID(videoID),
		ActionType: strconv.Itoa(int(ActionUndo)),
		CommentID:  formatID(commentID),
	}
	var resp commentResponse
	if err := c.postJSON(ctx, c.endpoints.Comment, req, &resp); err != nil {
		return fmt.Errorf("delete comment %d video=%d: %w", commentID, videoID, err)
	}
	return nil
}

// CommentList returns the comments under a video, newest first as served.
func (c *Client) CommentList(ctx context.Context, videoID int64) ([]Comment, error) {
	token, err := c.requireToken()
	if err != nil {
		return nil, fmt.Errorf("comment list: %w", err)
	}

	q := url.Values{}
	q.Set("token", token)
	q.Set("video_id", formatID(videoID))

	var resp commentListResponse
	if err := c.getJSON(ctx, c.endpoints.CommentList, q, &resp); err != nil {
		return nil, fmt.Errorf("comment list video=%d: %w", videoID, err)
	}

	comments := make([]Comment, 0, len(resp.CommentList))
	for _, raw := range resp.CommentList {
		comments = append(comments, parseComment(raw))
	}
	return comments, nil
}
