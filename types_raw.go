package douyin

import "strconv"

// Every reply carries the status envelope.

type statusEnvelope struct {
	StatusCode int32  `json:"status_code"`
	StatusMsg  string `json:"status_msg"`
}

func (e statusEnvelope) status() statusEnvelope { return e }

type statusCarrier interface {
	status() statusEnvelope
}

// Auth replies.

type loginResponse struct {
	statusEnvelope
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
}

// Feed and video list replies.

type feedResponse struct {
	statusEnvelope
	VideoList []rawVideo `json:"video_list"`
	NextTime  int64      `json:"next_time"`
}

type videoListResponse struct {
	statusEnvelope
	VideoList []rawVideo `json:"video_list"`
}

// User and relation replies.

type userResponse struct {
	statusEnvelope
	User *rawUser `json:"user"`
}

type userListResponse struct {
	statusEnvelope
	UserList []rawUser `json:"user_list"`
}

// Comment replies.

type commentResponse struct {
	statusEnvelope
	Comment *rawComment `json:"comment"`
}

type commentListResponse struct {
	statusEnvelope
	CommentList []rawComment `json:"comment_list"`
}

type actionResponse struct {
	statusEnvelope
}

// Action request bodies. IDs and action types travel as strings, the way the
// web client has always sent them.

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type favoriteActionRequest struct {
	Token      string `json:"token"`
	VideoID    string `json:"video_id"`
	ActionType string `json:"action_type"`
}

type commentActionRequest struct {
	Token       string `json:"token"`
	VideoID     string `json:"video_id"`
	ActionType  string `json:"action_type"`
	CommentText string `json:"comment_text,omitempty"`
	CommentID   string `json:"comment_id,omitempty"`
}

type relationActionRequest struct {
	Token      string `json:"token"`
	ToUserID   string `json:"to_user_id"`
	ActionType string `json:"action_type"`
}

// Shared raw structs (match server JSON exactly).

type rawUser struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Avatar          string `json:"avatar"`
	BackgroundImage string `json:"background_image"`
	Signature       string `json:"signature"`
	FollowCount     int64  `json:"follow_count"`
	FollowerCount   int64  `json:"follower_count"`
	FavoriteCount   int64  `json:"favorite_count"`
	TotalFavorited  int64  `json:"total_favorited"`
	IsFollow        bool   `json:"is_follow"`
}

type rawVideo struct {
	ID            int64   `json:"id"`
	Author        rawUser `json:"author"`
	PlayURL       string  `json:"play_url"`
	CoverURL      string  `json:"cover_url"`
	FavoriteCount int64   `json:"favorite_count"`
	CommentCount  int64   `json:"comment_count"`
	IsFavorite    bool    `json:"is_favorite"`
	Title         string  `json:"title"`
}

type rawComment struct {
	ID         int64   `json:"id"`
	User       rawUser `json:"user"`
	Content    string  `json:"content"`
	CreateDate string  `json:"create_date"`
}

// parseUser converts a raw user to the public User type.
func parseUser(raw rawUser) User {
	return User{
		ID:              raw.ID,
		Name:            raw.Name,
		Avatar:          raw.Avatar,
		BackgroundImage: raw.BackgroundImage,
		Signature:       raw.Signature,
		FollowCount:     raw.FollowCount,
		FollowerCount:   raw.FollowerCount,
		FavoriteCount:   raw.FavoriteCount,
		TotalFavorited:  raw.TotalFavorited,
		IsFollow:        raw.IsFollow,
	}
}

// parseVideo converts a raw video to the public Video type.
func parseVideo(raw rawVideo) Video {
	return Video{
		ID:            raw.ID,
		Author:        parseUser(raw.Author),
		PlayURL:       raw.PlayURL,
		CoverURL:      raw.CoverURL,
		FavoriteCount: raw.FavoriteCount,
		CommentCount:  raw.CommentCount,
		IsFavorite:    raw.IsFavorite,
		Title:         raw.Title,
	}
}

func parseComment(raw rawComment) Comment {
	return Comment{
		ID:         raw.ID,
		User:       parseUser(raw.User),
		Content:    raw.Content,
		CreateDate: raw.CreateDate,
	}
}

func parseVideos(raws []rawVideo) []Video {
	videos := make([]Video, 0, len(raws))
	for _, raw := range raws {
		videos = append(videos, parseVideo(raw))
	}
	return videos
}

func parseUsers(raws []rawUser) []User {
	users := make([]User, 0, len(raws))
	for _, raw := range raws {
		users = append(users, parseUser(raw))
	}
	return users
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }
