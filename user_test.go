package douyin

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_Anonymous(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "1700000000", r.URL.Query().Get("latest_time"))
		assert.False(t, r.URL.Query().Has("token"))
		writeJSON(w, `{"status_code":0,"next_time":1690000000,"video_list":`+videosJSON(1, 2)+`}`)
	})

	page, err := c.Feed(context.Background(), 1700000000)
	require.NoError(t, err)
	assert.Equal(t, int64(1690000000), page.NextTime)
	require.Len(t, page.Videos, 2)

	v := page.Videos[0]
	assert.Equal(t, int64(1), v.ID)
	assert.Equal(t, "user1", v.Author.Name)
	assert.Equal(t, int64(101), v.Author.ID)
	assert.Equal(t, "http://cdn.local/1.mp4", v.PlayURL)
	assert.Equal(t, "http://cdn.local/1.jpg", v.CoverURL)
	assert.Equal(t, int64(11), v.FavoriteCount)
	assert.Equal(t, int64(3), v.CommentCount)
	assert.Equal(t, "video 1", v.Title)
}

func TestFeed_SendsTokenWhenLoggedIn(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		writeJSON(w, `{"status_code":0,"next_time":0,"video_list":null}`)
	})
	signIn(t, c, "1", "tok")

	page, err := c.Feed(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, page.Videos)
}

func TestGetUser(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/douyin/user/", r.URL.Path)
		assert.Equal(t, "9", r.URL.Query().Get("user_id"))
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		writeJSON(w, `{"status_code":0,"user":{
			"id":9,"name":"dave","avatar":"a.jpg","background_image":"bg.jpg","signature":"hello",
			"follow_count":3,"follower_count":4,"favorite_count":5,"total_favorited":6,"is_follow":true}}`)
	})
	signIn(t, c, "1", "tok")

	u, err := c.GetUser(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, User{
		ID: 9, Name: "dave", Avatar: "a.jpg", BackgroundImage: "bg.jpg", Signature: "hello",
		FollowCount: 3, FollowerCount: 4, FavoriteCount: 5, TotalFavorited: 6, IsFollow: true,
	}, u)
}

func TestGetUser_MissingUser(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"status_code":0}`)
	})
	signIn(t, c, "1", "tok")

	_, err := c.GetUser(context.Background(), 9)
	require.ErrorIs(t, err, ErrInvalidResponse)
}

func TestProfileEndpoints_RequireSession(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected without a session")
	})
	ctx := context.Background()

	_, err := c.GetUser(ctx, 1)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = c.PublishList(ctx, 1)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = c.FavoriteList(ctx, 1)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = c.FollowList(ctx, 1)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = c.FollowerList(ctx, 1)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = c.CommentList(ctx, 1)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestVideoLists(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/douyin/publish/list/":
			writeJSON(w, `{"status_code":0,"video_list":`+videosJSON(1, 3)+`}`)
		case "/douyin/favorite/list/":
			writeJSON(w, `{"status_code":0,"video_list":`+videosJSON(50, 1)+`}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	signIn(t, c, "1", "tok")
	ctx := context.Background()

	published, err := c.PublishList(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(published))

	liked, err := c.FavoriteList(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{50}, ids(liked))
}
