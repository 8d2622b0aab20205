package douyin

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowAction(t *testing.T) {
	t.Parallel()
	var got relationActionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/douyin/relation/action/", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, `{"status_code":0}`)
	})
	signIn(t, c, "1", "tok")

	require.NoError(t, c.FollowAction(context.Background(), 3, ActionDo))
	assert.Equal(t, relationActionRequest{Token: "tok", ToUserID: "3", ActionType: "1"}, got)
}

func TestFollowAction_Validation(t *testing.T) {
	t.Parallel()
	c := New(nil)
	require.ErrorIs(t, c.FollowAction(context.Background(), 3, ActionDo), ErrNotAuthenticated)
	require.ErrorIs(t, c.FollowAction(context.Background(), 3, 0), ErrInvalidArgument)
}

func TestFollowLists(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("user_id"))
		switch r.URL.Path {
		case "/douyin/relation/follow/list/":
			writeJSON(w, `{"status_code":0,"user_list":[{"id":10,"name":"x"},{"id":11,"name":"y"}]}`)
		case "/douyin/relation/follower/list/":
			writeJSON(w, `{"status_code":0,"user_list":[{"id":12,"name":"z"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	signIn(t, c, "1", "tok")
	ctx := context.Background()

	following, err := c.FollowList(ctx, 3)
	require.NoError(t, err)
	require.Len(t, following, 2)
	assert.Equal(t, "y", following[1].Name)

	followers, err := c.FollowerList(ctx, 3)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.True(t, containsUser(followers, 12))
	assert.False(t, containsUser(followers, 10))
}
