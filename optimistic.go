package douyin

import (
	"context"
	"sync"
)

// FavoriteActor sends like/unlike. *Client satisfies it.
type FavoriteActor interface {
	FavoriteAction(ctx context.Context, videoID int64, action ActionType) error
}

// FollowActor sends follow/unfollow. *Client satisfies it.
type FollowActor interface {
	FollowAction(ctx context.Context, toUserID int64, action ActionType) error
}

// CommentService lists, posts and deletes comments. *Client satisfies it.
type CommentService interface {
	CommentList(ctx context.Context, videoID int64) ([]Comment, error)
	PostComment(ctx context.Context, videoID int64, text string) (Comment, error)
	DeleteComment(ctx context.Context, videoID, commentID int64) error
}

// toggle is a boolean with a counter that moves with it. The local state is
// flipped before the request goes out and restored if the request fails.
type toggle struct {
	mu       sync.Mutex
	on       bool
	count    int64
	inFlight bool
}

func (t *toggle) state() (bool, int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.on, t.count
}

func (t *toggle) run(ctx context.Context, send func(context.Context, ActionType) error) error {
	t.mu.Lock()
	if t.inFlight {
		t.mu.Unlock()
		return ErrActionInFlight
	}
	prevOn, prevCount := t.on, t.count
	t.on = !t.on
	action := ActionUndo
	if t.on {
		action = ActionDo
		t.count++
	} else {
		t.count--
	}
	t.inFlight = true
	t.mu.Unlock()

	err := send(ctx, action)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.inFlight = false
	if err != nil {
		t.on, t.count = prevOn, prevCount
		return err
	}
	return nil
}

// FavoriteToggle is the like button of one video.
type FavoriteToggle struct {
	actor   FavoriteActor
	videoID int64
	t       toggle
}

// NewFavoriteToggle starts from the video's is_favorite flag and favorite count.
func NewFavoriteToggle(actor FavoriteActor, v Video) *FavoriteToggle {
	return &FavoriteToggle{
		actor:   actor,
		videoID: v.ID,
		t:       toggle{on: v.IsFavorite, count: v.FavoriteCount},
	}
}

// Toggle likes or unlikes. The local flag and count change immediately; a
// failed request puts them back and returns the error.
func (f *FavoriteToggle) Toggle(ctx context.Context) error {
	return f.t.run(ctx, func(ctx context.Context, action ActionType) error {
		return f.actor.FavoriteAction(ctx, f.videoID, action)
	})
}

// State returns the local liked flag and favorite count.
func (f *FavoriteToggle) State() (liked bool, count int64) {
	return f.t.state()
}

// FollowToggle is the follow button on a profile.
type FollowToggle struct {
	actor    FollowActor
	toUserID int64
	t        toggle
}

func NewFollowToggle(actor FollowActor, toUserID int64, following bool, followerCount int64) *FollowToggle {
	return &FollowToggle{
		actor:    actor,
		toUserID: toUserID,
		t:        toggle{on: following, count: followerCount},
	}
}

// Toggle follows or unfollows with the same rollback rules as FavoriteToggle.
func (f *FollowToggle) Toggle(ctx context.Context) error {
	return f.t.run(ctx, func(ctx context.Context, action ActionType) error {
		return f.actor.FollowAction(ctx, f.toUserID, action)
	})
}

// State returns the local following flag and follower count.
func (f *FollowToggle) State() (following bool, followers int64) {
	return f.t.state()
}

// CommentThread holds the comments of one video as shown to the user.
type CommentThread struct {
	svc     CommentService
	videoID int64

	mu       sync.Mutex
	comments []Comment
}

func NewCommentThread(svc CommentService, videoID int64) *CommentThread {
	return &CommentThread{svc: svc, videoID: videoID}
}

// Load replaces the thread with the server's list.
func (t *CommentThread) Load(ctx context.Context) error {
	comments, err := t.svc.CommentList(ctx, t.videoID)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.comments = comments
	t.mu.Unlock()
	return nil
}

// Post sends text and, once the server stores it, puts the returned comment at
// the front of the thread.
func (t *CommentThread) Post(ctx context.Context, text string) (Comment, error) {
	c, err := t.svc.PostComment(ctx, t.videoID, text)
	if err != nil {
		return Comment{}, err
	}
	t.mu.Lock()
	t.comments = append([]Comment{c}, t.comments...)
	t.mu.Unlock()
	return c, nil
}

// Delete removes a comment on the server and then from the thread.
func (t *CommentThread) Delete(ctx context.Context, commentID int64) error {
	if err := t.svc.DeleteComment(ctx, t.videoID, commentID); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.comments[:0]
	for _, c := range t.comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	t.comments = kept
	return nil
}

// Comments returns a copy of the thread, newest first.
func (t *CommentThread) Comments() []Comment {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Comment, len(t.comments))
	copy(out, t.comments)
	return out
}
