package douyin

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// scriptedFeed serves queued pages in order and records the cursors it was
// asked for. When block is set each call waits for a value on it.
type scriptedFeed struct {
	mu      sync.Mutex
	pages   []FeedPage
	errs    []error
	cursors []int64
	started chan struct{}
	block   chan struct{}
}

func (f *scriptedFeed) Feed(ctx context.Context, latestTime int64) (FeedPage, error) {
	f.mu.Lock()
	f.cursors = append(f.cursors, latestTime)
	var page FeedPage
	var err error
	if len(f.pages) > 0 {
		page, f.pages = f.pages[0], f.pages[1:]
	}
	if len(f.errs) > 0 {
		err, f.errs = f.errs[0], f.errs[1:]
	}
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return page, err
}

func (f *scriptedFeed) calls() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.cursors))
	copy(out, f.cursors)
	return out
}

func pageOf(first, n int, next int64) FeedPage {
	videos := make([]Video, 0, n)
	for i := range n {
		videos = append(videos, Video{ID: int64(first + i)})
	}
	return FeedPage{Videos: videos, NextTime: next}
}

func ids(videos []Video) []int64 {
	out := make([]int64, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.ID)
	}
	return out
}

func TestPager_InitialState(t *testing.T) {
	t.Parallel()
	p := NewPager(&scriptedFeed{})

	assert.Equal(t, PagerIdle, p.State())
	assert.Zero(t, p.Cursor())
	assert.Zero(t, p.Len())
	assert.Empty(t, p.Videos())
}

func TestPager_LoadsUntilExhausted(t *testing.T) {
	t.Parallel()
	feed := &scriptedFeed{pages: []FeedPage{pageOf(1, 10, 1000), {NextTime: 0}}}
	p := NewPager(feed, WithPagerLogger(zaptest.NewLogger(t)))
	ctx := context.Background()

	n, err := p.LoadInitial(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, PagerIdle, p.State())
	assert.Equal(t, int64(1000), p.Cursor())

	n, err = p.LoadMore(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, PagerExhausted, p.State())
	assert.Equal(t, 10, p.Len())
	assert.Equal(t, int64(1000), p.Cursor(), "cursor is kept when the feed runs dry")
	assert.Equal(t, []int64{0, 1000}, feed.calls())

	// Exhausted: no further network calls.
	n, err = p.LoadMore(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, feed.calls(), 2)
}

func TestPager_LoadMoreWhileLoadingIsNoop(t *testing.T) {
	t.Parallel()
	feed := &scriptedFeed{
		pages:   []FeedPage{pageOf(1, 3, 500)},
		started: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	p := NewPager(feed)
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() {
		_, err := p.LoadInitial(ctx)
		errc <- err
	}()
	<-feed.started
	assert.Equal(t, PagerLoading, p.State())

	n, err := p.LoadMore(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = p.LoadInitial(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	close(feed.block)
	require.NoError(t, <-errc)
	assert.Len(t, feed.calls(), 1)
	assert.Equal(t, 3, p.Len())
}

func TestPager_FailureRestoresState(t *testing.T) {
	t.Parallel()
	feed := &scriptedFeed{
		pages: []FeedPage{pageOf(1, 2, 700), {}},
		errs:  []error{nil, ErrServer},
	}
	p := NewPager(feed)
	ctx := context.Background()

	_, err := p.LoadInitial(ctx)
	require.NoError(t, err)

	_, err = p.LoadMore(ctx)
	require.ErrorIs(t, err, ErrServer)
	assert.Equal(t, PagerIdle, p.State())
	assert.Equal(t, int64(700), p.Cursor())
	assert.Equal(t, []int64{1, 2}, ids(p.Videos()))
}

func TestPager_InitialFailureFromExhaustedStaysExhausted(t *testing.T) {
	t.Parallel()
	feed := &scriptedFeed{
		pages: []FeedPage{{}, {}},
		errs:  []error{nil, ErrTransport},
	}
	p := NewPager(feed)

	_, err := p.LoadInitial(context.Background())
	require.NoError(t, err)
	require.Equal(t, PagerExhausted, p.State())

	_, err = p.LoadInitial(context.Background())
	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, PagerExhausted, p.State())
}

func TestPager_RefreshReplacesList(t *testing.T) {
	t.Parallel()
	feed := &scriptedFeed{pages: []FeedPage{
		pageOf(1, 2, 900),
		pageOf(3, 2, 800),
		pageOf(10, 1, 2000),
	}}
	p := NewPager(feed)
	ctx := context.Background()

	_, err := p.LoadInitial(ctx)
	require.NoError(t, err)
	_, err = p.LoadMore(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, p.Len())

	_, err = p.LoadInitial(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, ids(p.Videos()))
	assert.Equal(t, int64(2000), p.Cursor())
	assert.Equal(t, []int64{0, 900, 0}, feed.calls())
}

func TestPager_EmptyRefreshClearsCursor(t *testing.T) {
	t.Parallel()
	feed := &scriptedFeed{pages: []FeedPage{pageOf(1, 2, 900), {}}}
	p := NewPager(feed)
	ctx := context.Background()

	_, err := p.LoadInitial(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(900), p.Cursor())

	n, err := p.LoadInitial(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, p.Len())
	assert.Zero(t, p.Cursor())
	assert.Equal(t, PagerExhausted, p.State())
}

func TestPager_DuplicatesKeptByDefault(t *testing.T) {
	t.Parallel()
	feed := &scriptedFeed{pages: []FeedPage{pageOf(1, 3, 900), pageOf(3, 2, 800)}}
	p := NewPager(feed)
	ctx := context.Background()

	_, err := p.LoadInitial(ctx)
	require.NoError(t, err)
	n, err := p.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int64{1, 2, 3, 3, 4}, ids(p.Videos()))
}

func TestPager_WithDedupe(t *testing.T) {
	t.Parallel()
	feed := &scriptedFeed{pages: []FeedPage{pageOf(1, 3, 900), pageOf(3, 2, 800)}}
	p := NewPager(feed, WithDedupe())
	ctx := context.Background()

	_, err := p.LoadInitial(ctx)
	require.NoError(t, err)
	n, err := p.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids(p.Videos()))
	assert.Equal(t, int64(800), p.Cursor())
}

func TestPager_ResetDiscardsInFlight(t *testing.T) {
	t.Parallel()
	feed := &scriptedFeed{
		pages:   []FeedPage{pageOf(1, 5, 100)},
		started: make(chan struct{}, 1),
		block:   make(chan struct{}),
	}
	p := NewPager(feed)

	errc := make(chan error, 1)
	go func() {
		_, err := p.LoadInitial(context.Background())
		errc <- err
	}()
	<-feed.started
	p.Reset()
	close(feed.block)
	require.NoError(t, <-errc)

	assert.Equal(t, PagerIdle, p.State())
	assert.Zero(t, p.Len())
	assert.Zero(t, p.Cursor())
}

func TestPager_VideosIsCopy(t *testing.T) {
	t.Parallel()
	p := NewPager(&scriptedFeed{pages: []FeedPage{pageOf(1, 1, 10)}})
	_, err := p.LoadInitial(context.Background())
	require.NoError(t, err)

	v := p.Videos()
	v[0].ID = 99
	assert.Equal(t, int64(1), p.Videos()[0].ID)
}

func TestPagerState_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "idle", PagerIdle.String())
	assert.Equal(t, "loading", PagerLoading.String())
	assert.Equal(t, "exhausted", PagerExhausted.String())
	assert.Equal(t, "unknown", PagerState(9).String())
}

// End to end against the HTTP feed endpoint.
func TestPager_WithClient(t *testing.T) {
	t.Parallel()
	var (
		mu      sync.Mutex
		cursors []string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/douyin/feed/", r.URL.Path)
		lt := r.URL.Query().Get("latest_time")
		mu.Lock()
		cursors = append(cursors, lt)
		mu.Unlock()
		if lt == "0" {
			writeJSON(w, `{"status_code":0,"next_time":1000,"video_list":`+videosJSON(1, 10)+`}`)
			return
		}
		writeJSON(w, `{"status_code":0,"next_time":0,"video_list":[]}`)
	})
	p := NewPager(c)
	ctx := context.Background()

	_, err := p.LoadInitial(ctx)
	require.NoError(t, err)
	_, err = p.LoadMore(ctx)
	require.NoError(t, err)

	assert.Equal(t, PagerExhausted, p.State())
	assert.Equal(t, 10, p.Len())
	mu.Lock()
	assert.Equal(t, []string{"0", strconv.Itoa(1000)}, cursors)
	mu.Unlock()
}

func TestPager_PacedByFeedDelay(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"status_code":0,"next_time":5,"video_list":`+videosJSON(1, 1)+`}`)
	})
	c.WithFeedDelay(100 * time.Millisecond)
	p := NewPager(c)
	ctx := context.Background()

	_, err := p.LoadInitial(ctx)
	require.NoError(t, err)
	start := time.Now()
	_, err = p.LoadMore(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}
