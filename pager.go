package douyin

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// PagerState is the lifecycle of a feed pager.
type PagerState int

const (
	PagerIdle PagerState = iota
	PagerLoading
	PagerExhausted
)

func (s PagerState) String() string {
	switch s {
	case PagerIdle:
		return "idle"
	case PagerLoading:
		return "loading"
	case PagerExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// FeedFetcher fetches one feed page. *Client satisfies it.
type FeedFetcher interface {
	Feed(ctx context.Context, latestTime int64) (FeedPage, error)
}

// Pager walks the feed with the next_time cursor and accumulates the pages it
// has seen. At most one fetch is in flight; calls made while loading, or after
// the feed ran dry, return immediately without touching the network. When to
// load more is the caller's decision.
type Pager struct {
	fetch  FeedFetcher
	dedupe bool
	log    *zap.Logger

	mu     sync.Mutex
	state  PagerState
	cursor int64
	videos []Video
	seen   map[int64]struct{}
	gen    uint64
}

// PagerOption configures a Pager.
type PagerOption func(*Pager)

// WithDedupe drops videos whose ID is already in the accumulated list. Off by
// default: pages are appended as served, duplicates included.
func WithDedupe() PagerOption {
	return func(p *Pager) { p.dedupe = true }
}

// WithPagerLogger sets the logger for page transitions.
func WithPagerLogger(log *zap.Logger) PagerOption {
	return func(p *Pager) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPager returns an idle pager positioned at the most recent video.
func NewPager(fetch FeedFetcher, opts ...PagerOption) *Pager {
	p := &Pager{
		fetch: fetch,
		log:   zap.NewNop(),
		seen:  make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadInitial fetches the newest page and replaces the accumulated list with
// it. It is a no-op while a load is in flight and otherwise works from any
// state, so it doubles as pull-to-refresh. It returns how many videos were added.
func (p *Pager) LoadInitial(ctx context.Context) (int, error) {
	p.mu.Lock()
	if p.state == PagerLoading {
		p.mu.Unlock()
		return 0, nil
	}
	prev := p.state
	p.state = PagerLoading
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	page, err := p.fetch.Feed(ctx, 0)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return 0, nil
	}
	if err != nil {
		p.state = prev
		return 0, err
	}

	p.videos = nil
	p.seen = make(map[int64]struct{})
	p.cursor = 0
	return p.applyLocked(page), nil
}

// LoadMore fetches the page after the cursor and appends it. It only acts from
// the idle state.
func (p *Pager) LoadMore(ctx context.Context) (int, error) {
	p.mu.Lock()
	if p.state != PagerIdle {
		p.mu.Unlock()
		return 0, nil
	}
	p.state = PagerLoading
	p.gen++
	gen := p.gen
	cursor := p.cursor
	p.mu.Unlock()

	page, err := p.fetch.Feed(ctx, cursor)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return 0, nil
	}
	if err != nil {
		p.state = PagerIdle
		return 0, err
	}
	return p.applyLocked(page), nil
}

// Reset forgets everything and discards any in-flight result.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.state = PagerIdle
	p.cursor = 0
	p.videos = nil
	p.seen = make(map[int64]struct{})
}

func (p *Pager) applyLocked(page FeedPage) int {
	if len(page.Videos) == 0 {
		p.state = PagerExhausted
		p.log.Debug("feed exhausted", zap.Int64("cursor", p.cursor), zap.Int("total", len(p.videos)))
		return 0
	}

	added := 0
	for _, v := range page.Videos {
		if p.dedupe {
			if _, dup := p.seen[v.ID]; dup {
				continue
			}
			p.seen[v.ID] = struct{}{}
		}
		p.videos = append(p.videos, v)
		added++
	}
	p.cursor = page.NextTime
	p.state = PagerIdle
	p.log.Debug("feed page",
		zap.Int("received", len(page.Videos)),
		zap.Int("added", added),
		zap.Int64("next_time", page.NextTime),
	)
	return added
}

// State returns the current state.
func (p *Pager) State() PagerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Cursor returns the next_time the next LoadMore will send.
func (p *Pager) Cursor() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Len returns the number of accumulated videos.
func (p *Pager) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.videos)
}

// Videos returns a copy of the accumulated list in arrival order.
func (p *Pager) Videos() []Video {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Video, len(p.videos))
	copy(out, p.videos)
	return out
}
