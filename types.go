package douyin

// User is a public profile as returned by the user and relation endpoints.
type User struct {
	ID              int64
	Name            string
	Avatar          string
	BackgroundImage string
	Signature       string
	FollowCount     int64
	FollowerCount   int64
	FavoriteCount   int64
	TotalFavorited  int64
	IsFollow        bool
}

// Video is a single feed item with its engagement counters.
type Video struct {
	ID            int64
	Author        User
	PlayURL       string
	CoverURL      string
	FavoriteCount int64
	CommentCount  int64
	IsFavorite    bool
	Title         string
}

// Comment is a single comment on a video.
type Comment struct {
	ID         int64
	User       User
	Content    string
	CreateDate string
}

// FeedPage is one page of the feed plus the cursor to resume from.
type FeedPage struct {
	Videos   []Video
	NextTime int64
}

// LoginResult is the credential pair issued by login and register.
type LoginResult struct {
	UserID string
	Token  string
}

// ActionType distinguishes "do" from "undo" for toggleable actions.
type ActionType int

const (
	ActionDo   ActionType = 1
	ActionUndo ActionType = 2
)

func (a ActionType) valid() bool { return a == ActionDo || a == ActionUndo }
