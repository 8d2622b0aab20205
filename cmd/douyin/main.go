// Command douyin is a terminal client for the douyin short-video API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	douyin "github.com/RavensCloud/douyin-gofun"
	"github.com/RavensCloud/douyin-gofun/internal/config"
	"go.uber.org/zap"
	"golang.org/x/term"
)

func usage() {
	fmt.Fprintf(os.Stderr, `douyin CLI
Usage:
  douyin [-base URL] [-proxy URL] [-timeout D] [-config-dir DIR] [-log-level L] <cmd> [args]

Commands:
  login      -u <username> [-p <password>]
  register   -u <username> [-p <password>]
  logout
  whoami
  feed       [-limit N] [-dedupe]
  user       -id <user id>
  videos     [-id <user id>]
  likes      [-id <user id>]
  like       -video <id>
  unlike     -video <id>
  comments   -video <id>
  comment    -video <id> -text <text>
  uncomment  -video <id> -id <comment id>
  follow     -id <user id>
  unfollow   -id <user id>
  following  [-id <user id>]
  followers  [-id <user id>]
  profile    [-id <user id>]
  publish    -file <path> -title <title>
`)
}

// errUsage asks main to print usage and exit with status 2.
var errUsage = errors.New("usage")

func main() {
	if err := run(); err != nil {
		os.Exit(report(os.Stderr, err))
	}
}

// run does the work of main and returns instead of exiting so deferred
// cleanup always runs.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	base := flag.String("base", cfg.BaseURL, "API base URL")
	proxyURL := flag.String("proxy", cfg.Proxy, "Proxy URL (http/https/socks5)")
	timeout := flag.Duration("timeout", cfg.Timeout, "Per-request timeout")
	configDir := flag.String("config-dir", cfg.ConfigDir, "Session storage directory")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		return errUsage
	}
	cmd, args := flag.Arg(0), flag.Args()[1:]

	logger, err := newLogger(*logLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	storage := douyin.NewFileStorage(*configDir).WithLogger(logger)
	session := douyin.NewSessionStore(storage, douyin.WithSessionLogger(logger))

	c := douyin.New(session).
		WithBaseURL(*base).
		WithTimeout(*timeout).
		WithLogger(logger).
		WithFeedDelay(cfg.FeedDelay).
		WithProfileDelay(cfg.ProfileDelay).
		OnUnauthorized(func() {
			fmt.Fprintln(os.Stderr, "session expired, run: douyin login")
		})

	if *proxyURL != "" {
		if err := c.SetProxy(*proxyURL); err != nil {
			return fmt.Errorf("set proxy: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Only whoami waits for the background profile check; other commands find
	// out about a dead token from their own 401.
	var loader douyin.ProfileLoader
	if cmd == "whoami" {
		loader = c
	}
	restored := session.Restore(ctx, loader)

	switch cmd {
	case "login", "register":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		u := fs.String("u", "", "username")
		p := fs.String("p", "", "password")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		if err := requireFlag(*u != "", "-u"); err != nil {
			return err
		}
		password := *p
		if password == "" {
			password, err = readPassword()
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
		}

		res, done, err := c.SignIn(ctx, *u, password, cmd == "register")
		if err != nil {
			return err
		}
		if done != nil {
			<-done
		}
		fmt.Printf("Logged in as %s (user %s). Session saved to %s\n", *u, res.UserID, storage.Path())

	case "logout":
		if err := c.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")

	case "whoami":
		if restored == nil {
			fmt.Println("Not logged in.")
			return nil
		}
		if err := <-restored; err != nil {
			return err
		}
		snap := session.Snapshot()
		if snap.User != nil {
			printUser(os.Stdout, *snap.User)
		} else {
			fmt.Printf("User ID: %s\n", snap.UserID)
		}

	case "feed":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		limit := fs.Int("limit", 10, "Max videos to show")
		dedupe := fs.Bool("dedupe", false, "Drop videos already shown")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}

		var opts []douyin.PagerOption
		opts = append(opts, douyin.WithPagerLogger(logger))
		if *dedupe {
			opts = append(opts, douyin.WithDedupe())
		}
		videos, err := collectFeed(ctx, douyin.NewPager(c, opts...), *limit)
		if err != nil {
			return err
		}
		printVideos(os.Stdout, videos)

	case "user":
		id, err := userIDFlag(cmd, args, session, true)
		if err != nil {
			return err
		}
		u, err := c.GetUser(ctx, id)
		if err != nil {
			return err
		}
		printUser(os.Stdout, u)

	case "videos", "likes":
		id, err := userIDFlag(cmd, args, session, false)
		if err != nil {
			return err
		}
		list := c.PublishList
		if cmd == "likes" {
			list = c.FavoriteList
		}
		videos, err := list(ctx, id)
		if err != nil {
			return err
		}
		printVideos(os.Stdout, videos)

	case "like", "unlike":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		video := fs.Int64("video", 0, "video id")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		if err := requireFlag(*video != 0, "-video"); err != nil {
			return err
		}

		action := douyin.ActionDo
		if cmd == "unlike" {
			action = douyin.ActionUndo
		}
		if err := c.FavoriteAction(ctx, *video, action); err != nil {
			return err
		}
		fmt.Println("ok")

	case "comments":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		video := fs.Int64("video", 0, "video id")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		if err := requireFlag(*video != 0, "-video"); err != nil {
			return err
		}

		thread := douyin.NewCommentThread(c, *video)
		if err := thread.Load(ctx); err != nil {
			return err
		}
		printComments(os.Stdout, thread.Comments())

	case "comment":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		video := fs.Int64("video", 0, "video id")
		text := fs.String("text", "", "comment text")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		if err := requireFlag(*video != 0, "-video"); err != nil {
			return err
		}

		cm, err := c.PostComment(ctx, *video, *text)
		if err != nil {
			return err
		}
		printComments(os.Stdout, []douyin.Comment{cm})

	case "uncomment":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		video := fs.Int64("video", 0, "video id")
		id := fs.Int64("id", 0, "comment id")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		if err := requireFlag(*video != 0 && *id != 0, "-video and -id"); err != nil {
			return err
		}

		if err := c.DeleteComment(ctx, *video, *id); err != nil {
			return err
		}
		fmt.Println("ok")

	case "follow", "unfollow":
		id, err := userIDFlag(cmd, args, session, true)
		if err != nil {
			return err
		}
		action := douyin.ActionDo
		if cmd == "unfollow" {
			action = douyin.ActionUndo
		}
		if err := c.FollowAction(ctx, id, action); err != nil {
			return err
		}
		fmt.Println("ok")

	case "following", "followers":
		id, err := userIDFlag(cmd, args, session, false)
		if err != nil {
			return err
		}
		list := c.FollowList
		if cmd == "followers" {
			list = c.FollowerList
		}
		users, err := list(ctx, id)
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Printf("%d\t%s\n", u.ID, u.Name)
		}
		fmt.Printf("\nTotal: %d users\n", len(users))

	case "profile":
		id, err := userIDFlag(cmd, args, session, false)
		if err != nil {
			return err
		}
		p, err := c.LoadProfile(ctx, id)
		if err != nil {
			return err
		}
		printProfile(os.Stdout, p)

	case "publish":
		fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
		file := fs.String("file", "", "video file")
		title := fs.String("title", "", "video title")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		if err := requireFlag(*file != "" && *title != "", "-file and -title"); err != nil {
			return err
		}

		fmt.Println("Uploading...")
		if err := c.PublishFile(ctx, *file, *title); err != nil {
			return err
		}
		fmt.Println("Published.")

	default:
		return errUsage
	}
	return nil
}

// newLogger builds a development logger for "debug" and a production logger
// at the given level otherwise.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(level, "debug") {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = lvl
	return cfg.Build()
}

// collectFeed pages through the feed until limit videos are loaded or the feed
// runs dry.
func collectFeed(ctx context.Context, p *douyin.Pager, limit int) ([]douyin.Video, error) {
	if _, err := p.LoadInitial(ctx); err != nil {
		return nil, err
	}
	for p.Len() < limit && p.State() == douyin.PagerIdle {
		if _, err := p.LoadMore(ctx); err != nil {
			return nil, err
		}
	}
	videos := p.Videos()
	if len(videos) > limit {
		videos = videos[:limit]
	}
	return videos, nil
}

// userIDFlag parses -id for cmd. When the flag is optional it defaults to the
// logged-in user.
func userIDFlag(cmd string, args []string, session *douyin.SessionStore, required bool) (int64, error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	id := fs.Int64("id", 0, "user id")
	if err := fs.Parse(args); err != nil {
		return 0, errUsage
	}
	if *id != 0 {
		return *id, nil
	}
	if err := requireFlag(!required, "-id"); err != nil {
		return 0, err
	}

	self, err := strconv.ParseInt(session.UserID(), 10, 64)
	if err != nil {
		return 0, douyin.ErrNotAuthenticated
	}
	return self, nil
}

func requireFlag(ok bool, name string) error {
	if !ok {
		return fmt.Errorf("need %s", name)
	}
	return nil
}

func readPassword() (string, error) {
	fmt.Print("Password: ")
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// report prints err for the user and returns the process exit status.
func report(w io.Writer, err error) int {
	switch {
	case errors.Is(err, errUsage):
		usage()
		return 2
	case errors.Is(err, douyin.ErrNotAuthenticated), errors.Is(err, douyin.ErrUnauthorized):
		fmt.Fprintln(w, "please log in first: douyin login -u <username>")
	default:
		if se, ok := douyin.IsStatus(err); ok {
			fmt.Fprintf(w, "server refused (%d): %s\n", se.Code, se.Msg)
		} else {
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}
	return 1
}

func printUser(w io.Writer, u douyin.User) {
	fmt.Fprintf(w, "User:      %s\n", u.Name)
	fmt.Fprintf(w, "ID:        %d\n", u.ID)
	fmt.Fprintf(w, "Followers: %d\n", u.FollowerCount)
	fmt.Fprintf(w, "Following: %d\n", u.FollowCount)
	fmt.Fprintf(w, "Likes:     %d\n", u.TotalFavorited)
	fmt.Fprintf(w, "Followed:  %v\n", u.IsFollow)
	if u.Signature != "" {
		fmt.Fprintf(w, "Bio:       %s\n", u.Signature)
	}
}

func printVideos(w io.Writer, videos []douyin.Video) {
	for i, v := range videos {
		liked := ""
		if v.IsFavorite {
			liked = ", liked"
		}
		fmt.Fprintf(w, "[%d] %d by @%s: %d likes, %d comments%s\n",
			i+1, v.ID, v.Author.Name, v.FavoriteCount, v.CommentCount, liked)
		if v.Title != "" {
			fmt.Fprintf(w, "    %s\n", v.Title)
		}
		fmt.Fprintf(w, "    %s\n", v.PlayURL)
	}
	fmt.Fprintf(w, "\nTotal: %d videos\n", len(videos))
}

func printComments(w io.Writer, comments []douyin.Comment) {
	for _, cm := range comments {
		fmt.Fprintf(w, "#%d @%s (%s): %s\n", cm.ID, cm.User.Name, cm.CreateDate, cm.Content)
	}
}

func printProfile(w io.Writer, p douyin.Profile) {
	printUser(w, p.User)
	fmt.Fprintf(w, "Videos:    %d\n", len(p.Videos))
	fmt.Fprintf(w, "Liked:     %d\n", len(p.Liked))
	switch {
	case p.IsOwn:
		fmt.Fprintln(w, "This is you.")
	case p.IsFollowing:
		fmt.Fprintln(w, "You follow this user.")
	}
}
