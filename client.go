package douyin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

const (
	defaultUserAgent = "douyin-gofun/1.0 (+https://github.com/RavensCloud/douyin-gofun)"
	defaultBaseURL   = "http://localhost:8005"
	defaultTimeout   = 10 * time.Second
)

// Endpoints lists the API paths relative to the base URL.
type Endpoints struct {
	Login        string
	Register     string
	User         string
	Feed         string
	Publish      string
	PublishList  string
	Favorite     string
	FavoriteList string
	Comment      string
	CommentList  string
	Relation     string
	FollowList   string
	FollowerList string
}

// DefaultEndpoints returns the stock douyin API paths.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:        "/douyin/user/login/",
		Register:     "/douyin/user/register/",
		User:         "/douyin/user/",
		Feed:         "/douyin/feed/",
		Publish:      "/douyin/publish/action/",
		PublishList:  "/douyin/publish/list/",
		Favorite:     "/douyin/favorite/action/",
		FavoriteList: "/douyin/favorite/list/",
		Comment:      "/douyin/comment/action/",
		CommentList:  "/douyin/comment/list/",
		Relation:     "/douyin/relation/action/",
		FollowList:   "/douyin/relation/follow/list/",
		FollowerList: "/douyin/relation/follower/list/",
	}
}

// Client is the single outbound path to the API. Every request carries the
// current session token; a 401 clears the session.
type Client struct {
	client    *http.Client
	proxy     string
	userAgent string
	baseURL   string
	endpoints Endpoints

	session        *SessionStore
	onUnauthorized func()
	log            *zap.Logger

	// Per-operation pacing. Unlimited unless configured.
	feedLimiter    *rate.Limiter
	profileLimiter *rate.Limiter
}

// defaultTransport returns an http.Transport with connection pooling and
// keep-alive.
func defaultTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
}

// New creates a Client bound to session. A nil session gets a fresh in-memory one.
func New(session *SessionStore) *Client {
	if session == nil {
		session = NewSessionStore(nil)
	}
	return &Client{
		client: &http.Client{
			Timeout:   defaultTimeout,
			Transport: defaultTransport(),
		},
		userAgent:      defaultUserAgent,
		baseURL:        defaultBaseURL,
		endpoints:      DefaultEndpoints(),
		session:        session,
		log:            zap.NewNop(),
		feedLimiter:    newLimiter(0),
		profileLimiter: newLimiter(0),
	}
}

func newLimiter(every time.Duration) *rate.Limiter {
	if every <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(every), 1)
}

// WithBaseURL sets the API root, e.g. "http://localhost:8005".
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = strings.TrimRight(base, "/")
	return c
}

// WithEndpoints replaces the API paths.
func (c *Client) WithEndpoints(e Endpoints) *Client {
	c.endpoints = e
	return c
}

// WithLogger sets the logger for failed calls and timings.
func (c *Client) WithLogger(log *zap.Logger) *Client {
	if log != nil {
		c.log = log
	}
	return c
}

// WithTimeout sets the connect+response budget for a single call.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.client.Timeout = d
	}
	return c
}

// WithFeedDelay sets the minimum spacing between feed requests.
func (c *Client) WithFeedDelay(d time.Duration) *Client {
	c.feedLimiter = newLimiter(d)
	return c
}

// WithProfileDelay sets the minimum spacing between profile and list requests.
func (c *Client) WithProfileDelay(d time.Duration) *Client {
	c.profileLimiter = newLimiter(d)
	return c
}

// OnUnauthorized registers fn to run once each time a 401 clears the session.
// Front ends use it to send the user back to the login entry point.
func (c *Client) OnUnauthorized(fn func()) *Client {
	c.onUnauthorized = fn
	return c
}

// Session returns the session store the client reads its token from.
func (c *Client) Session() *SessionStore { return c.session }

// SetProxy configures an HTTP/HTTPS or SOCKS5 proxy. Pooling settings are kept.
func (c *Client) SetProxy(proxyAddr string) error {
	if proxyAddr == "" {
		c.client.Transport = defaultTransport()
		c.proxy = ""
		return nil
	}

	u, err := url.Parse(proxyAddr)
	if err != nil {
		return fmt.Errorf("parse proxy url: %w", err)
	}

	base := defaultTransport()

	switch u.Scheme {
	case "http", "https":
		base.Proxy = http.ProxyURL(u)
	case "socks5":
		var auth *proxy.Auth
		if u.User != nil {
			pass, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pass}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return fmt.Errorf("socks5 proxy: %w", err)
		}
		dc, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return fmt.Errorf("socks5: context dialer not supported")
		}
		base.DialContext = dc.DialContext
	default:
		return fmt.Errorf("unsupported proxy scheme: %s", u.Scheme)
	}

	c.client.Transport = base
	c.proxy = proxyAddr
	return nil
}

// requireToken returns the session token or ErrNotAuthenticated.
func (c *Client) requireToken() (string, error) {
	token := c.session.Token()
	if token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

// doRequest builds and executes a request with the session token attached and
// maps failure statuses to sentinel errors. On success the caller owns the body.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	reqID := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	token := c.session.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		class := "transport"
		if errors.Is(err, context.Canceled) {
			class = "canceled"
		}
		c.logFailure(reqID, method, path, 0, class, start, err)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.log.Debug("request",
			zap.String("request_id", reqID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("dur", time.Since(start)),
		)
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()

	class, sentinel := classifyStatus(resp.StatusCode)
	c.logFailure(reqID, method, path, resp.StatusCode, class, start, nil)

	if resp.StatusCode == http.StatusUnauthorized {
		if c.session.Invalidate(token) {
			c.log.Info("session cleared after 401", zap.String("request_id", reqID))
			if c.onUnauthorized != nil {
				c.onUnauthorized()
			}
		}
	}
	return nil, fmt.Errorf("%w: http %d", sentinel, resp.StatusCode)
}

func classifyStatus(code int) (string, error) {
	switch {
	case code == http.StatusUnauthorized:
		return "unauthorized", ErrUnauthorized
	case code == http.StatusForbidden:
		return "forbidden", ErrForbidden
	case code == http.StatusNotFound:
		return "not_found", ErrNotFound
	case code == http.StatusTooManyRequests:
		return "rate_limited", ErrRateLimited
	case code >= 500:
		return "server", ErrServer
	default:
		return "unexpected_status", ErrUnexpectedStatus
	}
}

func (c *Client) logFailure(reqID, method, path string, status int, class string, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("request_id", reqID),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("class", class),
		zap.Duration("dur", time.Since(start)),
	}
	if status != 0 {
		fields = append(fields, zap.Int("status", status))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if class == "canceled" {
		c.log.Debug("request canceled", fields...)
		return
	}
	c.log.Warn("request failed", fields...)
}

// call performs a request and decodes the status envelope into out. A non-zero
// status_code comes back as *StatusError.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out statusCarrier) error {
	resp, err := c.doRequest(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrTransport, err)
		}
		return fmt.Errorf("%w: decode %s: %v", ErrInvalidResponse, path, err)
	}

	if st := out.status(); st.StatusCode != 0 {
		return &StatusError{Code: st.StatusCode, Msg: st.StatusMsg}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out statusCarrier) error {
	return c.call(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, in any, out statusCarrier) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.call(ctx, http.MethodPost, path, nil, bytes.NewReader(data), "application/json", out)
}
