package douyin

import (
	"context"
	"fmt"
)

// Login exchanges a username and password for a credential pair. It does not
// touch the session; see SignIn.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	res, err := c.authenticate(ctx, c.endpoints.Login, username, password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	return res, nil
}

// Register creates an account and returns its credential pair.
func (c *Client) Register(ctx context.Context, username, password string) (LoginResult, error) {
	res, err := c.authenticate(ctx, c.endpoints.Register, username, password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("register: %w", err)
	}
	return res, nil
}

// SignIn logs in (or registers when register is true) and stores the returned
// pair in the client's session. The channel reports the background profile fetch.
func (c *Client) SignIn(ctx context.Context, username, password string, register bool) (LoginResult, <-chan error, error) {
	auth := c.Login
	if register {
		auth = c.Register
	}
	res, err := auth(ctx, username, password)
	if err != nil {
		return LoginResult{}, nil, err
	}
	done, err := c.session.Login(ctx, res.UserID, res.Token, c)
	if err != nil {
		return LoginResult{}, nil, err
	}
	return res, done, nil
}

// Logout drops the session; the server keeps no client state to revoke.
func (c *Client) Logout() error {
	return c.session.Logout()
}

func (c *Client) authenticate(ctx context.Context, path, username, password string) (LoginResult, error) {
	if username == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: username and password are required", ErrInvalidArgument)
	}

	var resp loginResponse
	if err := c.postJSON(ctx, path, credentialsRequest{Username: username, Password: password}, &resp); err != nil {
		return LoginResult{}, err
	}
	if resp.UserID == 0 || resp.Token == "" {
		return LoginResult{}, fmt.Errorf("%w: missing user_id or token", ErrInvalidResponse)
	}
	return LoginResult{UserID: formatID(resp.UserID), Token: resp.Token}, nil
}
