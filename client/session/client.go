package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"
)

var (
	// ErrInvalidCredentials is returned by Login on a 401.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionExpired means the server refused the refresh cookie and the
	// local session was erased.
	ErrSessionExpired = errors.New("session expired")
)

// Client talks to the authentication service. A cookie jar carries the
// httpOnly refresh cookie between calls, the way a browser would; the
// access token itself lives only in the embedded Manager.
type Client struct {
	baseURL string
	http    *http.Client
	manager *Manager
}

// NewClient builds a client for the service at baseURL. Manager options
// (scheduler, broadcast, skew) are passed through.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}
	c.manager = NewManager(c.refreshSession, opts...)
	c.manager.Init()
	return c, nil
}

// Manager exposes the session manager, mainly so callers can observe the
// token or share its broadcast.
func (c *Client) Manager() *Manager { return c.manager }

type sessionPayload struct {
	Token       string `json:"token"`
	TokenExpiry int    `json:"tokenExpiry"`
	Username    string `json:"username"`
}

// Login authenticates and stores the returned access token. The refresh
// cookie lands in the jar as a side effect. Returns the username echoed by
// the server.
func (c *Client) Login(ctx context.Context, username, password string, rememberMe bool) (string, error) {
	body, err := json.Marshal(map[string]any{
		"username":   username,
		"password":   password,
		"rememberMe": rememberMe,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/authenticate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer drainAndClose(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return "", ErrInvalidCredentials
	default:
		return "", fmt.Errorf("authenticate: unexpected status %d", resp.StatusCode)
	}

	var payload sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("authenticate: decode response: %w", err)
	}

	c.manager.SetToken(payload.Token, time.Duration(payload.TokenExpiry)*time.Second)
	return payload.Username, nil
}

// Refresh forces a renewal outside the scheduled timer, e.g. on application
// startup when a refresh cookie may still be valid.
func (c *Client) Refresh(ctx context.Context) error {
	token, ttl, err := c.refreshSession(ctx)
	if err != nil {
		c.manager.EraseToken()
		return err
	}
	c.manager.SetToken(token, ttl)
	return nil
}

// Logout revokes the session server-side and erases the local token.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/logout", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err == nil {
		drainAndClose(resp.Body)
	}

	// local state goes regardless of what the server said
	c.manager.EraseToken()
	return err
}

// Do performs an authenticated request, attaching the Bearer token when one
// is held. A 401 or 403 response erases the token before being returned, so
// the application can redirect to login.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if token, ok := c.manager.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.manager.EraseToken()
	}
	return resp, nil
}

// refreshSession is the Manager's RefreshFunc: it exchanges the refresh
// cookie for a new access token.
func (c *Client) refreshSession(ctx context.Context) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/refresh-token", nil)
	if err != nil {
		return "", 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("%w: refresh endpoint answered %d", ErrSessionExpired, resp.StatusCode)
	}

	var payload sessionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", 0, fmt.Errorf("refresh: decode response: %w", err)
	}
	return payload.Token, time.Duration(payload.TokenExpiry) * time.Second, nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
