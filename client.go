// Package whatbird is a Go client for the What Bird wallet authentication service.
// It signs challenges with a Solana key, so bots and scripts can log in the same
// way the browser does. It only depends on the standard library HTTP stack.
package whatbird

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	solanaAuthPath = "/api/solana-auth"
	refreshPath    = "/api/auth/refresh"
	logoutPath     = "/api/auth/logout"
	mePath         = "/api/me"
)

// Client talks to the auth service and keeps the tokens of the current session.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	appName    string
	now        func() time.Time

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithAppName sets the application name embedded in challenges
func WithAppName(name string) ClientOption {
	return func(c *Client) { c.appName = name }
}

// WithNow overrides the time source used for challenge timestamps
func WithNow(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// NewClient creates a client for the service at baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		appName:    "What Bird",
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login signs a challenge with key and exchanges it for a session
func (c *Client) Login(ctx context.Context, key ed25519.PrivateKey) (*LoginResponse, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, ErrInvalidKey
	}

	req := NewSignInRequest(key, c.appName, c.now())

	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, solanaAuthPath, "", req, &resp); err != nil {
		return nil, err
	}
	c.setTokens(resp.AccessToken, resp.RefreshToken)
	return &resp, nil
}

// Refresh rotates the refresh token and returns new tokens
func (c *Client) Refresh(ctx context.Context) (*LoginResponse, error) {
	_, refreshToken := c.Tokens()
	if refreshToken == "" {
		return nil, ErrNoSession
	}

	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, refreshPath, "", refreshRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		return nil, err
	}
	c.setTokens(resp.AccessToken, resp.RefreshToken)
	return &resp, nil
}

// Logout invalidates the refresh token and forgets the session.
// The local tokens are dropped even when the request fails.
func (c *Client) Logout(ctx context.Context) error {
	accessToken, refreshToken := c.Tokens()
	if accessToken == "" && refreshToken == "" {
		return nil
	}
	defer c.setTokens("", "")

	return c.do(ctx, http.MethodPost, logoutPath, accessToken, refreshRequest{RefreshToken: refreshToken}, nil)
}

// Me returns the session as seen by the server
func (c *Client) Me(ctx context.Context) (*MeResponse, error) {
	accessToken, _ := c.Tokens()
	if accessToken == "" {
		return nil, ErrNoSession
	}

	var resp MeResponse
	if err := c.do(ctx, http.MethodGet, mePath, accessToken, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Tokens returns the current access and refresh tokens
func (c *Client) Tokens() (accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

func (c *Client) setTokens(accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken, c.refreshToken = accessToken, refreshToken
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
