// Package gateway talks to the credential gateway over HTTP and WebSocket.
//
// Client implements session.Gateway and session.ProfileSource. The persisted
// credential is the gateway's refresh token; the short-lived access token
// stays in memory only.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/models"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
)

// ClientOptions configures a Client.
type ClientOptions struct {
	// Timeout bounds each request when HTTPClient is nil.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is the HTTP credential gateway client.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger

	mu      sync.Mutex
	access  map[string]string // refresh token -> access token
	current string            // access token of the most recent grant
}

// NewClient builds a client for the gateway at baseURL.
func NewClient(baseURL string, opts ClientOptions) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		log:     logger.For(opts.Logger, "gateway"),
		access:  make(map[string]string),
	}
}

// ─── session.Gateway ───

func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Grant, error) {
	var tokens models.AuthTokens
	err := c.do(ctx, http.MethodPost, "/api/auth/login", "", models.LoginRequest{
		Email:    email,
		Password: password,
	}, &tokens)
	if err != nil {
		return nil, err
	}
	return c.remember(&tokens), nil
}

func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*models.Grant, error) {
	var tokens models.AuthTokens
	err := c.do(ctx, http.MethodPost, "/api/auth/register", "", models.CreateUserRequest{
		Email:    email,
		Password: password,
		FullName: fullName,
	}, &tokens)
	if err != nil {
		return nil, err
	}
	return c.remember(&tokens), nil
}

func (c *Client) SignOut(ctx context.Context, credential string) error {
	c.forget(credential)
	return c.do(ctx, http.MethodPost, "/api/auth/logout", "", refreshRequest{RefreshToken: credential}, nil)
}

// RestoreSession rotates credential. A credential the gateway rejects yields
// (nil, nil); transport and server failures are returned.
func (c *Client) RestoreSession(ctx context.Context, credential string) (*models.Grant, error) {
	var tokens models.AuthTokens
	err := c.do(ctx, http.MethodPost, "/api/auth/refresh", "", refreshRequest{RefreshToken: credential}, &tokens)
	if errors.Is(err, pkg.ErrInvalidCredentials) {
		c.forget(credential)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.forget(credential)
	return c.remember(&tokens), nil
}

// ─── session.ProfileSource ───

func (c *Client) Profile(ctx context.Context, credential string) (*models.Profile, error) {
	token, ok := c.AccessToken(credential)
	if !ok {
		return nil, fmt.Errorf("%w: no access token for credential", pkg.ErrUnauthorized)
	}

	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", token, nil, &user); err != nil {
		return nil, err
	}
	return user.Profile(), nil
}

// AccessToken returns the in-memory access token minted with credential.
func (c *Client) AccessToken(credential string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	token, ok := c.access[credential]
	return token, ok
}

// CurrentAccessToken returns the access token of the latest live grant, or "".
func (c *Client) CurrentAccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Client) remember(tokens *models.AuthTokens) *models.Grant {
	c.mu.Lock()
	c.access[tokens.RefreshToken] = tokens.AccessToken
	c.current = tokens.AccessToken
	c.mu.Unlock()
	return tokens.Grant()
}

func (c *Client) forget(credential string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token, ok := c.access[credential]; ok && token == c.current {
		c.current = ""
	}
	delete(c.access, credential)
}

// ─── transport ───

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// envelope mirrors pkg.APIResponse with a deferred payload.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %w", pkg.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil && resp.StatusCode < 300 {
		return fmt.Errorf("%w: malformed gateway response: %w", pkg.ErrNetworkUnavailable, err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: %s", errorForStatus(resp.StatusCode), msg)
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: malformed gateway payload: %w", pkg.ErrNetworkUnavailable, err)
		}
	}
	return nil
}

// errorForStatus is the inverse of pkg.StatusFor for the statuses the gateway emits.
func errorForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return pkg.ErrInvalidCredentials
	case status == http.StatusForbidden:
		return pkg.ErrForbidden
	case status == http.StatusNotFound:
		return pkg.ErrNotFound
	case status == http.StatusConflict:
		return pkg.ErrAlreadyExists
	case status == http.StatusLocked:
		return pkg.ErrAccountLocked
	case status == http.StatusTooManyRequests:
		return pkg.ErrRateLimited
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return pkg.ErrBadRequest
	case status >= 500:
		return pkg.ErrNetworkUnavailable
	default:
		return pkg.ErrInternal
	}
}
