// Package api is the REST client for the Account API: login, signup, token
// refresh, profile and logout, plus the password-reset endpoints. The session
// manager owns the one instance the process uses; screens and commands never
// call the Account API directly.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const basePath = "/api/v1"

// Config holds client configuration.
type Config struct {
	// ServerURL is the backend origin, e.g. https://app.scrumwise.io.
	ServerURL string

	// Transport handles every outgoing request. Defaults to
	// http.DefaultTransport; production wiring passes the *Transport chain
	// from this package.
	Transport http.RoundTripper

	// Timeout bounds each request. Defaults to 30s.
	Timeout time.Duration
}

// Client calls the Account API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates an Account API client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.ServerURL, "/") + basePath,
		httpc: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// Login exchanges an email and password for tokens.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	body := map[string]string{"email": email, "password": password}

	var resp TokenResponse
	if err := c.do(WithoutAuth(ctx), http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signup creates an account and returns tokens for it.
func (c *Client) Signup(ctx context.Context, params SignupParams) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.do(WithoutAuth(ctx), http.MethodPost, "/auth/signup", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CurrentUser fetches the profile for the bearer token on the request.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	body := map[string]string{"refresh_token": refreshToken}

	var resp TokenResponse
	if err := c.do(WithoutAuth(ctx), http.MethodPost, "/auth/refresh-token", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout invalidates the server-side session for the bearer token.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// ForgotPassword requests a password-reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(WithoutAuth(ctx), http.MethodPost, "/auth/forgot-password", body, nil)
}

// ResetPassword sets a new password using an emailed reset token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) error {
	body := map[string]string{"token": token, "password": password}
	return c.do(WithoutAuth(ctx), http.MethodPost, "/auth/reset-password", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// decodeError turns a non-2xx response into an *Error. The backend reports
// failures as {"detail": "..."}.
func decodeError(resp *http.Response) error {
	apiErr := &Error{StatusCode: resp.StatusCode}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err == nil {
		apiErr.Detail = payload.Detail
	}

	return apiErr
}
