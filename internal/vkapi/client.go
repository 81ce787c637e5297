// Package vkapi implements the VK messages API collaborator: typed
// request/response payloads over the plain HTTP method endpoint, plus
// the user long-poll endpoints used by the update listener.
package vkapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the VK method endpoint.
	DefaultBaseURL = "https://api.vk.com/method"
	// APIVersion is pinned; response shapes in types.go match it.
	APIVersion = "5.199"
)

// Error is a semantic VK API error (non-transport). Code follows the
// platform's error_code values.
type Error struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

// IsAuthError reports whether the error means the token is no longer
// usable (revoked, expired, or the user must re-authenticate).
func IsAuthError(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case 5, 7, 179:
		return true
	}
	return false
}

// Client talks to the VK API on behalf of one account. Method calls
// share one client with a fixed timeout; long polls use a separate
// client without one, since their duration is the configured wait and
// is bounded per request in Poll.
type Client struct {
	http     *http.Client
	pollHTTP *http.Client
	baseURL  string
	token    string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the method endpoint (tests point it at a local
// httptest server).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient substitutes the underlying HTTP client, for both
// method calls and polls.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
		c.pollHTTP = h
	}
}

// New creates a client for the given access token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		pollHTTP: &http.Client{},
		baseURL:  DefaultBaseURL,
		token:    token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Response json.RawMessage `json:"response"`
	Err      *Error          `json:"error"`
}

// call POSTs a method with form params, unwraps the response envelope
// and decodes the payload into out.
func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", c.token)
	params.Set("v", APIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/"+method, strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if env.Err != nil {
		return fmt.Errorf("%s: %w", method, env.Err)
	}
	if out == nil {
		return nil
	}
	if env.Response == nil {
		return fmt.Errorf("%s: empty response", method)
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return fmt.Errorf("%s: decode payload: %w", method, err)
	}
	return nil
}
