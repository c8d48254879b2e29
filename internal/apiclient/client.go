// Package apiclient is the HTTP client used by willctl to talk to the API.
// Every non-2xx response is normalised into *Error before reaching callers.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// Error is a normalised API failure.
type Error struct {
	Status  int
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsForbidden reports whether err is a permission failure.
func IsForbidden(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusForbidden
}

// Client calls the WillTank API with a bearer token.
type Client struct {
	baseURL    string
	token      string
	http       *http.Client
	maxRetries uint64
	backoff    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetries sets how many times a failed GET is retried and the base backoff.
func WithRetries(n uint64, backoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.backoff = backoff
	}
}

// New creates a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: 0},
		maxRetries: 2,
		backoff:    200 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Token returns the configured bearer token.
func (c *Client) Token() string { return c.token }

// Do sends a JSON request and decodes a JSON response into out (when non-nil).
// GET requests are retried except on authentication and permission errors.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	call := func(ctx context.Context) error {
		resp, err := c.Open(ctx, method, path, body, "application/json")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	if method != http.MethodGet || c.maxRetries == 0 {
		return call(ctx)
	}

	b := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := call(ctx)
		if err == nil || IsUnauthorized(err) || IsForbidden(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// Open sends a request and returns the raw response for streaming. Non-2xx
// responses are consumed and returned as *Error.
func (c *Client) Open(ctx context.Context, method, path string, body interface{}, accept string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, normalize(resp)
	}
	return resp, nil
}

const maxErrorBody = 64 << 10

func normalize(resp *http.Response) *Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	e := &Error{Status: resp.StatusCode}

	var body struct {
		Error   interface{} `json:"error"`
		Message string      `json:"message"`
		Code    string      `json:"code"`
	}
	if json.Unmarshal(raw, &body) == nil {
		e.Code = body.Code
		switch v := body.Error.(type) {
		case string:
			e.Message = v
		case map[string]interface{}:
			if m, ok := v["error"].(string); ok {
				e.Message = m
			}
			if code, ok := v["code"].(string); ok && e.Code == "" {
				e.Code = code
			}
		}
		if e.Message == "" {
			e.Message = body.Message
		}
	} else if text := strings.TrimSpace(string(raw)); text != "" {
		e.Message = text
	}

	if resp.StatusCode == http.StatusUnauthorized {
		e.Message = "please log in again"
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return e
}
