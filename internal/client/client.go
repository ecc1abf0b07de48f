// Package client talks to a running assetwatch server on behalf of
// automation scripts and the CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"assetwatch/internal/assetbus"
	"assetwatch/internal/feed"
	"assetwatch/pkg/types"
)

// APIError is returned for non-2xx responses.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assetwatch: %d %s", e.Code, e.Message)
}

// IsAPIError reports whether err carries an API status code, and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	ok := errors.As(err, &ae)
	return ae, ok
}

// Client is safe for concurrent use.
type Client struct {
	base string
	hc   *http.Client
}

// New returns a client for the server at baseURL. A nil hc uses http.DefaultClient.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), hc: hc}
}

func (c *Client) StartTracking(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/tracking/start", nil, nil)
}

func (c *Client) StopTracking(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/tracking/stop", nil, nil)
}

func (c *Client) ExpectAsset(ctx context.Context, path string, count uint32) error {
	return c.do(ctx, http.MethodPost, "/expect", types.ExpectRequest{Path: path, Count: &count}, nil)
}

// Finished polls GET /finished once.
func (c *Client) Finished(ctx context.Context) (types.FinishedResponse, error) {
	var out types.FinishedResponse
	err := c.do(ctx, http.MethodGet, "/finished", nil, &out)
	return out, err
}

func (c *Client) Status(ctx context.Context) (types.StatusResponse, error) {
	var out types.StatusResponse
	err := c.do(ctx, http.MethodGet, "/status", nil, &out)
	return out, err
}

// Publish posts one event to the server's bus.
func (c *Client) Publish(ctx context.Context, e assetbus.Event) error {
	return c.do(ctx, http.MethodPost, "/events", feed.ToWire(e), nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er types.ErrorResponse
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(b, &er) != nil || er.Error == "" {
			er.Error = strings.TrimSpace(string(b))
		}
		return &APIError{Code: resp.StatusCode, Message: er.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
