// Package adminclient is a Go SDK for the read-only admin HTTP surface
// a branch exposes over internal/api. It never mutates anything — writes
// only happen through the coordination port, which speaks the pipe-
// delimited wire protocol, not HTTP.
package adminclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to one branch's admin HTTP surface.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client bound to baseURL, e.g. "http://localhost:9001".
// timeout protects every call from hanging forever; a zero timeout
// defaults to 10s.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Health is the decoded response of GET /health.
type Health struct {
	BranchID int  `json:"branch_id"`
	IsMaster bool `json:"is_master"`
	MasterID int  `json:"master_id"`
}

// Health fetches GET /health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.getJSON(ctx, "/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Branches fetches GET /branches as the raw decoded payload — the
// registry's Node shape lives in internal/membership, which this package
// deliberately does not import, to keep the CLI a pure HTTP client.
func (c *Client) Branches(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "/branches")
}

// Customers fetches GET /customers.
func (c *Client) Customers(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "/customers")
}

// Articles fetches GET /articles.
func (c *Client) Articles(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "/articles")
}

// ShippingGuides fetches GET /guides.
func (c *Client) ShippingGuides(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "/guides")
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *Client) getRaw(ctx context.Context, path string) (json.RawMessage, error) {
	return c.get(ctx, path)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// APIError carries the HTTP status and message from a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	var apiErr struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.Error
	if msg == "" {
		msg = string(body)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
