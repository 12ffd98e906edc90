package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/muurk/retype/internal/editerr"
	"github.com/muurk/retype/internal/logging"
	"github.com/muurk/retype/internal/storeapi"
	"github.com/muurk/retype/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for reads
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 10 * time.Second

	// maxBodySize caps how much of a response is read
	maxBodySize = 8 << 20
)

// Client talks to a component store server.
//
// Load, List and Ping are idempotent and retried with exponential backoff
// on retryable failures. Save, Create and Reset are sent exactly once; the
// operator retries them.
type Client struct {
	// BaseURL is the server root (e.g., "http://localhost:7070")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for reads
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff doubles the delay after every attempt
	UseExponentialBackoff bool
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:               strings.TrimRight(baseURL, "/"),
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior for reads
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

// Ping checks the health endpoint.
func (c *Client) Ping(ctx context.Context) (storeapi.Health, error) {
	var h storeapi.Health
	err := c.retry(ctx, func() error {
		h = storeapi.Health{}
		return c.do(ctx, http.MethodGet, storeapi.HealthPath, nil, &h)
	})
	return h, err
}

// Load returns the component's current code.
func (c *Client) Load(ctx context.Context, id string) (string, error) {
	start := time.Now()
	comp, err := c.Get(ctx, id)
	logging.LogStoreCall("load", id, time.Since(start), err)
	return comp.Code, err
}

// Get fetches a component.
func (c *Client) Get(ctx context.Context, id string) (storeapi.Component, error) {
	if id == "" {
		return storeapi.Component{}, editerr.Validation("Component ID is required.")
	}
	var comp storeapi.Component
	err := c.retry(ctx, func() error {
		comp = storeapi.Component{}
		if err := c.do(ctx, http.MethodGet, storeapi.ComponentPath+url.PathEscape(id), nil, &comp); err != nil {
			return err
		}
		if comp.ID == "" {
			return editerr.Parse("component response without id", nil)
		}
		return nil
	})
	return comp, err
}

// codePayload decodes save and reset responses, keeping a missing code
// distinguishable from an empty one.
type codePayload struct {
	Message string  `json:"message"`
	Code    *string `json:"code"`
}

// Save replaces the component's code and returns what the server stored.
func (c *Client) Save(ctx context.Context, id, code string) (string, error) {
	if id == "" {
		return "", editerr.Validation("Component ID is required.")
	}
	start := time.Now()
	var resp codePayload
	err := c.do(ctx, http.MethodPut, storeapi.ComponentPath+url.PathEscape(id),
		storeapi.SaveRequest{Code: &code}, &resp)
	if err == nil && resp.Code == nil {
		err = editerr.Parse("save response without code", nil)
	}
	logging.LogStoreCall("save", id, time.Since(start), err)
	if err != nil {
		return "", err
	}
	return *resp.Code, nil
}

// Reset restores the component's original and returns it.
func (c *Client) Reset(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", editerr.Validation("Component ID is required.")
	}
	start := time.Now()
	var resp codePayload
	err := c.do(ctx, http.MethodPost, storeapi.ResetPath+url.PathEscape(id), nil, &resp)
	if err == nil && resp.Code == nil {
		err = editerr.Parse("reset response without code", nil)
	}
	logging.LogStoreCall("reset", id, time.Since(start), err)
	if err != nil {
		return "", err
	}
	return *resp.Code, nil
}

// Create stores a new component. An empty id asks the server to pick one.
func (c *Client) Create(ctx context.Context, id, code string) (storeapi.Component, error) {
	var comp storeapi.Component
	err := c.do(ctx, http.MethodPost, storeapi.CreatePath,
		storeapi.CreateRequest{ID: id, Code: &code}, &comp)
	return comp, err
}

// List returns the ids of all stored components.
func (c *Client) List(ctx context.Context) ([]string, error) {
	var resp storeapi.ListResponse
	err := c.retry(ctx, func() error {
		resp = storeapi.ListResponse{}
		return c.do(ctx, http.MethodGet, storeapi.ListPath, nil, &resp)
	})
	return resp.IDs, err
}

func (c *Client) retry(ctx context.Context, attempt func() error) error {
	var lastErr error
	currentDelay := c.RetryDelay

	for i := 0; i <= c.MaxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return editerr.Network("request cancelled", ctx.Err())
			case <-time.After(currentDelay):
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		err := attempt()
		if err == nil {
			return nil
		}
		lastErr = err

		if !editerr.IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return editerr.Network("failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return editerr.Network("store unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return editerr.Network("failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return editerr.Parse("unexpected response from store", err)
	}
	return nil
}

// statusError maps a non-2xx response onto the error taxonomy.
func statusError(status int, body []byte) error {
	var payload storeapi.ErrorResponse
	msg := http.StatusText(status)
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
		if payload.Details != "" {
			msg += ": " + payload.Details
		}
	}

	switch status {
	case http.StatusNotFound:
		return editerr.NotFound(msg)
	case http.StatusBadRequest:
		return editerr.Validation(msg)
	default:
		return editerr.HTTP(status, msg)
	}
}
