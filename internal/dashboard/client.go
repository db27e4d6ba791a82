// Package dashboard implements the HTTP client for the sushify dashboard
// proxy API. It answers two questions for the capture pipeline: is the
// dashboard currently accepting exchanges, and deliver this exchange to it.
package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"github.com/pragmaticfish/sushify/pkg/exchange"
)

const (
	// DefaultBaseURL is where a locally started dashboard listens.
	DefaultBaseURL = "http://localhost:7331"

	statusPath    = "/api/proxy/status"
	exchangesPath = "/api/proxy/exchanges"

	defaultStatusTimeout = 1 * time.Second
	defaultPushTimeout   = 3 * time.Second
)

// StatusError reports that the dashboard answered a push with a non-200
// status code.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dashboard responded with status %d", e.StatusCode)
}

// Client talks to the dashboard over its proxy API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	statusTimeout time.Duration
	pushTimeout   time.Duration

	statusGroup singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for all dashboard calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithStatusTimeout overrides the timeout of the capture status check.
func WithStatusTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.statusTimeout = d
	}
}

// WithPushTimeout overrides the timeout of the exchange push.
func WithPushTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.pushTimeout = d
	}
}

// New creates a dashboard client for the given base URL. An empty baseURL
// falls back to DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		httpClient:    http.DefaultClient,
		statusTimeout: defaultStatusTimeout,
		pushTimeout:   defaultPushTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CaptureEnabled reports whether the dashboard currently wants exchanges.
// Any failure to reach the dashboard or to understand its answer counts as
// capture being off. Concurrent callers share a single status request.
func (c *Client) CaptureEnabled(ctx context.Context) bool {
	enabled, _, _ := c.statusGroup.Do("status", func() (interface{}, error) {
		return c.captureStatus(ctx), nil
	})
	return enabled.(bool)
}

func (c *Client) captureStatus(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+statusPath, nil)
	if err != nil {
		return false
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return false
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return false
	}
	return gjson.GetBytes(body, "capturing").Bool()
}

// PushExchange delivers an assembled exchange to the dashboard. A non-200
// answer is returned as a *StatusError so the caller can log the code.
func (c *Client) PushExchange(ctx context.Context, e *exchange.Exchange) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("error in marshaling the exchange: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.pushTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+exchangesPath, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: res.StatusCode}
	}
	return nil
}
