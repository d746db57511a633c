// Package importio provides a postmap.ExtractionService backed by the
// Import.io extraction API.
package importio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/postmap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Import.io API endpoint.
const DefaultBaseURL = "https://api.import.io"

// DefaultTimeout is the default timeout for a single API request.
const DefaultTimeout = 60 * time.Second

// DefaultMaxResponseSize is the largest API response body read, 32 MB.
const DefaultMaxResponseSize = 32 << 20

// DefaultRetryDelays returns the backoff delays for transient failures: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

var _ postmap.ExtractionService = (*Client)(nil)

// Client runs Import.io connectors against URLs.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	limiter     *rate.Limiter
	retryDelays []time.Duration
	maxBody     int64
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAPIKey sets the API key sent with every query.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit limits queries to rps requests per second.
// A non-positive rps disables rate limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetryDelays sets the delays between attempts for transient failures.
// An empty list disables retries.
func WithRetryDelays(delays []time.Duration) Option {
	return func(c *Client) {
		c.retryDelays = delays
	}
}

// WithMaxResponseSize limits how many bytes of a response body are read.
// Larger responses fail without retry.
func WithMaxResponseSize(n int64) Option {
	return func(c *Client) {
		c.maxBody = n
	}
}

// NewClient creates a new Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		retryDelays: DefaultRetryDelays(),
		maxBody:     DefaultMaxResponseSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// transientError marks a failure worth retrying.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Extract queries connectorID for rawURL.
// Network errors, 5xx and 429 responses are retried with the configured
// delays. Other non-200 responses and malformed bodies fail immediately.
func (c *Client) Extract(ctx context.Context, connectorID, rawURL string) (*postmap.ExtractionResult, error) {
	if connectorID == "" {
		return nil, postmap.Errorf(postmap.EINVALID, "connector ID required")
	}
	endpoint := c.queryURL(connectorID, rawURL)

	maxAttempts := len(c.retryDelays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := c.query(ctx, endpoint)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var transient *transientError
		if !errors.As(err, &transient) {
			return nil, err
		}
		if attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelays[attempt]):
		}
	}

	return nil, fmt.Errorf("importio: giving up after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) queryURL(connectorID, rawURL string) string {
	q := url.Values{}
	q.Set("input", "webpage/url:"+rawURL)
	if c.apiKey != "" {
		q.Set("_apikey", c.apiKey)
	}
	return c.baseURL + "/store/connector/" + url.PathEscape(connectorID) + "/_query?" + q.Encode()
}

func (c *Client) query(ctx context.Context, endpoint string) (*postmap.ExtractionResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transientError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("importio: reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("importio: HTTP %d: %s", resp.StatusCode, truncate(string(body), 200))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &transientError{err: err}
		}
		return nil, err
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("importio: response larger than %d bytes", c.maxBody)
	}

	var result postmap.ExtractionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("importio: decoding response: %w", err)
	}
	return &result, nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
