// Package client provides a Go client for the market-screener scanner API.
//
// The scanner exposes one endpoint group per market (crypto, forex, bonds,
// ...): POST /{market}/metainfo returns field metadata and POST
// /{market}/scan returns sample rows. Requests are rate limited and retried
// on transient failures so batch collection stays within upstream limits.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the default base URL for the scanner API.
const DefaultBaseURL = "https://scanner.tradingview.com"

// Client is a scanner API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit caps outgoing requests at rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetries sets the retry count and base delay for transient failures.
func WithRetries(n int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = n
		c.retryDelay = delay
	}
}

// New creates a new scanner API client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(2), 4),
		maxRetries: 3,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Metainfo fetches field metadata for a market.
func (c *Client) Metainfo(ctx context.Context, market string) (*MetainfoResponse, error) {
	var resp MetainfoResponse
	if err := c.post(ctx, "/"+market+"/metainfo", struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("fetching metainfo for %s: %w", market, err)
	}
	return &resp, nil
}

// Scan runs a scan request against a market and returns the result rows.
func (c *Client) Scan(ctx context.Context, market string, req *ScanRequest) (*ScanResponse, error) {
	var resp ScanResponse
	if err := c.post(ctx, "/"+market+"/scan", req, &resp); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", market, err)
	}
	return &resp, nil
}

// post performs a POST request with retries and decodes the JSON response.
// Numbers are decoded as json.Number so the literal form survives for type
// inference.
func (c *Client) post(ctx context.Context, path string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = c.doPost(ctx, path, body, result)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		slog.Warn("retrying request",
			slog.String("path", path),
			slog.Int("attempt", attempt+1),
			slog.String("error", lastErr.Error()),
		)
	}
	return lastErr
}

func (c *Client) doPost(ctx context.Context, path string, body []byte, result any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	slog.Debug("HTTP request completed",
		slog.String("method", "POST"),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	if resp.StatusCode >= 400 {
		return c.parseError(resp)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// parseError extracts an APIError from an error response.
func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}

// retryable reports whether an error is worth retrying: rate limiting and
// server-side failures are, client errors are not.
func retryable(err error) bool {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	// Network-level errors.
	return true
}

// APIError represents an error response from the scanner API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error %d", e.StatusCode)
}

type errorResponse struct {
	Error string `json:"error"`
}
