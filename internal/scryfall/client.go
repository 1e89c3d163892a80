// Package scryfall is a rate-limited client for the Scryfall card API.
package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Scryfall API endpoint.
	DefaultBaseURL = "https://api.scryfall.com"

	rateLimitDelay = 100 * time.Millisecond // 100ms between requests (10 req/sec)
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

// Config holds client settings. The zero value is not usable; call
// DefaultConfig and override fields as needed.
type Config struct {
	BaseURL   string
	UserAgent string
}

// DefaultConfig returns settings for the public Scryfall API.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		UserAgent: "commander-forge/1.0",
	}
}

// Client is a Scryfall API client. One shared limiter serializes all
// outbound requests with a minimum inter-request delay, regardless of
// which endpoint they hit.
type Client struct {
	baseURL     string
	userAgent   string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates a client. A nil config uses DefaultConfig.
func NewClient(cfg *Config) *Client {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.BaseURL != "" {
			c.BaseURL = cfg.BaseURL
		}
		if cfg.UserAgent != "" {
			c.UserAgent = cfg.UserAgent
		}
	}
	return &Client{
		baseURL:   c.BaseURL,
		userAgent: c.UserAgent,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDelay), 1),
	}
}

// Card retrieves a card by its Scryfall ID.
func (c *Client) Card(ctx context.Context, id string) (*Card, error) {
	endpoint := fmt.Sprintf("%s/cards/%s", c.baseURL, url.PathEscape(id))

	var card Card
	if err := c.doRequest(ctx, endpoint, &card); err != nil {
		return nil, fmt.Errorf("getting card %s: %w", id, err)
	}
	return &card, nil
}

// SearchPage performs a full-text card search and returns a single page.
// Pages are 1-based; callers follow HasMore to fetch the rest.
func (c *Client) SearchPage(ctx context.Context, query string, page int) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("page", strconv.Itoa(page))
	endpoint := fmt.Sprintf("%s/cards/search?%s", c.baseURL, params.Encode())

	var result SearchResult
	if err := c.doRequest(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("searching cards with query %q page %d: %w", query, page, err)
	}
	return &result, nil
}

// RandomCard retrieves a random card matching the query.
func (c *Client) RandomCard(ctx context.Context, query string) (*Card, error) {
	params := url.Values{}
	params.Set("q", query)
	endpoint := fmt.Sprintf("%s/cards/random?%s", c.baseURL, params.Encode())

	var card Card
	if err := c.doRequest(ctx, endpoint, &card); err != nil {
		return nil, fmt.Errorf("getting random card: %w", err)
	}
	return &card, nil
}

// RandomCommander retrieves a random commander-eligible card.
func (c *Client) RandomCommander(ctx context.Context) (*Card, error) {
	return c.RandomCard(ctx, CommanderQuery())
}

// doRequest performs a GET with rate limiting and retry logic. 429
// responses honor Retry-After and back off exponentially up to the
// retry ceiling; 404 maps to NotFoundError.
func (c *Client) doRequest(ctx context.Context, endpoint string, result interface{}) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			if attempt < maxRetries {
				time.Sleep(backoff)
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}

		status, body, readErr := drainBody(resp)
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		switch status {
		case http.StatusOK:
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("parsing JSON response: %w", err)
			}
			return nil

		case http.StatusTooManyRequests:
			lastErr = errors.New("rate limited (HTTP 429)")
			if attempt < maxRetries {
				if wait := retryAfter(resp); wait > 0 {
					time.Sleep(wait)
				} else {
					time.Sleep(backoff)
				}
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr

		case http.StatusNotFound:
			return &NotFoundError{URL: endpoint}

		default:
			var apiErr APIError
			if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Details != "" {
				return &apiErr
			}
			return fmt.Errorf("API request failed with status %d: %s", status, string(body))
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// drainBody reads and closes the response body so the connection can be
// reused across retry attempts.
func drainBody(resp *http.Response) (int, []byte, error) {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// retryAfter parses the Retry-After header, in whole seconds.
func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
