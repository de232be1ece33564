// Package coinmarketcap is a client for the CoinMarketCap quotes API.
package coinmarketcap

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

	"golang.org/x/time/rate"

	"croak-assistant/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://pro-api.coinmarketcap.com"
	DefaultTimeout     = 10 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0

	// Basic plan allows 30 calls per minute.
	DefaultRateLimit = rate.Limit(0.5)
	DefaultRateBurst = 5
)

// SourceName identifies figures produced by this client.
const SourceName = "coinmarketcap"

const quotesPath = "/v1/cryptocurrency/quotes/latest"

// ErrSymbolNotFound is returned when the API has no quote for a symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// Client fetches latest quotes from CoinMarketCap.
type Client struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	now         func() time.Time
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithRateLimit sets the request rate limit. rate.Inf disables limiting.
func WithRateLimit(r rate.Limit, burst int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithClock sets the time source used to stamp figures.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new CoinMarketCap client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		client:      &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(DefaultRateLimit, DefaultRateBurst),
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote is the USD quote of one cryptocurrency. Fields the API reports as null stay nil.
type Quote struct {
	Price            *float64 `json:"price"`
	Volume24h        *float64 `json:"volume_24h"`
	PercentChange24h *float64 `json:"percent_change_24h"`
	PercentChange7d  *float64 `json:"percent_change_7d"`
	PercentChange30d *float64 `json:"percent_change_30d"`
	MarketCap        *float64 `json:"market_cap"`
	LastUpdated      string   `json:"last_updated"`
}

// Listing is one entry of the quotes response.
type Listing struct {
	ID     int              `json:"id"`
	Name   string           `json:"name"`
	Symbol string           `json:"symbol"`
	Rank   *int             `json:"cmc_rank"`
	Quote  map[string]Quote `json:"quote"`
}

type status struct {
	ErrorCode    int     `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}

type quotesResponse struct {
	Status status             `json:"status"`
	Data   map[string]Listing `json:"data"`
}

// APIError is a non-retryable error reported by the API.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coinmarketcap error %d (http %d): %s", e.Code, e.StatusCode, e.Message)
}

// Latest returns the latest listing for symbol.
func (c *Client) Latest(ctx context.Context, symbol string) (*Listing, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrSymbolNotFound
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("convert", "USD")

	var resp quotesResponse
	if err := c.get(ctx, quotesPath+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	listing, ok := resp.Data[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	if _, ok := listing.Quote["USD"]; !ok {
		return nil, fmt.Errorf("%w: %s has no USD quote", ErrSymbolNotFound, symbol)
	}
	return &listing, nil
}

// Figures implements market.Source.
func (c *Client) Figures(ctx context.Context, symbol string) (*domain.MarketFigures, error) {
	listing, err := c.Latest(ctx, symbol)
	if err != nil {
		return nil, err
	}

	usd := listing.Quote["USD"]
	return &domain.MarketFigures{
		Symbol:     strings.ToUpper(symbol),
		Source:     SourceName,
		ObservedAt: c.now().UnixMilli(),
		Price:      usd.Price,
		Change24h:  usd.PercentChange24h,
		Change7d:   usd.PercentChange7d,
		Change30d:  usd.PercentChange30d,
		MarketCap:  usd.MarketCap,
		Volume24h:  usd.Volume24h,
	}, nil
}

// get performs a GET with rate limiting, retries and exponential backoff.
// Client errors other than 429 are returned without retrying.
func (c *Client) get(ctx context.Context, path string, result any) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
			continue
		}

		var env struct {
			Status status `json:"status"`
		}
		_ = json.Unmarshal(body, &env)

		if resp.StatusCode != http.StatusOK || env.Status.ErrorCode != 0 {
			msg := http.StatusText(resp.StatusCode)
			if env.Status.ErrorMessage != nil {
				msg = *env.Status.ErrorMessage
			}
			return &APIError{StatusCode: resp.StatusCode, Code: env.Status.ErrorCode, Message: msg}
		}

		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
