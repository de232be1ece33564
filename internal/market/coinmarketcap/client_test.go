package coinmarketcap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

const btcQuote = `{
  "status": {"error_code": 0, "error_message": null},
  "data": {
    "BTC": {
      "id": 1,
      "name": "Bitcoin",
      "symbol": "BTC",
      "cmc_rank": 1,
      "quote": {
        "USD": {
          "price": 64123.45,
          "volume_24h": 31000000000,
          "percent_change_24h": 2.5,
          "percent_change_7d": -1.25,
          "percent_change_30d": null,
          "market_cap": 1260000000000,
          "last_updated": "2024-01-01T00:00:00.000Z"
        }
      }
    }
  }
}`

func newTestClient(url string, opts ...ClientOption) *Client {
	base := []ClientOption{
		WithBaseURL(url),
		WithRetryDelay(time.Millisecond),
		WithMaxDelay(5 * time.Millisecond),
		WithRateLimit(rate.Inf, 1),
		WithClock(func() time.Time { return time.UnixMilli(1704067200000) }),
	}
	return NewClient("test-key", append(base, opts...)...)
}

func TestClient_Figures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != quotesPath {
			t.Errorf("expected path %s, got %s", quotesPath, r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTC" {
			t.Errorf("expected symbol BTC, got %s", got)
		}
		if got := r.Header.Get("X-CMC_PRO_API_KEY"); got != "test-key" {
			t.Errorf("expected api key header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(btcQuote))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	f, err := client.Figures(context.Background(), "btc")
	if err != nil {
		t.Fatalf("Figures: %v", err)
	}

	if f.Symbol != "BTC" || f.Source != SourceName {
		t.Errorf("unexpected identity: %s/%s", f.Symbol, f.Source)
	}
	if f.ObservedAt != 1704067200000 {
		t.Errorf("expected ObservedAt 1704067200000, got %d", f.ObservedAt)
	}
	if f.Price == nil || *f.Price != 64123.45 {
		t.Errorf("unexpected price: %v", f.Price)
	}
	if f.Change7d == nil || *f.Change7d != -1.25 {
		t.Errorf("unexpected 7d change: %v", f.Change7d)
	}
	if f.Change30d != nil {
		t.Errorf("expected nil 30d change, got %v", *f.Change30d)
	}
	if f.MarketCap == nil || *f.MarketCap != 1.26e12 {
		t.Errorf("unexpected market cap: %v", f.MarketCap)
	}
}

func TestClient_RetryOnServerError(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if n == 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(btcQuote))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if _, err := client.Latest(context.Background(), "BTC"); err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestClient_MaxRetriesExceeded(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithMaxRetries(2))

	_, err := client.Latest(context.Background(), "BTC")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
}

func TestClient_APIErrorNotRetried(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":{"error_code":1001,"error_message":"This API Key is invalid."}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Latest(context.Background(), "BTC")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != 1001 || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("unexpected error fields: %+v", apiErr)
	}
	if apiErr.Message != "This API Key is invalid." {
		t.Errorf("unexpected message: %s", apiErr.Message)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestClient_SymbolNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":{"error_code":0},"data":{}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Figures(context.Background(), "CROAK")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound, got %v", err)
	}

	_, err = client.Figures(context.Background(), "  ")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("expected ErrSymbolNotFound for blank symbol, got %v", err)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithRetryDelay(time.Second), WithMaxDelay(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Latest(ctx, "BTC")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
