package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"croak-assistant/internal/assistant"
	"croak-assistant/internal/catalog"
	"croak-assistant/internal/domain"
	"croak-assistant/internal/market"
	"croak-assistant/internal/observability"
	"croak-assistant/internal/storage/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticMarket map[string]domain.MarketFigures

func (m staticMarket) Figures(_ context.Context, symbol string) (*domain.MarketFigures, error) {
	f, ok := m[symbol]
	if !ok {
		return &domain.MarketFigures{Symbol: symbol}, market.ErrUnavailable
	}
	return &f, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	a, err := assistant.New(assistant.Options{
		Catalog: cat,
		Market: staticMarket{
			"BTC": {Symbol: "BTC", Source: "static", Price: domain.Float64(64123.45), Change24h: domain.Float64(2.5)},
		},
		Interactions: memory.NewInteractionStore(),
		Metrics:      metrics,
	})
	require.NoError(t, err)

	return NewServer(a, Config{ChunkDelay: 0}, nil, metrics)
}

func do(t *testing.T, h http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandleAsk(t *testing.T) {
	r := newTestServer(t).Router()

	w := do(t, r, http.MethodPost, "/v1/ask", []byte(`{"message":"What's the price of bitcoin?"}`))
	require.Equal(t, http.StatusOK, w.Code)

	var reply assistant.Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, "BTC", reply.Symbol)
	assert.True(t, reply.Detected)
	assert.Equal(t, domain.CategoryPriceInformation, reply.Category)
	assert.Equal(t, assistant.SourceComposer, reply.Source)
	assert.Contains(t, reply.Text, "The current price of Bitcoin (BTC) is $64123.")
	require.NotNil(t, reply.Figures)
	assert.Equal(t, "static", reply.Figures.Source)
}

func TestHandleAsk_BadRequest(t *testing.T) {
	r := newTestServer(t).Router()

	for name, body := range map[string]string{
		"blank":   `{"message":"   "}`,
		"missing": `{}`,
		"invalid": `not json`,
	} {
		t.Run(name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/v1/ask", []byte(body))
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "message is required", resp.Error)
		})
	}
}

func TestHandleDetect(t *testing.T) {
	r := newTestServer(t).Router()

	tests := []struct {
		query string
		want  DetectResponse
	}{
		{"buy+some+%24PEPE", DetectResponse{Symbol: "PEPE", Detected: true, Rule: "dollar"}},
		{"thoughts+on+bitcoin", DetectResponse{Symbol: "BTC", Detected: true, Rule: "alias", Alias: "bitcoin"}},
		{"", DetectResponse{Symbol: domain.FallbackSymbol, Detected: false, Rule: "none"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(t, r, http.MethodGet, "/v1/detect?q="+tt.query, nil)
			require.Equal(t, http.StatusOK, w.Code)

			var got DetectResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandleClassify(t *testing.T) {
	r := newTestServer(t).Router()

	w := do(t, r, http.MethodGet, "/v1/classify?q=any+news+on+croak", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got ClassifyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, ClassifyResponse{
		Category: domain.CategoryRecentNews,
		Label:    "recent news and developments",
		Intent:   domain.IntentNewsUpdate,
		Price:    false,
	}, got)
}

func TestHandleTokens(t *testing.T) {
	r := newTestServer(t).Router()

	w := do(t, r, http.MethodGet, "/v1/tokens", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Tokens []TokenResponse `json:"tokens"`
		Count  int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 35, got.Count)
	require.Len(t, got.Tokens, 35)
	assert.Equal(t, "BTC", got.Tokens[0].Symbol)
	assert.Contains(t, got.Tokens[0].Aliases, "bitcoin")
}

func TestHandleToken(t *testing.T) {
	r := newTestServer(t).Router()

	w := do(t, r, http.MethodGet, "/v1/tokens/croak", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tok TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	assert.Equal(t, "CROAK", tok.Symbol)
	assert.Equal(t, "Croak", tok.Name)
	assert.Contains(t, tok.Aliases, "efrog")

	w = do(t, r, http.MethodGet, "/v1/tokens/NOPE", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestServer(t).Router()

	w := do(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","tokens":35}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServe_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Serve(ctx, HTTPConfig{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
