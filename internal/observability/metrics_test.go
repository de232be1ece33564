package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordQuestion(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordQuestion("alias", "price_information", "unknown", "composer", 10*time.Millisecond)
	m.RecordQuestion("alias", "recent_news", "news_update", "llm", 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Detections.WithLabelValues("alias")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classifications.WithLabelValues("recent_news")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuestionsTotal.WithLabelValues("llm")))
}

func TestMetrics_StatusLabels(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordMarketFetch("coinmarketcap", nil, time.Millisecond)
	m.RecordMarketFetch("none", errors.New("down"), time.Millisecond)
	m.RecordLLMCall(errors.New("quota"), time.Second)
	m.RecordInteractionStoreError()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MarketFetches.WithLabelValues("coinmarketcap", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MarketFetches.WithLabelValues("none", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LLMCalls.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InteractionStoreErrors))
}

func TestNewMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics("dup", prometheus.NewRegistry())
		NewMetrics("dup", prometheus.NewRegistry())
	})
}
