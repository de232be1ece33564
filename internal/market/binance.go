package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"

	"croak-assistant/internal/domain"
)

// BinanceSourceName identifies figures produced by BinanceSource.
const BinanceSourceName = "binance"

// DefaultQuoteAsset is the asset symbols are paired with on Binance.
const DefaultQuoteAsset = "USDT"

// BinanceSource reads 24h ticker statistics for <SYMBOL><quote> pairs.
// Binance reports no market cap or 7d/30d change, so those stay nil.
type BinanceSource struct {
	client *binance.Client
	quote  string
	now    func() time.Time
}

// NewBinanceSource creates a source over client, pairing symbols with USDT.
func NewBinanceSource(client *binance.Client) *BinanceSource {
	return &BinanceSource{client: client, quote: DefaultQuoteAsset, now: time.Now}
}

// Figures implements Source.
func (s *BinanceSource) Figures(ctx context.Context, symbol string) (*domain.MarketFigures, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	pair := symbol + s.quote

	stats, err := s.client.NewListPriceChangeStatsService().Symbol(pair).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("binance ticker %s: %w", pair, err)
	}
	if len(stats) == 0 {
		return nil, fmt.Errorf("binance ticker %s: empty response", pair)
	}
	st := stats[0]

	price, err := parseDecimal(st.LastPrice)
	if err != nil {
		return nil, fmt.Errorf("binance ticker %s: last price: %w", pair, err)
	}
	change, err := parseDecimal(st.PriceChangePercent)
	if err != nil {
		return nil, fmt.Errorf("binance ticker %s: change: %w", pair, err)
	}
	volume, err := parseDecimal(st.QuoteVolume)
	if err != nil {
		return nil, fmt.Errorf("binance ticker %s: quote volume: %w", pair, err)
	}

	return &domain.MarketFigures{
		Symbol:     symbol,
		Source:     BinanceSourceName,
		ObservedAt: s.now().UnixMilli(),
		Price:      price,
		Change24h:  change,
		Volume24h:  volume,
	}, nil
}

// parseDecimal parses a decimal string; an empty string is a missing value.
func parseDecimal(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
