// Package market fetches market figures for tokens and estimates simple
// technical indicators from them.
package market

import (
	"fmt"
	"math"

	"croak-assistant/internal/domain"
)

// Derive returns a copy of f with missing indicators estimated from the raw
// figures. Indicators already present are kept. An indicator stays nil when
// an input it needs is missing.
//
// The estimates are heuristics over the 24h/7d/30d changes, not computed from
// price history.
func Derive(f domain.MarketFigures) domain.MarketFigures {
	out := f

	if out.RSI == nil && f.Change24h != nil {
		out.RSI = domain.Float64(math.Max(0, math.Min(100, 50+*f.Change24h*1.5)))
	}

	if f.Price == nil {
		return out
	}
	price := *f.Price

	if f.Change24h != nil {
		v := math.Abs(*f.Change24h) / 100 * 5
		fill(&out.Support1, price*(1-v*2))
		fill(&out.Support2, price*(1-v*3))
		fill(&out.Resistance1, price*(1+v*2))
		fill(&out.Resistance2, price*(1+v*3))
	}
	if f.Change7d != nil {
		fill(&out.MovingAverage50d, price*(1+*f.Change7d/200))
	}
	if f.Change30d != nil {
		fill(&out.MovingAverage200d, price*(1+*f.Change30d/400))
	}

	return out
}

func fill(dst **float64, v float64) {
	if *dst == nil {
		*dst = domain.Float64(v)
	}
}

// Sentiment describes the market mood for symbol in one sentence.
// RSI extremes take precedence over the 24h change.
func Sentiment(symbol string, f domain.MarketFigures) string {
	d := Derive(f)

	switch {
	case d.RSI != nil && *d.RSI > 70:
		return fmt.Sprintf("The market sentiment for %s appears to be overbought with an RSI of %.2f.", symbol, *d.RSI)
	case d.RSI != nil && *d.RSI < 30:
		return fmt.Sprintf("The market sentiment for %s appears to be oversold with an RSI of %.2f.", symbol, *d.RSI)
	case d.Change24h == nil:
		return fmt.Sprintf("The market sentiment for %s is Unknown.", symbol)
	case *d.Change24h > 5:
		return fmt.Sprintf("%s is showing strong bullish momentum with a significant price increase in the last 24 hours.", symbol)
	case *d.Change24h < -5:
		return fmt.Sprintf("%s is showing bearish pressure with a notable price decrease in the last 24 hours.", symbol)
	default:
		return fmt.Sprintf("%s is currently showing relatively stable price action.", symbol)
	}
}
