// Package compose renders assistant answers from token metadata and market figures.
// It performs no I/O; missing figures render as Placeholder.
package compose

import (
	"fmt"
	"math"
	"strings"

	"croak-assistant/internal/catalog"
	"croak-assistant/internal/domain"
	"croak-assistant/internal/market"
)

// Risk remarks keyed by the 24h change.
const (
	RemarkBullish = "The token is showing strong bullish momentum. Consider setting stop losses to protect profits if you're already in a position."
	RemarkBearish = "The token is experiencing significant selling pressure. This could be a dip buying opportunity, but be cautious as the downtrend may continue."
	RemarkNeutral = "The market for this token is relatively stable at the moment. This might be a good time to evaluate your position based on your longer-term strategy."
)

// Risk remark thresholds, in percent.
const (
	bullishThreshold = 3.0
	bearishThreshold = -3.0
)

const disclaimer = "This information is for educational purposes only and should not be considered financial advice."

// Composer fills category templates. Safe for concurrent use.
type Composer struct {
	cat *catalog.Catalog
}

// New creates a Composer reading token metadata from cat.
func New(cat *catalog.Catalog) *Composer {
	return &Composer{cat: cat}
}

// Compose renders the answer for symbol and category from figures.
// Symbols missing from the catalog, including domain.FallbackSymbol, render
// with the symbol as name and Unknown category.
func (c *Composer) Compose(symbol string, category domain.QueryCategory, figures domain.MarketFigures) string {
	tok, ok := c.cat.Lookup(symbol)
	if !ok {
		tok = domain.UnknownToken(symbol)
	}
	return c.ComposeToken(tok, category, figures)
}

// ComposeToken renders the answer for an already resolved token record.
func (c *Composer) ComposeToken(tok domain.TokenRecord, category domain.QueryCategory, figures domain.MarketFigures) string {
	f := market.Derive(figures)

	switch category {
	case domain.CategoryPriceInformation:
		return priceAnswer(tok, f)
	case domain.CategoryTradingStrategy:
		return tradingAnswer(tok, f)
	case domain.CategoryTechnicalAnalysis:
		return chartAnswer(tok, f)
	case domain.CategoryRecentNews:
		return updateAnswer(tok, f)
	default:
		return infoAnswer(tok, f)
	}
}

// Direction returns "up" for a non-negative change and "down" otherwise.
func Direction(change float64) string {
	if change >= 0 {
		return "up"
	}
	return "down"
}

// RiskRemark returns the trading remark for a 24h change.
func RiskRemark(change float64) string {
	switch {
	case change > bullishThreshold:
		return RemarkBullish
	case change < bearishThreshold:
		return RemarkBearish
	default:
		return RemarkNeutral
	}
}

// movement describes the 24h move followed by the risk remark.
func movement(change *float64) string {
	if change == nil {
		return "The 24h change is " + Placeholder + "."
	}
	return fmt.Sprintf("It's %s %.2f%% in the last 24 hours. %s",
		Direction(*change), math.Abs(*change), RiskRemark(*change))
}

// levels renders the support/resistance sentence.
func levels(f domain.MarketFigures) string {
	return fmt.Sprintf("Technical indicators show support levels around %s and resistance at %s.",
		price(f.Support1), price(f.Resistance1))
}

func priceAnswer(tok domain.TokenRecord, f domain.MarketFigures) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The current price of %s (%s) is %s. %s\n\n", tok.Name, tok.Symbol, price(f.Price), movement(f.Change24h))
	fmt.Fprintf(&b, "Market Cap: %s\n", large(f.MarketCap))
	fmt.Fprintf(&b, "24h Trading Volume: %s", large(f.Volume24h))
	return b.String()
}

func infoAnswer(tok domain.TokenRecord, f domain.MarketFigures) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) is a %s cryptocurrency currently trading at %s.\n\n", tok.Name, tok.Symbol, tok.Category, price(f.Price))
	fmt.Fprintf(&b, "%s\n\n", tok.Description)
	fmt.Fprintf(&b, "Market Cap: %s\n", large(f.MarketCap))
	fmt.Fprintf(&b, "24h Trading Volume: %s\n", large(f.Volume24h))
	fmt.Fprintf(&b, "24h Price Change: %s\n\n", signedPercent(f.Change24h))
	b.WriteString(levels(f))
	return b.String()
}

func tradingAnswer(tok domain.TokenRecord, f domain.MarketFigures) string {
	var b strings.Builder
	fmt.Fprintf(&b, "For trading %s (%s), which is currently priced at %s, consider the following:\n\n", tok.Name, tok.Symbol, price(f.Price))
	fmt.Fprintf(&b, "Market cap: %s\n", large(f.MarketCap))
	fmt.Fprintf(&b, "24h volume: %s\n", large(f.Volume24h))
	fmt.Fprintf(&b, "24h change: %s\n\n", signedPercent(f.Change24h))
	fmt.Fprintf(&b, "%s\n\n", movement(f.Change24h))
	fmt.Fprintf(&b, "When developing a trading strategy for %s, consider:\n\n", tok.Symbol)
	b.WriteString("1. Position sizing: Risk no more than 1-2% of your portfolio on a single trade\n")
	fmt.Fprintf(&b, "2. Entry points: Current support levels are around %s\n", price(f.Support1))
	fmt.Fprintf(&b, "3. Exit points: Consider taking profits near resistance at %s\n", price(f.Resistance1))
	b.WriteString("4. Stop losses: Place 5-10% below your entry depending on market volatility\n\n")
	b.WriteString(disclaimer)
	return b.String()
}

func chartAnswer(tok domain.TokenRecord, f domain.MarketFigures) string {
	rsi := Placeholder
	if f.RSI != nil {
		rsi = fmt.Sprintf("%s (%s)", decimal(f.RSI), RSIInterpretation(*f.RSI))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Technical analysis for %s (%s) at %s:\n\n", tok.Name, tok.Symbol, price(f.Price))
	b.WriteString("Key indicators:\n")
	fmt.Fprintf(&b, "- RSI: %s\n", rsi)
	fmt.Fprintf(&b, "- 50-day MA: %s\n", price(f.MovingAverage50d))
	fmt.Fprintf(&b, "- 200-day MA: %s\n\n", price(f.MovingAverage200d))
	fmt.Fprintf(&b, "Support levels: %s, %s\n", price(f.Support1), price(f.Support2))
	fmt.Fprintf(&b, "Resistance levels: %s, %s\n\n", price(f.Resistance1), price(f.Resistance2))
	b.WriteString("This analysis is based on current market data and should not be considered financial advice.")
	return b.String()
}

func updateAnswer(tok domain.TokenRecord, f domain.MarketFigures) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Latest market update for %s (%s), currently trading at %s.\n\n", tok.Name, tok.Symbol, price(f.Price))
	fmt.Fprintf(&b, "Category: %s\n", tok.Category)
	fmt.Fprintf(&b, "Market Cap: %s\n", large(f.MarketCap))
	fmt.Fprintf(&b, "24h Trading Volume: %s\n", large(f.Volume24h))
	fmt.Fprintf(&b, "24h Price Change: %s\n\n", signedPercent(f.Change24h))
	fmt.Fprintf(&b, "%s\n\n", market.Sentiment(tok.Symbol, f))
	b.WriteString(levels(f))
	return b.String()
}
