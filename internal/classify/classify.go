// Package classify maps free-form messages to query categories and intents.
// Matching is case-insensitive substring containment; rule order is priority order.
package classify

import (
	"strings"

	"croak-assistant/internal/domain"
)

type rule[T any] struct {
	result   T
	keywords []string
}

var categoryRules = []rule[domain.QueryCategory]{
	{domain.CategoryPriceInformation, []string{"price", "worth", "value", "cost"}},
	{domain.CategoryTradingStrategy, []string{"trading", "strategy", "buy", "sell", "invest"}},
	{domain.CategoryTechnicalAnalysis, []string{"chart", "technical", "analysis", "pattern"}},
	{domain.CategoryGeneralInformation, []string{"what is", "tell me about", "explain"}},
	{domain.CategoryRecentNews, []string{"news", "recent", "development", "update"}},
}

var intentRules = []rule[domain.Intent]{
	{domain.IntentPricePrediction, []string{
		"price prediction", "price target", "will price", "future price",
		"price increase", "price decrease", "go up", "go down",
	}},
	{domain.IntentTradingStrategy, []string{
		"trading strategy", "how to trade", "trade setup", "trading setup",
		"strategy for", "trade plan",
	}},
	{domain.IntentTimingAdvice, []string{
		"best time", "when to buy", "when to sell", "entry point",
		"exit point", "good time to",
	}},
	{domain.IntentRiskAssessment, []string{
		"risk", "safe", "dangerous", "risky", "volatility", "downside",
	}},
	{domain.IntentChartAnalysis, []string{
		"chart", "pattern", "technical analysis", "indicators",
		"support", "resistance", "trend", "moving average",
	}},
	{domain.IntentNewsUpdate, []string{
		"news", "announcement", "recent development", "update",
		"latest", "happening",
	}},
	{domain.IntentGeneralInfo, []string{
		"what is", "tell me about", "information about", "overview",
		"explain", "describe",
	}},
}

// Query returns the category of text. It is total: text matching no rule,
// including the empty string, is general information.
func Query(text string) domain.QueryCategory {
	return match(text, categoryRules, domain.CategoryGeneralInformation)
}

// Intent returns the finer question intent of text, or domain.IntentUnknown.
func Intent(text string) domain.Intent {
	return match(text, intentRules, domain.IntentUnknown)
}

// IsPriceQuery reports whether text asks for a quote: a price_information
// message, or one phrased as "how much".
func IsPriceQuery(text string) bool {
	return Query(text) == domain.CategoryPriceInformation ||
		strings.Contains(strings.ToLower(text), "how much")
}

func match[T any](text string, rules []rule[T], fallback T) T {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.result
			}
		}
	}
	return fallback
}
