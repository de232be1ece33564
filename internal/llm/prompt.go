// Package llm asks a language model to answer token questions from market data.
package llm

import (
	"fmt"
	"strings"
	"time"

	"croak-assistant/internal/compose"
	"croak-assistant/internal/domain"
)

// Prompt is everything the model is told about one question.
type Prompt struct {
	Message  string
	Symbol   string
	Category domain.QueryCategory
	Intent   domain.Intent
	Token    domain.TokenRecord
	Figures  domain.MarketFigures
}

// BuildContext renders the market data block. Missing values read Unknown.
func BuildContext(tok domain.TokenRecord, f domain.MarketFigures) string {
	name := tok.Name
	if name == "" {
		name = tok.Symbol
	}

	change := compose.Placeholder
	if f.Change24h != nil {
		change = fmt.Sprintf("%.2f%%", *f.Change24h)
	}

	price := compose.Placeholder
	if f.Price != nil {
		price = "$" + compose.FormatPrice(*f.Price)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Token: %s (%s)\n", name, tok.Symbol)
	fmt.Fprintf(&b, "Current Price: %s\n", price)
	fmt.Fprintf(&b, "Market Cap: %s\n", largeOrUnknown(f.MarketCap))
	fmt.Fprintf(&b, "24h Volume: %s\n", largeOrUnknown(f.Volume24h))
	fmt.Fprintf(&b, "24h Change: %s\n", change)
	fmt.Fprintf(&b, "Category: %s\n", orUnknown(tok.Category))
	fmt.Fprintf(&b, "Description: %s", orUnknown(tok.Description))
	return b.String()
}

// SystemPrompt returns the assistant instructions dated now.
func SystemPrompt(now time.Time) string {
	return `You are a cryptocurrency trading assistant. Provide helpful, accurate information about cryptocurrencies based on the market data provided.

Important guidelines:
- Never make specific price predictions or give financial advice
- Always include disclaimers when discussing trading strategies
- Keep responses concise and focused on the data provided
- For price queries, emphasize current price, recent changes, and market context
- For trading strategy queries, focus on risk management and technical indicators
- For general information queries, provide factual information about the token
- Current date: ` + now.UTC().Format("2006-01-02")
}

// UserMessage returns the human turn for p.
func UserMessage(p Prompt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on this market data:\n%s\n\n", BuildContext(p.Token, p.Figures))
	fmt.Fprintf(&b, "The user is asking about %s for %s.", p.Category.Label(), p.Symbol)
	if p.Intent != "" && p.Intent != domain.IntentUnknown {
		fmt.Fprintf(&b, " The question reads as %s.", strings.ReplaceAll(p.Intent.String(), "_", " "))
	}
	fmt.Fprintf(&b, " Their query is: %q", p.Message)
	return b.String()
}

func largeOrUnknown(v *float64) string {
	if v == nil {
		return compose.Placeholder
	}
	return compose.FormatLargeNumber(*v)
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return compose.Placeholder
	}
	return s
}
