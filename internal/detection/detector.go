// Package detection finds the token a free-form message is about.
package detection

import (
	"regexp"
	"strings"

	"croak-assistant/internal/catalog"
	"croak-assistant/internal/domain"
)

// Rule identifies which detection rule produced a match.
type Rule string

const (
	RuleDollar Rule = "dollar" // explicit $SYMBOL ticker
	RuleAlias  Rule = "alias"  // display name or curated nickname
	RuleSymbol Rule = "symbol" // bare symbol as a whole word
	RuleNone   Rule = "none"
)

// String returns the string representation of Rule.
func (r Rule) String() string {
	return string(r)
}

// Result describes a detection outcome.
type Result struct {
	Symbol string // empty when Rule is RuleNone
	Rule   Rule
	Alias  string // matched alias, set only for RuleAlias
}

// Found reports whether a symbol was detected.
func (r Result) Found() bool {
	return r.Rule != RuleNone
}

// SymbolOrFallback returns the detected symbol or domain.FallbackSymbol.
func (r Result) SymbolOrFallback() string {
	if r.Found() {
		return r.Symbol
	}
	return domain.FallbackSymbol
}

var dollarPattern = regexp.MustCompile(`\$([A-Z0-9]{2,10})`)

type symbolMatcher struct {
	symbol string
	re     *regexp.Regexp
}

// Detector resolves messages to canonical symbols.
// It is read-only after New and safe for concurrent use.
type Detector struct {
	cat     *catalog.Catalog
	aliases []domain.TokenAlias
	symbols []symbolMatcher
}

// New creates a Detector over cat.
func New(cat *catalog.Catalog) *Detector {
	d := &Detector{
		cat:     cat,
		aliases: cat.Aliases(),
	}
	for _, sym := range cat.Symbols() {
		d.symbols = append(d.symbols, symbolMatcher{
			symbol: sym,
			re:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(sym) + `\b`),
		})
	}
	return d
}

// Detect returns the symbol text refers to, if any.
func (d *Detector) Detect(text string) (string, bool) {
	r := d.Match(text)
	return r.Symbol, r.Found()
}

// Match applies the detection rules in precedence order and reports which one fired.
func (d *Detector) Match(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Rule: RuleNone}
	}

	if sym, ok := d.matchDollar(text); ok {
		return Result{Symbol: sym, Rule: RuleDollar}
	}
	if a, ok := d.matchAlias(text); ok {
		return Result{Symbol: a.Symbol, Rule: RuleAlias, Alias: a.Alias}
	}
	if sym, ok := d.matchSymbol(text); ok {
		return Result{Symbol: sym, Rule: RuleSymbol}
	}
	return Result{Rule: RuleNone}
}

// matchDollar returns the first $TICKER, left to right, that names a known symbol.
func (d *Detector) matchDollar(text string) (string, bool) {
	for _, m := range dollarPattern.FindAllStringSubmatch(strings.ToUpper(text), -1) {
		if d.cat.Contains(m[1]) {
			return m[1], true
		}
	}
	return "", false
}

// matchAlias picks, among aliases contained in text, the one whose first
// occurrence starts earliest. Ties go to the longer alias, then to the alias
// added to the index first.
func (d *Detector) matchAlias(text string) (domain.TokenAlias, bool) {
	lower := strings.ToLower(text)

	best := -1
	bestAt := 0
	for i, a := range d.aliases {
		at := strings.Index(lower, a.Alias)
		if at < 0 {
			continue
		}
		if best < 0 || at < bestAt || (at == bestAt && len(a.Alias) > len(d.aliases[best].Alias)) {
			best, bestAt = i, at
		}
	}
	if best < 0 {
		return domain.TokenAlias{}, false
	}
	return d.aliases[best], true
}

// matchSymbol returns the first symbol, in dictionary order, present as a whole word.
func (d *Detector) matchSymbol(text string) (string, bool) {
	for _, m := range d.symbols {
		if m.re.MatchString(text) {
			return m.symbol, true
		}
	}
	return "", false
}
