// Package catalog holds the token dictionary and the alias index derived from it.
// A Catalog is built once and never mutated, so it is safe to share between goroutines.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"croak-assistant/internal/domain"
)

//go:embed tokens.yaml
var defaultTokensYAML []byte

// Construction errors.
var (
	ErrDuplicateSymbol = errors.New("duplicate token symbol")
	ErrAmbiguousAlias  = errors.New("alias maps to more than one symbol")
	ErrUnknownSymbol   = errors.New("alias refers to unknown symbol")
	ErrInvalidRecord   = errors.New("invalid token record")
)

// Catalog is an immutable token dictionary with its alias index.
type Catalog struct {
	records  []domain.TokenRecord
	bySymbol map[string]int

	// aliases is the full index in construction order: display names first, then curated.
	aliases    []domain.TokenAlias
	aliasIndex map[string]string
	curated    []domain.TokenAlias
}

// document is the on-disk layout of tokens.yaml.
type document struct {
	Tokens  []domain.TokenRecord `yaml:"tokens"`
	Aliases []domain.TokenAlias  `yaml:"aliases"`
}

var (
	defaultCatalog *Catalog
	defaultOnce    sync.Once
	defaultErr     error
)

// Default returns the catalog built from the embedded tokens.yaml.
// The result is built on first use and shared afterwards.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(defaultTokensYAML)
		if defaultErr != nil {
			defaultErr = fmt.Errorf("embedded tokens.yaml: %w", defaultErr)
		}
	})
	return defaultCatalog, defaultErr
}

// MustDefault is like Default but panics if the embedded dictionary is invalid.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from a tokens.yaml document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse token document: %w", err)
	}
	return New(doc.Tokens, doc.Aliases)
}

// New validates records and builds the alias index.
// Records keep their slice order as declaration order. Curated aliases are
// applied after the lowercased display names of all records.
func New(records []domain.TokenRecord, curated []domain.TokenAlias) (*Catalog, error) {
	c := &Catalog{
		records:    make([]domain.TokenRecord, 0, len(records)),
		bySymbol:   make(map[string]int, len(records)),
		aliasIndex: make(map[string]string),
	}

	for i := range records {
		rec := cloneRecord(records[i])
		if err := validateRecord(&rec); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRecord, rec.Symbol, err)
		}
		if _, exists := c.bySymbol[rec.Symbol]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSymbol, rec.Symbol)
		}
		rec.Position = len(c.records)
		c.bySymbol[rec.Symbol] = rec.Position
		c.records = append(c.records, rec)
	}

	for _, rec := range c.records {
		if err := c.addAlias(rec.Name, rec.Symbol); err != nil {
			return nil, err
		}
	}

	for _, a := range curated {
		symbol := strings.ToUpper(strings.TrimSpace(a.Symbol))
		if _, known := c.bySymbol[symbol]; !known {
			return nil, fmt.Errorf("%w: %q -> %s", ErrUnknownSymbol, a.Alias, a.Symbol)
		}
		if err := c.addAlias(a.Alias, symbol); err != nil {
			return nil, err
		}
		c.curated = append(c.curated, domain.TokenAlias{
			Alias:    normalizeAlias(a.Alias),
			Symbol:   symbol,
			Position: len(c.curated),
		})
	}

	return c, nil
}

// addAlias registers alias for symbol. Re-declaring an alias for the same
// symbol is a no-op; declaring it for another symbol is an error.
func (c *Catalog) addAlias(alias, symbol string) error {
	name := normalizeAlias(alias)
	if name == "" {
		return fmt.Errorf("%w: empty alias for %s", ErrInvalidRecord, symbol)
	}
	if existing, ok := c.aliasIndex[name]; ok {
		if existing == symbol {
			return nil
		}
		return fmt.Errorf("%w: %q -> %s and %s", ErrAmbiguousAlias, name, existing, symbol)
	}
	c.aliasIndex[name] = symbol
	c.aliases = append(c.aliases, domain.TokenAlias{
		Alias:    name,
		Symbol:   symbol,
		Position: len(c.aliases),
	})
	return nil
}

func normalizeAlias(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}

// Len returns the number of tokens.
func (c *Catalog) Len() int {
	return len(c.records)
}

// Lookup returns the record for symbol (case-insensitive).
func (c *Catalog) Lookup(symbol string) (domain.TokenRecord, bool) {
	i, ok := c.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return domain.TokenRecord{}, false
	}
	return cloneRecord(c.records[i]), true
}

// Contains reports whether symbol is a canonical symbol of the catalog.
// The check is exact: callers normalize case themselves.
func (c *Catalog) Contains(symbol string) bool {
	_, ok := c.bySymbol[symbol]
	return ok
}

// Resolve returns the symbol an alias maps to.
func (c *Catalog) Resolve(alias string) (string, bool) {
	symbol, ok := c.aliasIndex[normalizeAlias(alias)]
	return symbol, ok
}

// Symbols returns canonical symbols in declaration order.
func (c *Catalog) Symbols() []string {
	out := make([]string, len(c.records))
	for i, rec := range c.records {
		out[i] = rec.Symbol
	}
	return out
}

// Records returns copies of all records in declaration order.
func (c *Catalog) Records() []domain.TokenRecord {
	out := make([]domain.TokenRecord, len(c.records))
	for i, rec := range c.records {
		out[i] = cloneRecord(rec)
	}
	return out
}

// Aliases returns the full alias index in construction order.
func (c *Catalog) Aliases() []domain.TokenAlias {
	out := make([]domain.TokenAlias, len(c.aliases))
	copy(out, c.aliases)
	return out
}

// Curated returns only the hand-curated aliases, in declaration order.
func (c *Catalog) Curated() []domain.TokenAlias {
	out := make([]domain.TokenAlias, len(c.curated))
	copy(out, c.curated)
	return out
}

func cloneRecord(rec domain.TokenRecord) domain.TokenRecord {
	if rec.LogoURL != nil {
		v := *rec.LogoURL
		rec.LogoURL = &v
	}
	if rec.Address != nil {
		v := *rec.Address
		rec.Address = &v
	}
	return rec
}
