package market

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"croak-assistant/internal/domain"
)

// ErrUnavailable is returned when no source could supply figures.
var ErrUnavailable = errors.New("market data unavailable")

// Source supplies raw market figures for a symbol.
type Source interface {
	Figures(ctx context.Context, symbol string) (*domain.MarketFigures, error)
}

// Chain tries sources in order and returns the first success.
type Chain struct {
	sources []Source
	logger  *zap.Logger
}

// NewChain creates a Chain over sources.
func NewChain(logger *zap.Logger, sources ...Source) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{sources: sources, logger: logger}
}

// Figures returns figures from the first source that succeeds. When every
// source fails it returns empty figures for symbol and an error wrapping
// ErrUnavailable, so callers can still render placeholders.
func (c *Chain) Figures(ctx context.Context, symbol string) (*domain.MarketFigures, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	var errs []error
	for i, src := range c.sources {
		f, err := src.Figures(ctx, symbol)
		if err == nil && f != nil {
			return f, nil
		}
		if err == nil {
			err = errors.New("no figures returned")
		}
		c.logger.Debug("market source failed",
			zap.Int("source_index", i),
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}

	if len(errs) == 0 {
		errs = append(errs, errors.New("no sources configured"))
	}
	return &domain.MarketFigures{Symbol: symbol}, fmt.Errorf("%w for %s: %w", ErrUnavailable, symbol, errors.Join(errs...))
}
