package market

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"croak-assistant/internal/domain"
	"croak-assistant/internal/storage"
)

// SnapshotSource records every successful fetch of a live source and serves
// the latest recorded snapshot when the live source fails.
type SnapshotSource struct {
	live   Source
	store  storage.MarketSnapshotStore
	logger *zap.Logger
}

// NewSnapshotSource wraps live with store.
func NewSnapshotSource(live Source, store storage.MarketSnapshotStore, logger *zap.Logger) *SnapshotSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotSource{live: live, store: store, logger: logger}
}

// Figures implements Source.
func (s *SnapshotSource) Figures(ctx context.Context, symbol string) (*domain.MarketFigures, error) {
	f, err := s.live.Figures(ctx, symbol)
	if err == nil {
		if ierr := s.store.Insert(ctx, f); ierr != nil && !errors.Is(ierr, storage.ErrDuplicateKey) {
			s.logger.Warn("record market snapshot",
				zap.String("symbol", f.Symbol),
				zap.String("source", f.Source),
				zap.Error(ierr),
			)
		}
		return f, nil
	}

	last, serr := s.store.Latest(ctx, symbol)
	if serr != nil {
		if !errors.Is(serr, storage.ErrNotFound) {
			s.logger.Warn("load market snapshot", zap.String("symbol", symbol), zap.Error(serr))
		}
		return nil, err
	}

	s.logger.Info("serving stored market snapshot",
		zap.String("symbol", symbol),
		zap.String("source", last.Source),
		zap.Int64("observed_at", last.ObservedAt),
		zap.NamedError("live_error", err),
	)
	return last, nil
}
