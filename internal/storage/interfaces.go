package storage

import (
	"context"

	"croak-assistant/internal/domain"
)

// TokenStore provides access to tokens and token_aliases storage.
type TokenStore interface {
	// Upsert inserts a token or replaces the stored record with the same symbol.
	Upsert(ctx context.Context, r *domain.TokenRecord) error

	// GetBySymbol retrieves a token by its canonical symbol. Returns ErrNotFound if not exists.
	GetBySymbol(ctx context.Context, symbol string) (*domain.TokenRecord, error)

	// List retrieves all tokens ordered by position ASC.
	List(ctx context.Context) ([]*domain.TokenRecord, error)

	// UpsertAlias inserts an alias or re-points it. Returns ErrNotFound if the symbol is unknown.
	UpsertAlias(ctx context.Context, a *domain.TokenAlias) error

	// ListAliases retrieves all curated aliases ordered by position ASC.
	ListAliases(ctx context.Context) ([]*domain.TokenAlias, error)
}

// InteractionStore provides access to interactions storage.
// Append-only: answered questions are never updated.
type InteractionStore interface {
	// Insert adds a new interaction. Returns ErrDuplicateKey if id exists.
	Insert(ctx context.Context, i *domain.Interaction) error

	// GetByID retrieves an interaction by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Interaction, error)

	// ListRecent retrieves up to limit interactions, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.Interaction, error)
}

// MarketSnapshotStore provides access to market_snapshots storage.
type MarketSnapshotStore interface {
	// Insert adds a snapshot. Returns ErrDuplicateKey if (symbol, source, observed_at) exists.
	Insert(ctx context.Context, f *domain.MarketFigures) error

	// Latest retrieves the most recent snapshot for symbol from any source.
	// Returns ErrNotFound if none exists.
	Latest(ctx context.Context, symbol string) (*domain.MarketFigures, error)

	// GetByTimeRange retrieves snapshots for symbol within [start, end] (inclusive), ordered by observed_at ASC.
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.MarketFigures, error)
}
