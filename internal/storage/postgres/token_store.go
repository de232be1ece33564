package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"croak-assistant/internal/domain"
	"croak-assistant/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Upsert inserts a token or replaces the stored record with the same symbol.
func (s *TokenStore) Upsert(ctx context.Context, r *domain.TokenRecord) error {
	if r == nil || r.Symbol == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tokens (
			symbol, name, decimals, category, description, logo_url, chain, address, position
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			decimals = EXCLUDED.decimals,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			logo_url = EXCLUDED.logo_url,
			chain = EXCLUDED.chain,
			address = EXCLUDED.address,
			position = EXCLUDED.position,
			updated_at = (EXTRACT(EPOCH FROM NOW()) * 1000)::BIGINT
	`

	_, err := s.pool.Exec(ctx, query,
		r.Symbol,
		r.Name,
		r.Decimals,
		r.Category,
		r.Description,
		r.LogoURL,
		r.Chain,
		r.Address,
		r.Position,
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// GetBySymbol retrieves a token by symbol. Returns ErrNotFound if not exists.
func (s *TokenStore) GetBySymbol(ctx context.Context, symbol string) (*domain.TokenRecord, error) {
	query := `
		SELECT symbol, name, decimals, category, description, logo_url, chain, address, position
		FROM tokens
		WHERE symbol = $1
	`

	row := s.pool.QueryRow(ctx, query, symbol)
	r, err := scanToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by symbol: %w", err)
	}
	return r, nil
}

// List retrieves all tokens ordered by position ASC.
func (s *TokenStore) List(ctx context.Context) ([]*domain.TokenRecord, error) {
	query := `
		SELECT symbol, name, decimals, category, description, logo_url, chain, address, position
		FROM tokens
		ORDER BY position ASC, symbol ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var result []*domain.TokenRecord
	for rows.Next() {
		r, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}
	return result, nil
}

// UpsertAlias inserts an alias or re-points it. Returns ErrNotFound if the symbol is unknown.
func (s *TokenStore) UpsertAlias(ctx context.Context, a *domain.TokenAlias) error {
	if a == nil || a.Alias == "" || a.Symbol == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_aliases (alias, symbol, position)
		VALUES ($1, $2, $3)
		ON CONFLICT (alias) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			position = EXCLUDED.position
	`

	_, err := s.pool.Exec(ctx, query, a.Alias, a.Symbol, a.Position)
	if err != nil {
		if isForeignKeyError(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("upsert token alias: %w", err)
	}
	return nil
}

// ListAliases retrieves all aliases ordered by position ASC.
func (s *TokenStore) ListAliases(ctx context.Context) ([]*domain.TokenAlias, error) {
	query := `
		SELECT alias, symbol, position
		FROM token_aliases
		ORDER BY position ASC, alias ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list token aliases: %w", err)
	}
	defer rows.Close()

	var result []*domain.TokenAlias
	for rows.Next() {
		var a domain.TokenAlias
		if err := rows.Scan(&a.Alias, &a.Symbol, &a.Position); err != nil {
			return nil, fmt.Errorf("scan token alias: %w", err)
		}
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token aliases: %w", err)
	}
	return result, nil
}

// scanToken scans a single row into TokenRecord.
func scanToken(row pgx.Row) (*domain.TokenRecord, error) {
	var r domain.TokenRecord

	err := row.Scan(
		&r.Symbol,
		&r.Name,
		&r.Decimals,
		&r.Category,
		&r.Description,
		&r.LogoURL,
		&r.Chain,
		&r.Address,
		&r.Position,
	)
	if err != nil {
		return nil, err
	}

	return &r, nil
}
