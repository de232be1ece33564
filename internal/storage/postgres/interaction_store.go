package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"croak-assistant/internal/domain"
	"croak-assistant/internal/storage"
)

// InteractionStore implements storage.InteractionStore using PostgreSQL.
type InteractionStore struct {
	pool *Pool
}

// NewInteractionStore creates a new InteractionStore.
func NewInteractionStore(pool *Pool) *InteractionStore {
	return &InteractionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.InteractionStore = (*InteractionStore)(nil)

// Insert adds a new interaction. Returns ErrDuplicateKey if id exists.
func (s *InteractionStore) Insert(ctx context.Context, i *domain.Interaction) error {
	if i == nil || i.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO interactions (
			id, message, symbol, rule, category, intent, response, source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		i.ID,
		i.Message,
		i.Symbol,
		i.Rule,
		string(i.Category),
		string(i.Intent),
		i.Response,
		i.Source,
		i.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert interaction: %w", err)
	}
	return nil
}

// GetByID retrieves an interaction by ID. Returns ErrNotFound if not exists.
func (s *InteractionStore) GetByID(ctx context.Context, id string) (*domain.Interaction, error) {
	query := `
		SELECT id, message, symbol, rule, category, intent, response, source, created_at
		FROM interactions
		WHERE id = $1
	`

	row := s.pool.QueryRow(ctx, query, id)
	i, err := scanInteraction(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get interaction by id: %w", err)
	}
	return i, nil
}

// ListRecent retrieves up to limit interactions, newest first.
func (s *InteractionStore) ListRecent(ctx context.Context, limit int) ([]*domain.Interaction, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT id, message, symbol, rule, category, intent, response, source, created_at
		FROM interactions
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent interactions: %w", err)
	}
	defer rows.Close()

	var result []*domain.Interaction
	for rows.Next() {
		i, err := scanInteraction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		result = append(result, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return result, nil
}

// scanInteraction scans a single row into Interaction.
func scanInteraction(row pgx.Row) (*domain.Interaction, error) {
	var i domain.Interaction
	var category, intent string

	err := row.Scan(
		&i.ID,
		&i.Message,
		&i.Symbol,
		&i.Rule,
		&category,
		&intent,
		&i.Response,
		&i.Source,
		&i.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	i.Category = domain.QueryCategory(category)
	i.Intent = domain.Intent(intent)
	return &i, nil
}
