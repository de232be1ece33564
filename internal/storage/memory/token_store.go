package memory

import (
	"context"
	"sort"
	"sync"

	"croak-assistant/internal/domain"
	"croak-assistant/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu       sync.RWMutex
	bySymbol map[string]*domain.TokenRecord // keyed by symbol
	aliases  map[string]*domain.TokenAlias  // keyed by alias
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		bySymbol: make(map[string]*domain.TokenRecord),
		aliases:  make(map[string]*domain.TokenAlias),
	}
}

// Upsert inserts a token or replaces the stored record with the same symbol.
func (s *TokenStore) Upsert(_ context.Context, r *domain.TokenRecord) error {
	if r == nil || r.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := cloneRecord(r)
	s.bySymbol[r.Symbol] = &rec
	return nil
}

// GetBySymbol retrieves a token by symbol. Returns ErrNotFound if not exists.
func (s *TokenStore) GetBySymbol(_ context.Context, symbol string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.bySymbol[symbol]
	if !exists {
		return nil, storage.ErrNotFound
	}

	rec := cloneRecord(r)
	return &rec, nil
}

// List retrieves all tokens ordered by position ASC.
func (s *TokenStore) List(_ context.Context) ([]*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TokenRecord, 0, len(s.bySymbol))
	for _, r := range s.bySymbol {
		rec := cloneRecord(r)
		result = append(result, &rec)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Position != result[j].Position {
			return result[i].Position < result[j].Position
		}
		return result[i].Symbol < result[j].Symbol
	})

	return result, nil
}

// UpsertAlias inserts an alias or re-points it. Returns ErrNotFound if the symbol is unknown.
func (s *TokenStore) UpsertAlias(_ context.Context, a *domain.TokenAlias) error {
	if a == nil || a.Alias == "" || a.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bySymbol[a.Symbol]; !exists {
		return storage.ErrNotFound
	}

	aliasCopy := *a
	s.aliases[a.Alias] = &aliasCopy
	return nil
}

// ListAliases retrieves all aliases ordered by position ASC.
func (s *TokenStore) ListAliases(_ context.Context) ([]*domain.TokenAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TokenAlias, 0, len(s.aliases))
	for _, a := range s.aliases {
		aliasCopy := *a
		result = append(result, &aliasCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Position != result[j].Position {
			return result[i].Position < result[j].Position
		}
		return result[i].Alias < result[j].Alias
	})

	return result, nil
}

func cloneRecord(r *domain.TokenRecord) domain.TokenRecord {
	rec := *r
	if r.LogoURL != nil {
		v := *r.LogoURL
		rec.LogoURL = &v
	}
	if r.Address != nil {
		v := *r.Address
		rec.Address = &v
	}
	return rec
}

var _ storage.TokenStore = (*TokenStore)(nil)
