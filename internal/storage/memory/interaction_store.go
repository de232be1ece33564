package memory

import (
	"context"
	"sort"
	"sync"

	"croak-assistant/internal/domain"
	"croak-assistant/internal/storage"
)

// InteractionStore is an in-memory implementation of storage.InteractionStore.
type InteractionStore struct {
	mu   sync.RWMutex
	byID map[string]*domain.Interaction
	seq  []string // insertion order, used to break CreatedAt ties
}

// NewInteractionStore creates a new in-memory interaction store.
func NewInteractionStore() *InteractionStore {
	return &InteractionStore{
		byID: make(map[string]*domain.Interaction),
	}
}

// Insert adds a new interaction. Returns ErrDuplicateKey if id already exists.
func (s *InteractionStore) Insert(_ context.Context, i *domain.Interaction) error {
	if i == nil || i.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[i.ID]; exists {
		return storage.ErrDuplicateKey
	}

	c := cloneInteraction(i)
	s.byID[i.ID] = &c
	s.seq = append(s.seq, i.ID)
	return nil
}

// GetByID retrieves an interaction by ID. Returns ErrNotFound if not exists.
func (s *InteractionStore) GetByID(_ context.Context, id string) (*domain.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, exists := s.byID[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	c := cloneInteraction(i)
	return &c, nil
}

// ListRecent retrieves up to limit interactions, newest first.
func (s *InteractionStore) ListRecent(_ context.Context, limit int) ([]*domain.Interaction, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	order := make(map[string]int, len(s.seq))
	result := make([]*domain.Interaction, 0, len(s.seq))
	for n, id := range s.seq {
		order[id] = n
		c := cloneInteraction(s.byID[id])
		result = append(result, &c)
	}

	sort.Slice(result, func(a, b int) bool {
		if result[a].CreatedAt != result[b].CreatedAt {
			return result[a].CreatedAt > result[b].CreatedAt
		}
		return order[result[a].ID] > order[result[b].ID]
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func cloneInteraction(i *domain.Interaction) domain.Interaction {
	c := *i
	if i.Symbol != nil {
		v := *i.Symbol
		c.Symbol = &v
	}
	return c
}

var _ storage.InteractionStore = (*InteractionStore)(nil)
