package memory

import (
	"context"
	"sort"
	"sync"

	"croak-assistant/internal/domain"
	"croak-assistant/internal/storage"
)

// DefaultSnapshotRetention is the number of snapshots kept per (symbol, source).
const DefaultSnapshotRetention = 64

// MarketSnapshotStore is an in-memory implementation of storage.MarketSnapshotStore.
// It keeps the newest snapshots of each (symbol, source) series and drops older ones.
type MarketSnapshotStore struct {
	mu        sync.RWMutex
	retention int
	series    map[string]map[string][]*domain.MarketFigures // symbol -> source -> ascending by observed_at
}

// NewMarketSnapshotStore creates a store keeping DefaultSnapshotRetention
// snapshots per series.
func NewMarketSnapshotStore() *MarketSnapshotStore {
	return NewMarketSnapshotStoreWithRetention(DefaultSnapshotRetention)
}

// NewMarketSnapshotStoreWithRetention creates a store keeping at most n
// snapshots per series. n below 1 is treated as 1.
func NewMarketSnapshotStoreWithRetention(n int) *MarketSnapshotStore {
	if n < 1 {
		n = 1
	}
	return &MarketSnapshotStore{
		retention: n,
		series:    make(map[string]map[string][]*domain.MarketFigures),
	}
}

// Insert adds a snapshot. Returns ErrDuplicateKey if the (symbol, source,
// observed_at) key is already retained. A snapshot older than a full series
// is discarded.
func (s *MarketSnapshotStore) Insert(_ context.Context, f *domain.MarketFigures) error {
	if f == nil || f.Symbol == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bySource, ok := s.series[f.Symbol]
	if !ok {
		bySource = make(map[string][]*domain.MarketFigures)
		s.series[f.Symbol] = bySource
	}
	list := bySource[f.Source]

	i := sort.Search(len(list), func(i int) bool { return list[i].ObservedAt >= f.ObservedAt })
	if i < len(list) && list[i].ObservedAt == f.ObservedAt {
		return storage.ErrDuplicateKey
	}

	c := cloneFigures(f)
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = &c

	if over := len(list) - s.retention; over > 0 {
		for j := 0; j < over; j++ {
			list[j] = nil
		}
		list = append(list[:0:0], list[over:]...)
	}
	bySource[f.Source] = list
	return nil
}

// Latest retrieves the most recent snapshot for symbol. Returns ErrNotFound if none exists.
func (s *MarketSnapshotStore) Latest(_ context.Context, symbol string) (*domain.MarketFigures, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.MarketFigures
	for _, list := range s.series[symbol] {
		if len(list) == 0 {
			continue
		}
		f := list[len(list)-1]
		if latest == nil || f.ObservedAt > latest.ObservedAt ||
			(f.ObservedAt == latest.ObservedAt && f.Source < latest.Source) {
			latest = f
		}
	}

	if latest == nil {
		return nil, storage.ErrNotFound
	}

	c := cloneFigures(latest)
	return &c, nil
}

// GetByTimeRange retrieves retained snapshots for symbol within [start, end] (inclusive).
func (s *MarketSnapshotStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]*domain.MarketFigures, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MarketFigures
	for _, list := range s.series[symbol] {
		for _, f := range list {
			if f.ObservedAt >= start && f.ObservedAt <= end {
				c := cloneFigures(f)
				result = append(result, &c)
			}
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].ObservedAt != result[j].ObservedAt {
			return result[i].ObservedAt < result[j].ObservedAt
		}
		return result[i].Source < result[j].Source
	})

	return result, nil
}

// Len returns the number of retained snapshots.
func (s *MarketSnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, bySource := range s.series {
		for _, list := range bySource {
			n += len(list)
		}
	}
	return n
}

// cloneFigures copies raw figures. Derived indicators are not stored.
func cloneFigures(f *domain.MarketFigures) domain.MarketFigures {
	return domain.MarketFigures{
		Symbol:     f.Symbol,
		Source:     f.Source,
		ObservedAt: f.ObservedAt,
		Price:      clonePtr(f.Price),
		Change24h:  clonePtr(f.Change24h),
		Change7d:   clonePtr(f.Change7d),
		Change30d:  clonePtr(f.Change30d),
		MarketCap:  clonePtr(f.MarketCap),
		Volume24h:  clonePtr(f.Volume24h),
	}
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

var _ storage.MarketSnapshotStore = (*MarketSnapshotStore)(nil)
