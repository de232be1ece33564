package clickhouse

import (
	"context"
	"fmt"

	"croak-assistant/internal/domain"
	"croak-assistant/internal/storage"
)

// MarketSnapshotStore implements storage.MarketSnapshotStore using ClickHouse.
type MarketSnapshotStore struct {
	conn *Conn
}

// NewMarketSnapshotStore creates a new MarketSnapshotStore.
func NewMarketSnapshotStore(conn *Conn) *MarketSnapshotStore {
	return &MarketSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MarketSnapshotStore = (*MarketSnapshotStore)(nil)

const snapshotColumns = `symbol, source, observed_at,
	price, change_24h, change_7d, change_30d, market_cap, volume_24h`

// Insert adds a snapshot. Returns ErrDuplicateKey if (symbol, source, observed_at) exists.
// MergeTree does not enforce uniqueness, so the key is checked before insert.
func (s *MarketSnapshotStore) Insert(ctx context.Context, f *domain.MarketFigures) error {
	if f == nil || f.Symbol == "" || f.ObservedAt < 0 {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, f.Symbol, f.Source, f.ObservedAt)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO market_snapshots (`+snapshotColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		f.Symbol, f.Source, uint64(f.ObservedAt),
		f.Price, f.Change24h, f.Change7d, f.Change30d, f.MarketCap, f.Volume24h,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// Latest retrieves the most recent snapshot for symbol. Returns ErrNotFound if none exists.
func (s *MarketSnapshotStore) Latest(ctx context.Context, symbol string) (*domain.MarketFigures, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM market_snapshots
		WHERE symbol = ?
		ORDER BY observed_at DESC, source ASC
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	defer rows.Close()

	snapshots, err := scanMarketSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, storage.ErrNotFound
	}
	return snapshots[0], nil
}

// GetByTimeRange retrieves snapshots for symbol within [start, end] (inclusive).
func (s *MarketSnapshotStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.MarketFigures, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM market_snapshots
		WHERE symbol = ? AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC, source ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanMarketSnapshots(rows)
}

// exists checks if a snapshot with the given key exists.
func (s *MarketSnapshotStore) exists(ctx context.Context, symbol, source string, observedAt int64) (bool, error) {
	query := `
		SELECT count(*) FROM market_snapshots
		WHERE symbol = ? AND source = ? AND observed_at = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, symbol, source, uint64(observedAt)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanMarketSnapshots scans multiple rows.
func scanMarketSnapshots(rows chRows) ([]*domain.MarketFigures, error) {
	var result []*domain.MarketFigures

	for rows.Next() {
		var f domain.MarketFigures
		var observedAt uint64

		err := rows.Scan(
			&f.Symbol, &f.Source, &observedAt,
			&f.Price, &f.Change24h, &f.Change7d, &f.Change30d, &f.MarketCap, &f.Volume24h,
		)
		if err != nil {
			return nil, fmt.Errorf("scan market snapshot row: %w", err)
		}

		f.ObservedAt = int64(observedAt)
		result = append(result, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate market snapshot rows: %w", err)
	}

	return result, nil
}
