package catalog

import (
	"context"
	"fmt"

	"croak-assistant/internal/domain"
	"croak-assistant/internal/storage"
)

// Load builds a catalog from the tokens and curated aliases held in store.
// Records are taken in stored position order.
func Load(ctx context.Context, store storage.TokenStore) (*Catalog, error) {
	recs, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("token store is empty: %w", storage.ErrNotFound)
	}

	aliases, err := store.ListAliases(ctx)
	if err != nil {
		return nil, fmt.Errorf("list token aliases: %w", err)
	}

	records := make([]domain.TokenRecord, len(recs))
	for i, r := range recs {
		records[i] = *r
	}
	curated := make([]domain.TokenAlias, len(aliases))
	for i, a := range aliases {
		curated[i] = *a
	}

	return New(records, curated)
}

// Seed writes every record and curated alias of c into store.
// Existing rows with the same keys are replaced.
func Seed(ctx context.Context, store storage.TokenStore, c *Catalog) error {
	for _, rec := range c.records {
		r := cloneRecord(rec)
		if err := store.Upsert(ctx, &r); err != nil {
			return fmt.Errorf("seed token %s: %w", rec.Symbol, err)
		}
	}
	for _, a := range c.curated {
		alias := a
		if err := store.UpsertAlias(ctx, &alias); err != nil {
			return fmt.Errorf("seed alias %q: %w", a.Alias, err)
		}
	}
	return nil
}
