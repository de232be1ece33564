package memory

import (
	"context"
	"errors"
	"testing"

	"croak-assistant/internal/domain"
	"croak-assistant/internal/storage"
)

func TestInteractionStore_InsertAndGetByID(t *testing.T) {
	store := NewInteractionStore()
	ctx := context.Background()

	sym := "BTC"
	in := &domain.Interaction{
		ID:        "i1",
		Message:   "What's the current price of Bitcoin?",
		Symbol:    &sym,
		Rule:      "alias",
		Category:  domain.CategoryPriceInformation,
		Intent:    domain.IntentGeneralInfo,
		Response:  "The current price of Bitcoin (BTC) is Unknown.",
		Source:    "composer",
		CreatedAt: 1704067200000,
	}

	if err := store.Insert(ctx, in); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	result, err := store.GetByID(ctx, "i1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if result.Symbol == nil || *result.Symbol != "BTC" {
		t.Errorf("Symbol mismatch: got %v, want BTC", result.Symbol)
	}
	if result.Category != domain.CategoryPriceInformation {
		t.Errorf("Category mismatch: got %s", result.Category)
	}
}

func TestInteractionStore_DuplicateID(t *testing.T) {
	store := NewInteractionStore()
	ctx := context.Background()

	in := &domain.Interaction{ID: "i1", Message: "hi"}
	if err := store.Insert(ctx, in); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, in)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestInteractionStore_NotFound(t *testing.T) {
	store := NewInteractionStore()

	_, err := store.GetByID(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestInteractionStore_ListRecent(t *testing.T) {
	store := NewInteractionStore()
	ctx := context.Background()

	for _, in := range []*domain.Interaction{
		{ID: "a", CreatedAt: 1000},
		{ID: "b", CreatedAt: 3000},
		{ID: "c", CreatedAt: 2000},
		{ID: "d", CreatedAt: 3000},
	} {
		if err := store.Insert(ctx, in); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	results, err := store.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}

	// d and b share a timestamp; the later insert comes first.
	want := []string{"d", "b", "c"}
	if len(results) != len(want) {
		t.Fatalf("Expected %d results, got %d", len(want), len(results))
	}
	for i, id := range want {
		if results[i].ID != id {
			t.Errorf("results[%d] = %s, want %s", i, results[i].ID, id)
		}
	}

	if _, err := store.ListRecent(ctx, 0); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for limit 0, got %v", err)
	}
}
