package repository

import (
	"context"
	"testing"
	"time"

	"go-inventory-ledger/internal/model"
)

func TestHistorySurvivesItemDeletion(t *testing.T) {
	store := NewStore(NewTestDB(t))
	ctx := context.Background()
	item := createItem(t, store.Items, "Bolt", "M6", 0)

	if err := store.Histories.Append(ctx, model.NewHistory(item, model.ChangeIn, 3, "Alice")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.Histories.DetachItem(ctx, item.ID); err != nil {
		t.Fatalf("DetachItem: %v", err)
	}
	if err := store.Items.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	histories, err := store.Histories.ListWithItem(ctx)
	if err != nil {
		t.Fatalf("ListWithItem: %v", err)
	}
	if len(histories) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(histories))
	}
	h := histories[0]
	if h.ItemID != nil || h.Item != nil {
		t.Errorf("expected detached row, got item_id=%v item=%v", h.ItemID, h.Item)
	}
	if h.ItemName != "Bolt" || h.ItemSpec != "M6" {
		t.Errorf("expected snapshot Bolt/M6, got %s/%s", h.ItemName, h.ItemSpec)
	}
}

func TestListWithItemNewestFirst(t *testing.T) {
	store := NewStore(NewTestDB(t))
	ctx := context.Background()
	item := createItem(t, store.Items, "Bolt", "M6", 0)

	for _, qty := range []int{1, 2, 3} {
		if err := store.Histories.Append(ctx, model.NewHistory(item, model.ChangeIn, qty, "Alice")); err != nil {
			t.Fatalf("Append: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	histories, err := store.Histories.ListWithItem(ctx)
	if err != nil {
		t.Fatalf("ListWithItem: %v", err)
	}
	if len(histories) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(histories))
	}
	if histories[0].Quantity != 3 || histories[2].Quantity != 1 {
		t.Errorf("expected newest first, got %d..%d", histories[0].Quantity, histories[2].Quantity)
	}
	if histories[0].Item == nil || histories[0].Item.ID != item.ID {
		t.Errorf("expected joined item on live row")
	}
}
