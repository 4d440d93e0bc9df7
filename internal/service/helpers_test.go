package service

import (
	"context"
	"sync"
	"testing"

	"go-inventory-ledger/internal/events"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) actions() []events.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Action, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	return repository.NewStore(repository.NewTestDB(t))
}

func newTestInventory(t *testing.T) (InventoryService, *repository.Store, *recorder) {
	t.Helper()
	store := newTestStore(t)
	rec := &recorder{}
	return NewInventoryService(store, rec, zap.NewNop()), store, rec
}

func asUser(name string) context.Context {
	return WithIdentity(context.Background(), Identity{
		UserID:   uuid.New(),
		Username: name,
		Role:     model.RoleUser,
		Approved: true,
	})
}

func asAdmin(name string) context.Context {
	return WithIdentity(context.Background(), Identity{
		UserID:   uuid.New(),
		Username: name,
		Role:     model.RoleAdmin,
		Approved: true,
	})
}

func mustRegister(t *testing.T, svc InventoryService, ctx context.Context, name, spec string, qty int) *model.Item {
	t.Helper()
	res, err := svc.RegisterItem(ctx, RegisterItemRequest{Name: name, Spec: spec, Quantity: qty})
	if err != nil {
		t.Fatalf("RegisterItem(%s, %s): %v", name, spec, err)
	}
	if !res.Created {
		t.Fatalf("RegisterItem(%s, %s): expected a new item", name, spec)
	}
	return res.Item
}

func countByType(histories []model.History) map[model.ChangeType]int {
	counts := make(map[model.ChangeType]int)
	for _, h := range histories {
		counts[h.ChangeType]++
	}
	return counts
}
