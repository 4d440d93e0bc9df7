package events

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"
)

type Action string

const (
	ActionItemCreated   Action = "item_created"
	ActionItemUpdated   Action = "item_updated"
	ActionStockMoved    Action = "stock_moved"
	ActionItemDeleted   Action = "item_deleted"
	ActionItemsImported Action = "items_imported"
)

// TypeStockUpdate is the payload type websocket clients subscribe to.
const TypeStockUpdate = "stock_update"

// Event describes a committed ledger change.
type Event struct {
	Type       string         `json:"type"`
	Action     Action         `json:"action"`
	Item       *model.Item    `json:"item,omitempty"`
	History    *model.History `json:"history,omitempty"`
	Actor      string         `json:"actor"`
	Message    string         `json:"message"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// New stamps an event with its type and time.
func New(action Action, actor, message string) Event {
	return Event{
		Type:       TypeStockUpdate,
		Action:     action,
		Actor:      actor,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events after the ledger transaction committed.
// Implementations must not block the caller on slow consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

type nop struct{}

func (nop) Publish(context.Context, Event) {}

// Nop discards every event.
var Nop Publisher = nop{}

// Multi fans an event out to several publishers.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) {
	for _, p := range m {
		p.Publish(ctx, event)
	}
}
