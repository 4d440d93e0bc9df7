package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go-inventory-ledger/internal/events"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type InventoryService interface {
	RegisterItem(ctx context.Context, req RegisterItemRequest) (*RegisterResult, error)
	EditItemIdentity(ctx context.Context, id uuid.UUID, name, spec string) (*model.Item, error)
	AdjustStock(ctx context.Context, req AdjustStockRequest) (*model.Item, error)
	Increment(ctx context.Context, id uuid.UUID) (*model.Item, error)
	Decrement(ctx context.Context, id uuid.UUID) (*model.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) (bool, error)
	BulkImport(ctx context.Context, rows []ImportRow) (*ImportReport, error)
	QueryItems(ctx context.Context, nameContains, specContains string) ([]model.Item, error)
	ListHistory(ctx context.Context) ([]model.History, error)
	ItemHistory(ctx context.Context, id uuid.UUID) ([]model.History, error)
}

type RegisterItemRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Spec     string `json:"spec" validate:"required,max=100"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	Location string `json:"location" validate:"max=100"`
}

func (r *RegisterItemRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Spec = strings.TrimSpace(r.Spec)
	r.Location = strings.TrimSpace(r.Location)
}

// RegisterResult carries the live item for (name, spec). Created is false
// when the pair already existed and nothing was written.
type RegisterResult struct {
	Item    *model.Item `json:"item"`
	Created bool        `json:"created"`
}

type AdjustStockRequest struct {
	ItemID     uuid.UUID        `json:"item_id" validate:"uuid_required"`
	ChangeType model.ChangeType `json:"change_type" validate:"oneof=IN OUT"`
	Quantity   int              `json:"quantity" validate:"gt=0"`
	Manager    string           `json:"manager" validate:"required,max=50"`
}

type identityRequest struct {
	Name string `validate:"required,max=100"`
	Spec string `validate:"required,max=100"`
}

type inventoryService struct {
	store     *repository.Store
	publisher events.Publisher
	logger    *zap.Logger
}

func NewInventoryService(store *repository.Store, publisher events.Publisher, logger *zap.Logger) InventoryService {
	return &inventoryService{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *inventoryService) RegisterItem(ctx context.Context, req RegisterItemRequest) (*RegisterResult, error) {
	return s.registerItem(ctx, req, model.ManagerInitialRegistration)
}

// registerItem creates the item; opening stock is booked under manager.
func (s *inventoryService) registerItem(ctx context.Context, req RegisterItemRequest, manager string) (res *RegisterResult, err error) {
	ctx, span := startSpan(ctx, "inventory.RegisterItem")
	defer func() { endSpan(span, err) }()

	caller, err := requireApproved(ctx)
	if err != nil {
		return nil, err
	}

	req.normalize()
	if err = validate(&req); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("item.name", req.Name), attribute.String("item.spec", req.Spec))

	existing, err := s.store.Items.FindByNameSpec(ctx, req.Name, req.Spec)
	if err == nil {
		return &RegisterResult{Item: existing}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeError(err)
	}

	item := &model.Item{
		Name:     req.Name,
		Spec:     req.Spec,
		Quantity: req.Quantity,
		Location: req.Location,
	}
	item.CreatedBy = caller.Username
	item.UpdatedBy = caller.Username

	var entry *model.History
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Items.Create(ctx, item); err != nil {
			return err
		}
		if item.Quantity == 0 {
			return nil
		}
		entry = model.NewHistory(item, model.ChangeIn, item.Quantity, manager)
		return tx.Histories.Append(ctx, entry)
	})
	if err != nil {
		// Lost a race against a concurrent registration of the same pair.
		if errors.Is(err, repository.ErrDuplicate) {
			if existing, ferr := s.store.Items.FindByNameSpec(ctx, req.Name, req.Spec); ferr == nil {
				return &RegisterResult{Item: existing}, nil
			}
		}
		return nil, storeError(err)
	}

	s.logger.Info("item registered",
		zap.String("item_id", item.ID.String()),
		zap.String("name", item.Name),
		zap.String("spec", item.Spec),
		zap.Int("quantity", item.Quantity),
		zap.String("by", caller.Username))
	s.publish(ctx, events.ActionItemCreated, caller, item, entry,
		fmt.Sprintf("%s registered '%s %s'", caller.Username, item.Name, item.Spec))

	return &RegisterResult{Item: item, Created: true}, nil
}

func (s *inventoryService) EditItemIdentity(ctx context.Context, id uuid.UUID, name, spec string) (item *model.Item, err error) {
	ctx, span := startSpan(ctx, "inventory.EditItemIdentity", itemIDAttr(id))
	defer func() { endSpan(span, err) }()

	caller, err := requireApproved(ctx)
	if err != nil {
		return nil, err
	}

	req := identityRequest{Name: strings.TrimSpace(name), Spec: strings.TrimSpace(spec)}
	if err = validate(&req); err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Items.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		other, err := tx.Items.FindByNameSpec(ctx, req.Name, req.Spec)
		switch {
		case err == nil && other.ID != current.ID:
			return fmt.Errorf("%w: '%s %s'", ErrDuplicateKey, req.Name, req.Spec)
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return err
		}

		current.Name = req.Name
		current.Spec = req.Spec
		current.UpdatedBy = caller.Username
		if err := tx.Items.Update(ctx, current); err != nil {
			return err
		}
		item = current
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	s.publish(ctx, events.ActionItemUpdated, caller, item, nil,
		fmt.Sprintf("%s renamed item to '%s %s'", caller.Username, item.Name, item.Spec))
	return item, nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, req AdjustStockRequest) (item *model.Item, err error) {
	ctx, span := startSpan(ctx, "inventory.AdjustStock",
		itemIDAttr(req.ItemID),
		attribute.String("stock.change_type", string(req.ChangeType)),
		attribute.Int("stock.quantity", req.Quantity))
	defer func() { endSpan(span, err) }()

	caller, err := requireApproved(ctx)
	if err != nil {
		return nil, err
	}

	req.Manager = strings.TrimSpace(req.Manager)
	if req.Manager == "" {
		req.Manager = caller.Username
	}
	if err = validate(&req); err != nil {
		return nil, err
	}

	var entry *model.History
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Items.FindByIDForUpdate(ctx, req.ItemID)
		if err != nil {
			return err
		}

		if req.ChangeType == model.ChangeIn && req.Quantity > math.MaxInt-current.Quantity {
			return fmt.Errorf("%w: '%s %s' cannot hold %d more", ErrValidation, current.Name, current.Spec, req.Quantity)
		}
		next := current.Quantity + req.Quantity
		if req.ChangeType == model.ChangeOut {
			if req.Quantity > current.Quantity {
				return fmt.Errorf("%w: '%s %s' has %d, requested %d",
					ErrInsufficientStock, current.Name, current.Spec, current.Quantity, req.Quantity)
			}
			next = current.Quantity - req.Quantity
		}

		if err := tx.Items.UpdateQuantity(ctx, current.ID, next, caller.Username); err != nil {
			return err
		}
		current.Quantity = next
		current.UpdatedBy = caller.Username

		entry = model.NewHistory(current, req.ChangeType, req.Quantity, req.Manager)
		if err := tx.Histories.Append(ctx, entry); err != nil {
			return err
		}
		item = current
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}

	verb := "added"
	if req.ChangeType == model.ChangeOut {
		verb = "removed"
	}
	s.logger.Info("stock adjusted",
		zap.String("item_id", item.ID.String()),
		zap.String("change_type", string(req.ChangeType)),
		zap.Int("quantity", req.Quantity),
		zap.Int("on_hand", item.Quantity),
		zap.String("manager", req.Manager))
	s.publish(ctx, events.ActionStockMoved, caller, item, entry,
		fmt.Sprintf("%s %s %d of '%s %s'", req.Manager, verb, req.Quantity, item.Name, item.Spec))

	return item, nil
}

func (s *inventoryService) Increment(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	return s.nudge(ctx, id, model.ChangeIn)
}

// Decrement removes one unit; at zero it is a no-op returning the item unchanged.
func (s *inventoryService) Decrement(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	return s.nudge(ctx, id, model.ChangeOut)
}

func (s *inventoryService) nudge(ctx context.Context, id uuid.UUID, changeType model.ChangeType) (*model.Item, error) {
	caller, err := requireApproved(ctx)
	if err != nil {
		return nil, err
	}

	if changeType == model.ChangeOut {
		current, err := s.store.Items.FindByID(ctx, id)
		if err != nil {
			return nil, storeError(err)
		}
		if current.Quantity == 0 {
			return current, nil
		}
	}

	item, err := s.AdjustStock(ctx, AdjustStockRequest{
		ItemID:     id,
		ChangeType: changeType,
		Quantity:   1,
		Manager:    caller.Username,
	})
	if changeType == model.ChangeOut && errors.Is(err, ErrInsufficientStock) {
		// Emptied by someone else between the read and the lock.
		current, ferr := s.store.Items.FindByID(ctx, id)
		if ferr != nil {
			return nil, storeError(ferr)
		}
		return current, nil
	}
	return item, err
}

func (s *inventoryService) DeleteItem(ctx context.Context, id uuid.UUID) (deleted bool, err error) {
	ctx, span := startSpan(ctx, "inventory.DeleteItem", itemIDAttr(id))
	defer func() { endSpan(span, err) }()

	caller, err := requireApproved(ctx)
	if err != nil {
		return false, err
	}

	var removed *model.Item
	var entry *model.History
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Items.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Quantity != 0 {
			return nil
		}

		entry = &model.History{
			ItemName:   current.Name,
			ItemSpec:   current.Spec,
			ChangeType: model.ChangeDelete,
			Quantity:   0,
			Manager:    model.ManagerSystem,
		}
		if err := tx.Histories.Append(ctx, entry); err != nil {
			return err
		}
		if err := tx.Histories.DetachItem(ctx, current.ID); err != nil {
			return err
		}
		if err := tx.Items.Delete(ctx, current.ID); err != nil {
			return err
		}
		removed = current
		return nil
	})
	if err != nil {
		return false, storeError(err)
	}
	if removed == nil {
		span.SetAttributes(attribute.Bool("item.deleted", false))
		return false, nil
	}

	s.logger.Info("item deleted",
		zap.String("item_id", removed.ID.String()),
		zap.String("name", removed.Name),
		zap.String("spec", removed.Spec),
		zap.String("by", caller.Username))
	s.publish(ctx, events.ActionItemDeleted, caller, removed, entry,
		fmt.Sprintf("%s deleted '%s %s'", caller.Username, removed.Name, removed.Spec))

	return true, nil
}

func (s *inventoryService) QueryItems(ctx context.Context, nameContains, specContains string) (items []model.Item, err error) {
	ctx, span := startSpan(ctx, "inventory.QueryItems")
	defer func() { endSpan(span, err) }()

	if _, err = requireApproved(ctx); err != nil {
		return nil, err
	}

	return s.store.Items.List(ctx, repository.ItemFilter{
		NameContains: strings.TrimSpace(nameContains),
		SpecContains: strings.TrimSpace(specContains),
	})
}

func (s *inventoryService) ListHistory(ctx context.Context) (histories []model.History, err error) {
	ctx, span := startSpan(ctx, "inventory.ListHistory")
	defer func() { endSpan(span, err) }()

	if _, err = requireApproved(ctx); err != nil {
		return nil, err
	}
	return s.store.Histories.ListWithItem(ctx)
}

func (s *inventoryService) ItemHistory(ctx context.Context, id uuid.UUID) (histories []model.History, err error) {
	ctx, span := startSpan(ctx, "inventory.ItemHistory", itemIDAttr(id))
	defer func() { endSpan(span, err) }()

	if _, err = requireApproved(ctx); err != nil {
		return nil, err
	}
	if _, err = s.store.Items.FindByID(ctx, id); err != nil {
		return nil, storeError(err)
	}
	return s.store.Histories.ListByItem(ctx, id)
}

func (s *inventoryService) publish(ctx context.Context, action events.Action, caller Identity, item *model.Item, entry *model.History, message string) {
	event := events.New(action, caller.Username, message)
	event.Item = item
	event.History = entry
	s.publisher.Publish(ctx, event)
}
