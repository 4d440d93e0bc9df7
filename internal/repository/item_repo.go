package repository

import (
	"context"
	"strings"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemFilter narrows List by substring; empty fields match everything.
type ItemFilter struct {
	NameContains string
	SpecContains string
}

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	Update(ctx context.Context, item *model.Item) error
	UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int, updatedBy string) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Item, error)
	FindByNameSpec(ctx context.Context, name, spec string) (*model.Item, error)
	List(ctx context.Context, filter ItemFilter) ([]model.Item, error)
	Count(ctx context.Context) (int64, error)
	CountBelow(ctx context.Context, threshold int) (int64, error)
	TotalQuantity(ctx context.Context) (int64, error)
}

type itemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db}
}

func (r *itemRepo) Create(ctx context.Context, item *model.Item) error {
	return translate(r.db.WithContext(ctx).Create(item).Error)
}

// Update writes the descriptive fields only; quantity goes through UpdateQuantity.
func (r *itemRepo) Update(ctx context.Context, item *model.Item) error {
	res := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("id = ?", item.ID).
		Updates(map[string]interface{}{
			"name":       item.Name,
			"spec":       item.Spec,
			"location":   item.Location,
			"updated_by": item.UpdatedBy,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateQuantity is meant to run inside Store.Transaction next to the history append.
func (r *itemRepo) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int, updatedBy string) error {
	res := r.db.WithContext(ctx).Model(&model.Item{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"updated_by": updatedBy,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an item whose quantity is zero.
func (r *itemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND quantity = 0", id).Delete(&model.Item{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return ErrItemNotEmpty
}

func (r *itemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// FindByIDForUpdate locks the row (SELECT ... FOR UPDATE) until the transaction ends.
// SQLite ignores the clause; its single writer gives the same guarantee.
func (r *itemRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *itemRepo) FindByNameSpec(ctx context.Context, name, spec string) (*model.Item, error) {
	var item model.Item
	if err := r.db.WithContext(ctx).Where("name = ? AND spec = ?", name, spec).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// List matches substrings case-insensitively, ordered by name then spec.
func (r *itemRepo) List(ctx context.Context, filter ItemFilter) ([]model.Item, error) {
	query := r.db.WithContext(ctx).Model(&model.Item{})
	if filter.NameContains != "" {
		query = query.Where(`LOWER(name) LIKE LOWER(?) ESCAPE '\'`, containsPattern(filter.NameContains))
	}
	if filter.SpecContains != "" {
		query = query.Where(`LOWER(spec) LIKE LOWER(?) ESCAPE '\'`, containsPattern(filter.SpecContains))
	}

	var items []model.Item
	err := query.Order("name ASC").Order("spec ASC").Find(&items).Error
	return items, err
}

func (r *itemRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).Count(&n).Error
	return n, err
}

func (r *itemRepo) CountBelow(ctx context.Context, threshold int) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).Where("quantity < ?", threshold).Count(&n).Error
	return n, err
}

func (r *itemRepo) TotalQuantity(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Item{}).Select("COALESCE(SUM(quantity), 0)").Scan(&total).Error
	return total, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
