package repository

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HistoryRepository interface {
	Append(ctx context.Context, history *model.History) error
	DetachItem(ctx context.Context, itemID uuid.UUID) error
	ListWithItem(ctx context.Context) ([]model.History, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.History, error)
	StockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error)
}

// StockMovementData is one day of IN/OUT totals for charts.
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

type historyRepo struct {
	db *gorm.DB
}

func NewHistoryRepo(db *gorm.DB) HistoryRepository {
	return &historyRepo{db}
}

// Append inserts the row without touching the associated item.
func (r *historyRepo) Append(ctx context.Context, history *model.History) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(history).Error)
}

// DetachItem nulls the item reference of every row pointing at itemID.
func (r *historyRepo) DetachItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.History{}).
		Where("item_id = ?", itemID).
		Update("item_id", nil).Error
}

// ListWithItem returns every row newest first; Item is nil for detached rows.
func (r *historyRepo) ListWithItem(ctx context.Context) ([]model.History, error) {
	var histories []model.History
	err := r.db.WithContext(ctx).Preload("Item").Order("created_at DESC").Find(&histories).Error
	return histories, err
}

func (r *historyRepo) ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.History, error) {
	var histories []model.History
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC").
		Find(&histories).Error
	return histories, err
}

func (r *historyRepo) StockMovement(ctx context.Context, startDate, endDate time.Time) ([]StockMovementData, error) {
	var results []StockMovementData
	err := r.db.WithContext(ctx).Model(&model.History{}).
		Select(`
			CAST(DATE(created_at) AS TEXT) as date,
			COALESCE(SUM(CASE WHEN change_type = 'IN' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN change_type = 'OUT' THEN quantity ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&results).Error
	return results, err
}
