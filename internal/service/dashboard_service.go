package service

import (
	"context"
	"time"

	"go-inventory-ledger/internal/repository"
)

type DashboardService interface {
	GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error)
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
}

// DashboardStats is the overview shown on the landing page.
type DashboardStats struct {
	TotalItems        int64 `json:"total_items"`
	LowStockCount     int64 `json:"low_stock_count"`
	LowStockThreshold int   `json:"low_stock_threshold"`
	TotalQuantity     int64 `json:"total_quantity"`
}

type dashboardService struct {
	store             *repository.Store
	lowStockThreshold int
}

func NewDashboardService(store *repository.Store, lowStockThreshold int) DashboardService {
	return &dashboardService{store: store, lowStockThreshold: lowStockThreshold}
}

func (s *dashboardService) GetStockMovement(ctx context.Context, days int) ([]repository.StockMovementData, error) {
	if _, err := requireApproved(ctx); err != nil {
		return nil, err
	}

	endDate := time.Now().UTC()
	startDate := endDate.AddDate(0, 0, -days)

	return s.store.Histories.StockMovement(ctx, startDate, endDate)
}

func (s *dashboardService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	if _, err := requireApproved(ctx); err != nil {
		return nil, err
	}

	stats := DashboardStats{LowStockThreshold: s.lowStockThreshold}
	var err error
	if stats.TotalItems, err = s.store.Items.Count(ctx); err != nil {
		return nil, err
	}
	if stats.LowStockCount, err = s.store.Items.CountBelow(ctx, s.lowStockThreshold); err != nil {
		return nil, err
	}
	if stats.TotalQuantity, err = s.store.Items.TotalQuantity(ctx); err != nil {
		return nil, err
	}
	return &stats, nil
}
