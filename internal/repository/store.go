package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one connection or transaction.
type Store struct {
	db        *gorm.DB
	Items     ItemRepository
	Histories HistoryRepository
	Users     UserRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Items:     NewItemRepo(db),
		Histories: NewHistoryRepo(db),
		Users:     NewUserRepo(db),
	}
}

// Transaction runs fn against a Store bound to one database transaction.
// The transaction commits if fn returns nil and rolls back on error or panic,
// so item and history writes made through tx land together or not at all.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) DB() *gorm.DB {
	return s.db
}
