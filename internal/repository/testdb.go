package repository

import (
	"database/sql"
	"testing"

	"go-inventory-ledger/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Connect("sqlite", "file::memory:", logger.Silent)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	var sqlDB *sql.DB
	if sqlDB, err = db.DB(); err != nil {
		t.Fatalf("getting test sql.DB: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("creating test database schema: %v", err)
	}

	return db
}
