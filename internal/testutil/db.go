// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/strove-app/strove/internal/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to t.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every connection to :memory: is a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// NewSeededDB is NewDB plus the demo postings.
func NewSeededDB(t testing.TB) *gorm.DB {
	t.Helper()
	db := NewDB(t)
	if err := database.SeedPostings(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}
