package database

import (
	"path/filepath"
	"testing"
)

// setupTestDatabase opens a migrated SQLite database in a per-test temp
// directory. The file is removed with the test's temp dir.
func setupTestDatabase(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}
