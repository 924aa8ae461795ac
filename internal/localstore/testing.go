package localstore

import (
	"database/sql"
	"testing"
)

// SetupTestCache creates a Cache on an in-memory SQLite database.
func SetupTestCache(t *testing.T) *Cache {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	cache, err := NewWithDB(db)
	if err != nil {
		t.Fatalf("failed to create cache schema: %v", err)
	}
	return cache
}
