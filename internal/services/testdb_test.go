package services

import (
	"path/filepath"
	"testing"

	"github.com/bonkboard/backend/internal/database"
	"github.com/bonkboard/backend/internal/db"
)

// newTestQueries opens a migrated throwaway database under t.TempDir.
func newTestQueries(t *testing.T) *db.Queries {
	t.Helper()

	conn, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := database.RunMigrations(conn); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return db.New(conn)
}
