package testutil

import (
	"database/sql"
	"testing"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/assets"
	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/db"
)

// SetupTestDB creates an in-memory SQLite database and applies all migrations.
// It returns the database connection, ready for use in tests.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use in-memory database for testing to ensure tests are fast and isolated.
	conn, err := db.InitDB(":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	// An in-memory database exists per connection, so the pool must
	// never open a second one.
	conn.SetMaxOpenConns(1)

	// Attach a cleanup function to automatically close the DB when the test completes.
	t.Cleanup(func() {
		conn.Close()
	})

	// Apply all "up" migrations from the embedded filesystem.
	if err := db.RunMigrations(conn, assets.MigrationsFS); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	return conn
}
