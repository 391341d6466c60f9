package db_test

import (
	"testing"

	"github.com/discoduckasaurus/duckflix-lite-sub004/internal/testutil"
)

func TestForeignKeyCascadeDelete(t *testing.T) {
	// Setup test database with migrations already applied
	db := testutil.SetupTestDB(t)

	// Test 1: Verify foreign keys are enabled
	var foreignKeysEnabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeysEnabled)
	if err != nil {
		t.Fatalf("Failed to check foreign keys status: %v", err)
	}
	if foreignKeysEnabled != 1 {
		t.Errorf("Foreign keys should be enabled, got: %d", foreignKeysEnabled)
	}

	// Test 2: Create test data and verify cascade delete works
	_, err = db.Exec("INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, datetime('now'))",
		"testuser", "hash", "user")
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	_, err = db.Exec("INSERT INTO sessions (token, user_id, expiry) VALUES (?, ?, datetime('now', '+1 day'))",
		"tok-1", 1)
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	_, err = db.Exec("INSERT INTO leases (credential_fp, network_location, user_id, started_at, last_heartbeat) VALUES (?, ?, ?, datetime('now'), datetime('now'))",
		"fp-abc", "203.0.113.5", 1)
	if err != nil {
		t.Fatalf("Failed to create test lease: %v", err)
	}

	// Test 3: Delete user and verify cascade delete
	_, err = db.Exec("DELETE FROM users WHERE id = 1")
	if err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sessions WHERE user_id = 1").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to check sessions: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 sessions after user deletion, got %d", count)
	}

	err = db.QueryRow("SELECT COUNT(*) FROM leases WHERE user_id = 1").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to check leases: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 leases after user deletion, got %d", count)
	}
}

func TestParentDeletionClearsInheritance(t *testing.T) {
	db := testutil.SetupTestDB(t)

	_, err := db.Exec("INSERT INTO users (id, username, password_hash, role, rd_token, created_at) VALUES (1, 'owner', 'hash', 'admin', 'tok', datetime('now'))")
	if err != nil {
		t.Fatalf("Failed to create owner: %v", err)
	}
	_, err = db.Exec("INSERT INTO users (id, username, password_hash, role, parent_id, created_at) VALUES (2, 'child', 'hash', 'user', 1, datetime('now'))")
	if err != nil {
		t.Fatalf("Failed to create child: %v", err)
	}

	// Deleting the parent must not delete the child; parent_id becomes NULL.
	if _, err := db.Exec("DELETE FROM users WHERE id = 1"); err != nil {
		t.Fatalf("Failed to delete owner: %v", err)
	}

	var parentID interface{}
	err = db.QueryRow("SELECT parent_id FROM users WHERE id = 2").Scan(&parentID)
	if err != nil {
		t.Fatalf("Child should still exist: %v", err)
	}
	if parentID != nil {
		t.Errorf("Expected parent_id to be NULL after parent deletion, got %v", parentID)
	}
}
