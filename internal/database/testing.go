package database

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestDatabaseURLEnv names the variable holding the integration test database URL
const TestDatabaseURLEnv = "TEST_DATABASE_URL"

// SetupTestDB connects to the integration database and ensures the schema.
// The test is skipped when TEST_DATABASE_URL is unset.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv(TestDatabaseURLEnv)
	if url == "" {
		t.Skip("Skipping integration test - " + TestDatabaseURLEnv + " not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Open(ctx, url, PoolOptions{MaxConns: 4, ApplicationName: "fantasy-grid-test"})
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(db.Close)
	return db
}
