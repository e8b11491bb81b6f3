package database

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

const insertContact = `INSERT INTO contacts (name, email, phone, company, message) VALUES (?, ?, ?, ?, ?)`

// setupMemoryDB opens a private in-memory database closed at test end.
func setupMemoryDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLiteMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// setupPostgres connects to CONTACTS_TEST_DATABASE_URL and starts from an
// empty contacts table. The test is skipped when the variable is unset.
func setupPostgres(t *testing.T) *Postgres {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("CONTACTS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CONTACTS_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	db, err := OpenPostgres(ctx, url, 0)
	require.NoError(t, err)
	require.NoError(t, db.reset(ctx))
	t.Cleanup(func() { _ = db.Close() })
	return db
}
