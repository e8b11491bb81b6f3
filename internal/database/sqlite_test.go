package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_RunInsertReturnsID(t *testing.T) {
	db := setupMemoryDB(t)
	ctx := context.Background()

	first, err := db.Run(ctx, insertContact, "Ada", "ada@x.com", nil, "Acme", "hi")
	require.NoError(t, err)
	second, err := db.Run(ctx, insertContact, "Bob", "bob@x.com", "555", "Beta", "yo")
	require.NoError(t, err)

	assert.Positive(t, first.InsertedID)
	assert.Greater(t, second.InsertedID, first.InsertedID)
	assert.Equal(t, int64(1), first.RowsAffected)
}

func TestSQLite_GetNormalizesRow(t *testing.T) {
	db := setupMemoryDB(t)
	ctx := context.Background()

	res, err := db.Run(ctx, insertContact, "Ada", "ada@x.com", nil, "Acme", "hi")
	require.NoError(t, err)

	row, err := db.Get(ctx, "SELECT * FROM contacts WHERE id = ?", res.InsertedID)
	require.NoError(t, err)
	require.NotNil(t, row)

	id, err := row.Int64("id")
	require.NoError(t, err)
	assert.Equal(t, res.InsertedID, id)
	assert.Equal(t, "Ada", row.String("name"))
	_, ok := row.NullString("phone")
	assert.False(t, ok, "phone should be NULL")

	created, err := row.Time("created_at")
	require.NoError(t, err)
	assert.False(t, created.IsZero())
}

func TestSQLite_GetMissingReturnsNil(t *testing.T) {
	db := setupMemoryDB(t)

	row, err := db.Get(context.Background(), "SELECT * FROM contacts WHERE id = ?", 999)

	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestSQLite_AllEmptyIsNotNil(t *testing.T) {
	db := setupMemoryDB(t)

	rows, err := db.All(context.Background(), "SELECT * FROM contacts")

	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSQLite_RunNonInsertReportsRowsAffected(t *testing.T) {
	db := setupMemoryDB(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		_, err := db.Run(ctx, insertContact, name, "e@x.com", nil, "co", "m")
		require.NoError(t, err)
	}

	res, err := db.Run(ctx, "UPDATE contacts SET company = ? WHERE email = ?", "renamed", "e@x.com")

	require.NoError(t, err)
	assert.Equal(t, int64(3), res.RowsAffected)
	assert.Zero(t, res.InsertedID)
}

func TestSQLite_LiteralQuestionMarkIsStored(t *testing.T) {
	db := setupMemoryDB(t)
	ctx := context.Background()

	res, err := db.Run(ctx, insertContact, "Q", "q@x.com", nil, "Co", "Can you call me back?")
	require.NoError(t, err)

	row, err := db.Get(ctx, "SELECT message FROM contacts WHERE id = ?", res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, "Can you call me back?", row.String("message"))
}

func TestSQLite_BootstrapIsIdempotent(t *testing.T) {
	db := setupMemoryDB(t)
	ctx := context.Background()

	require.NoError(t, db.bootstrap(ctx))
	require.NoError(t, db.bootstrap(ctx))

	exists, err := TableExists(ctx, db, ContactsTable)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSQLite_ResetEmptiesTable(t *testing.T) {
	db := setupMemoryDB(t)
	ctx := context.Background()
	_, err := db.Run(ctx, insertContact, "Ada", "ada@x.com", nil, "Acme", "hi")
	require.NoError(t, err)

	require.NoError(t, ResetSchema(ctx, db))

	rows, err := db.All(ctx, "SELECT * FROM contacts")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLite_FileSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "contacts.db")
	ctx := context.Background()

	db, err := OpenSQLiteFile(ctx, path)
	require.NoError(t, err)
	res, err := db.Run(ctx, insertContact, "Ada", "ada@x.com", nil, "Acme", "hi")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := OpenSQLiteFile(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	row, err := reopened.Get(ctx, "SELECT name FROM contacts WHERE id = ?", res.InsertedID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Ada", row.String("name"))
	assert.Equal(t, path, reopened.Path())
}

func TestSQLite_ClosedHandle(t *testing.T) {
	db, err := OpenSQLiteMemory(context.Background())
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close(), "second Close is a no-op")

	_, err = db.Run(context.Background(), insertContact, "a", "b", nil, "c", "d")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = db.Get(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, db.Ping(context.Background()), ErrClosed)
}

func TestSQLite_MemoryDatabasesAreIsolated(t *testing.T) {
	a := setupMemoryDB(t)
	b := setupMemoryDB(t)
	ctx := context.Background()

	_, err := a.Run(ctx, insertContact, "Ada", "ada@x.com", nil, "Acme", "hi")
	require.NoError(t, err)

	rows, err := b.All(ctx, "SELECT * FROM contacts")
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, MemoryPath, a.Path())
}
