package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MemoryPath is reported by SQLite.Path for the in-memory engine.
const MemoryPath = ":memory:"

var memorySeq atomic.Int64

// SQLite is the embedded engine. File-backed databases use a single writer
// connection and a small reader pool in WAL mode; the in-memory database uses
// one connection for both, since each new connection would see an empty database.
type SQLite struct {
	writer *sql.DB
	reader *sql.DB
	path   string
	closed atomic.Bool
}

var _ DB = (*SQLite)(nil)

// OpenSQLiteFile opens (creating if needed) the database at path, creating the
// parent directory when absent, and applies the embedded schema.
func OpenSQLiteFile(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: mkdir: %w", err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)",
		filepath.ToSlash(path),
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open writer: %w", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(ctx); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("sqlite: ping writer: %w", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("sqlite: open reader: %w", err)
	}
	reader.SetMaxOpenConns(4)
	if err := reader.PingContext(ctx); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return nil, fmt.Errorf("sqlite: ping reader: %w", err)
	}

	db := &SQLite{writer: writer, reader: reader, path: path}
	if err := db.bootstrap(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLiteMemory opens a private in-memory database. Its contents are lost
// when the process exits or the handle is closed.
func OpenSQLiteMemory(ctx context.Context) (*SQLite, error) {
	dsn := fmt.Sprintf("file:contacts-%d?mode=memory&_pragma=busy_timeout(5000)", memorySeq.Add(1))

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open memory: %w", err)
	}
	// The database lives exactly as long as this one connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)
	conn.SetConnMaxIdleTime(0)
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sqlite: ping memory: %w", err)
	}

	db := &SQLite{writer: conn, reader: conn, path: MemoryPath}
	if err := db.bootstrap(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Path returns the database file, or MemoryPath.
func (s *SQLite) Path() string { return s.path }

// Kind implements DB.
func (s *SQLite) Kind() Kind { return KindSQLite }

// Run implements DB.
func (s *SQLite) Run(ctx context.Context, query string, args ...any) (res Result, err error) {
	if s.closed.Load() {
		return Result{}, ErrClosed
	}
	ctx, span := startSpan(ctx, "run", KindSQLite, query)
	defer func() { endSpan(span, err) }()

	r, err := s.writer.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("sqlite: exec: %w", err)
	}
	res.RowsAffected, _ = r.RowsAffected()
	if parseStatement(query).verb == "INSERT" {
		if res.InsertedID, err = r.LastInsertId(); err != nil {
			return Result{}, fmt.Errorf("sqlite: last insert id: %w", err)
		}
	}
	return res, nil
}

// Get implements DB.
func (s *SQLite) Get(ctx context.Context, query string, args ...any) (row Row, err error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	ctx, span := startSpan(ctx, "get", KindSQLite, query)
	defer func() { endSpan(span, err) }()

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	found, err := scanSQLRows(rows, 1)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

// All implements DB.
func (s *SQLite) All(ctx context.Context, query string, args ...any) (out []Row, err error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	ctx, span := startSpan(ctx, "all", KindSQLite, query)
	defer func() { endSpan(span, err) }()

	rows, err := s.reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	return scanSQLRows(rows, 0)
}

// Ping implements DB.
func (s *SQLite) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.reader.PingContext(ctx)
}

// Close closes both connections. Returns the first error encountered.
func (s *SQLite) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	var firstErr error
	if s.reader != s.writer {
		if err := s.reader.Close(); err != nil {
			firstErr = fmt.Errorf("sqlite: close reader: %w", err)
		}
	}
	if err := s.writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("sqlite: close writer: %w", err)
	}
	return firstErr
}

// bootstrap applies the embedded migrations. The contacts DDL is
// CREATE TABLE IF NOT EXISTS, so this is safe on every open.
func (s *SQLite) bootstrap(_ context.Context) error {
	m, err := s.migrator()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite: run migrations: %w", err)
	}
	return nil
}

// reset drops the schema through the down migrations and applies it again.
func (s *SQLite) reset(ctx context.Context) error {
	m, err := s.migrator()
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite: migrate down: %w", err)
	}
	return s.bootstrap(ctx)
}

func (s *SQLite) migrator() (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("sqlite: migration source: %w", err)
	}
	dbDriver, err := migratesqlite.WithInstance(s.writer, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlite: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return nil, fmt.Errorf("sqlite: migrator: %w", err)
	}
	return m, nil
}

// scanSQLRows reads up to limit rows (0 = all) into normalized Rows.
func scanSQLRows(rows *sql.Rows, limit int) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite: columns: %w", err)
	}

	out := []Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = normalizeValue(vals[i])
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}
	return out, nil
}
