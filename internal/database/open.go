package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Open selects and initializes the backing store, highest priority first:
//
//  1. PostgreSQL when DatabaseURL is set.
//  2. In-memory SQLite when ReadOnlyFS is set.
//  3. File-backed SQLite at SQLitePath.
//
// If PostgreSQL cannot be initialized, a hosted process gets the error back;
// anywhere else Open logs a warning and falls back to the file-backed engine.
// The returned DB has its schema in place.
func Open(ctx context.Context, opts Options) (DB, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.DatabaseURL != "" {
		pg, err := OpenPostgres(ctx, opts.DatabaseURL, opts.ConnectTimeout)
		if err == nil {
			logger.Info("database ready", "type", KindPostgres)
			return pg, nil
		}
		if opts.Hosted {
			return nil, fmt.Errorf("database: postgres required in hosted mode: %w", err)
		}
		logger.Warn("postgres unavailable, falling back to file-backed sqlite",
			"error", err,
			"path", opts.SQLitePath,
		)
		return openFile(ctx, logger, opts.SQLitePath)
	}

	if opts.ReadOnlyFS {
		db, err := OpenSQLiteMemory(ctx)
		if err != nil {
			return nil, err
		}
		logger.Warn("using in-memory sqlite; submissions will not survive a restart")
		return db, nil
	}

	return openFile(ctx, logger, opts.SQLitePath)
}

func openFile(ctx context.Context, logger *slog.Logger, path string) (DB, error) {
	db, err := OpenSQLiteFile(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Info("database ready", "type", KindSQLite, "path", path)
	return db, nil
}

// ResetSchema drops the contacts table and creates it again.
func ResetSchema(ctx context.Context, db DB) error {
	sm, ok := db.(schemaManager)
	if !ok {
		return errors.New("database: reset not supported")
	}
	return sm.reset(ctx)
}

// TableExists reports whether the named table exists on db's engine.
func TableExists(ctx context.Context, db DB, table string) (bool, error) {
	var query string
	switch db.Kind() {
	case KindPostgres:
		query = `SELECT COUNT(*) AS n FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = ?`
	default:
		query = `SELECT COUNT(*) AS n FROM sqlite_master WHERE type = 'table' AND name = ?`
	}
	row, err := db.Get(ctx, query, table)
	if err != nil {
		return false, err
	}
	if row == nil {
		return false, nil
	}
	n, err := row.Int64("n")
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
