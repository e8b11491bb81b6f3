// Package database is the storage adapter: one query contract over an embedded
// SQLite engine (file-backed or in-memory) and a networked PostgreSQL engine.
//
// Callers always write queries with positional ? placeholders. The PostgreSQL
// variant rewrites them to $n before execution and appends RETURNING id to
// inserts, so Result.InsertedID means the same thing on both engines.
package database

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ContactsTable is the only table this service owns.
const ContactsTable = "contacts"

// Kind names the engine behind a DB.
type Kind string

const (
	KindPostgres Kind = "PostgreSQL"
	KindSQLite   Kind = "SQLite"
)

func (k Kind) system() string {
	if k == KindPostgres {
		return "postgresql"
	}
	return "sqlite"
}

// ErrClosed is returned by every method after Close.
var ErrClosed = errors.New("database: closed")

// Result reports the outcome of Run.
type Result struct {
	// InsertedID is the generated primary key for an INSERT, zero otherwise.
	InsertedID   int64
	RowsAffected int64
}

// DB is the uniform query contract shared by both engines. Implementations are
// safe for concurrent use.
type DB interface {
	// Run executes a statement that returns no rows.
	Run(ctx context.Context, query string, args ...any) (Result, error)
	// Get returns the first matching row, or nil when nothing matches.
	Get(ctx context.Context, query string, args ...any) (Row, error)
	// All returns every matching row; the slice is never nil.
	All(ctx context.Context, query string, args ...any) ([]Row, error)
	Ping(ctx context.Context) error
	Kind() Kind
	Close() error
}

// schemaManager is implemented by both engines for bootstrap and reset.
type schemaManager interface {
	bootstrap(ctx context.Context) error
	reset(ctx context.Context) error
}

// Options drives engine selection in Open.
type Options struct {
	// DatabaseURL selects PostgreSQL when non-empty.
	DatabaseURL string
	// ReadOnlyFS selects the in-memory SQLite engine when no DatabaseURL is set.
	ReadOnlyFS bool
	// SQLitePath is the file used by the file-backed engine and by the fallback.
	SQLitePath string
	// Hosted makes a PostgreSQL connection failure fatal instead of falling back.
	Hosted         bool
	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

const defaultConnectTimeout = 10 * time.Second

var tracer = otel.Tracer("github.com/thorsignia/backend/internal/database")

func startSpan(ctx context.Context, op string, kind Kind, query string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "db."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", kind.system()),
			attribute.String("db.statement", query),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
