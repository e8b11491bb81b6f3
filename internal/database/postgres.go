package database

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createContactsPostgres = `CREATE TABLE contacts (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT,
	company TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
)`

const contactsTableExistsPostgres = `SELECT EXISTS (
	SELECT 1 FROM information_schema.tables
	WHERE table_schema = current_schema() AND table_name = $1
)`

// Postgres is the networked engine. It owns the compatibility shim: ?
// placeholders are rebound to $n and inserts report their generated key.
type Postgres struct {
	pool   *pgxpool.Pool
	closed atomic.Bool
}

var _ DB = (*Postgres)(nil)

// OpenPostgres creates a pool, verifies it with Ping and bootstraps the schema.
// connectTimeout bounds both connection establishment and the initial ping.
func OpenPostgres(ctx context.Context, connString string, connectTimeout time.Duration) (*Postgres, error) {
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	cfg.ConnConfig.ConnectTimeout = connectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	db := &Postgres{pool: pool}
	if err := db.bootstrap(ctx); err != nil {
		db.pool.Close()
		return nil, err
	}
	return db, nil
}

// Kind implements DB.
func (p *Postgres) Kind() Kind { return KindPostgres }

// Run implements DB. An INSERT without its own RETURNING clause gets
// RETURNING id appended so the generated key can be reported. With its own
// RETURNING clause, InsertedID is taken from an integer "id" column when the
// clause returns one and is zero otherwise.
func (p *Postgres) Run(ctx context.Context, query string, args ...any) (res Result, err error) {
	if p.closed.Load() {
		return Result{}, ErrClosed
	}
	st := parseStatement(query)
	ctx, span := startSpan(ctx, "run", KindPostgres, st.query)
	defer func() { endSpan(span, err) }()

	if st.verb == "INSERT" && !st.returning {
		if err := p.pool.QueryRow(ctx, st.query+" RETURNING id", args...).Scan(&res.InsertedID); err != nil {
			return Result{}, fmt.Errorf("postgres: insert: %w", err)
		}
		res.RowsAffected = 1
		return res, nil
	}
	if st.returning {
		rows, err := p.pool.Query(ctx, st.query, args...)
		if err != nil {
			return Result{}, fmt.Errorf("postgres: exec: %w", err)
		}
		returned, err := pgx.CollectRows(rows, pgx.RowToMap)
		if err != nil {
			return Result{}, fmt.Errorf("postgres: collect returning: %w", err)
		}
		res.RowsAffected = int64(len(returned))
		if len(returned) > 0 && st.verb == "INSERT" {
			res.InsertedID = insertedID(normalizeRow(returned[0]))
		}
		return res, nil
	}

	tag, err := p.pool.Exec(ctx, st.query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("postgres: exec: %w", err)
	}
	res.RowsAffected = tag.RowsAffected()
	return res, nil
}

// insertedID reads the "id" column of a RETURNING row, zero when absent or
// not an integer.
func insertedID(row Row) int64 {
	if _, ok := row["id"]; !ok {
		return 0
	}
	id, err := row.Int64("id")
	if err != nil {
		return 0
	}
	return id
}

// Get implements DB.
func (p *Postgres) Get(ctx context.Context, query string, args ...any) (row Row, err error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	q := Rebind(query)
	ctx, span := startSpan(ctx, "get", KindPostgres, q)
	defer func() { endSpan(span, err) }()

	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: collect: %w", err)
	}
	return normalizeRow(m), nil
}

// All implements DB.
func (p *Postgres) All(ctx context.Context, query string, args ...any) (out []Row, err error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	q := Rebind(query)
	ctx, span := startSpan(ctx, "all", KindPostgres, q)
	defer func() { endSpan(span, err) }()

	rows, err := p.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("postgres: collect: %w", err)
	}
	out = make([]Row, 0, len(maps))
	for _, m := range maps {
		out = append(out, normalizeRow(m))
	}
	return out, nil
}

// Ping implements DB.
func (p *Postgres) Ping(ctx context.Context) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return p.pool.Ping(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() error {
	if p.closed.CompareAndSwap(false, true) {
		p.pool.Close()
	}
	return nil
}

// bootstrap creates the contacts table only when it does not exist yet, so a
// warm database sees no DDL at all.
func (p *Postgres) bootstrap(ctx context.Context) error {
	var exists bool
	if err := p.pool.QueryRow(ctx, contactsTableExistsPostgres, ContactsTable).Scan(&exists); err != nil {
		return fmt.Errorf("postgres: check table: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := p.pool.Exec(ctx, createContactsPostgres); err != nil {
		return fmt.Errorf("postgres: create table: %w", err)
	}
	return nil
}

func (p *Postgres) reset(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "DROP TABLE IF EXISTS contacts"); err != nil {
		return fmt.Errorf("postgres: drop table: %w", err)
	}
	return p.bootstrap(ctx)
}
