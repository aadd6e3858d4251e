package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// Postgres is the pgxpool-backed Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects and pings. maxConns <= 0 keeps the pgx default.
func NewPostgres(ctx context.Context, dsn string, maxConns int32) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Select(ctx context.Context, q Query) ([]Row, error) {
	stmt, args, err := buildSelect(q, dollar)
	if err != nil {
		return nil, wrap("select", q.Table, err)
	}
	rows, err := p.query(ctx, stmt, args)
	return rows, wrap("select", q.Table, err)
}

func (p *Postgres) Insert(ctx context.Context, table string, row Row) (Row, error) {
	stmt, args, err := buildInsert(table, row, dollar)
	if err != nil {
		return nil, wrap("insert", table, err)
	}
	rows, err := p.query(ctx, stmt, args)
	if err != nil {
		return nil, wrap("insert", table, err)
	}
	if len(rows) == 0 {
		return nil, wrap("insert", table, errors.New("no row returned"))
	}
	return rows[0], nil
}

func (p *Postgres) Update(ctx context.Context, table string, where []Cond, set Row) ([]Row, error) {
	stmt, args, err := buildUpdate(table, where, set, dollar)
	if err != nil {
		return nil, wrap("update", table, err)
	}
	rows, err := p.query(ctx, stmt, args)
	if err != nil {
		return nil, wrap("update", table, err)
	}
	if len(rows) == 0 {
		return nil, wrap("update", table, ErrNotFound)
	}
	return rows, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) query(ctx context.Context, stmt string, args []any) ([]Row, error) {
	rows, err := p.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, pgError(err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, pgError(err)
	}
	out := make([]Row, 0, len(maps))
	for _, m := range maps {
		for k, v := range m {
			m[k] = pgValue(v)
		}
		out = append(out, Row(m))
	}
	return out, nil
}

func pgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// pgValue flattens pgx-native values (uuid bytes, numerics) into plain ones.
func pgValue(v any) any {
	switch x := v.(type) {
	case [16]byte:
		return uuid.UUID(x).String()
	case driver.Valuer:
		if dv, err := x.Value(); err == nil {
			return dv
		}
	}
	return v
}
