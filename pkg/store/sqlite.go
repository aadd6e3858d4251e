package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// TimeFormat is how time.Time arguments are stored by the sqlite backend.
const TimeFormat = "2006-01-02T15:04:05.000000Z07:00"

// SQLite is the database/sql Store over modernc.org/sqlite, used for local
// runs and tests.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens dsn (e.g. "file:data/ppdb.db" or ":memory:"), enables WAL
// and creates the tables if missing.
func NewSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("sqlite: dsn cannot be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// single writer; also keeps one shared ":memory:" database alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Select(ctx context.Context, q Query) ([]Row, error) {
	stmt, args, err := buildSelect(q, question)
	if err != nil {
		return nil, wrap("select", q.Table, err)
	}
	rows, err := s.query(ctx, stmt, args)
	return rows, wrap("select", q.Table, err)
}

func (s *SQLite) Insert(ctx context.Context, table string, row Row) (Row, error) {
	stmt, args, err := buildInsert(table, row, question)
	if err != nil {
		return nil, wrap("insert", table, err)
	}
	rows, err := s.query(ctx, stmt, args)
	if err != nil {
		return nil, wrap("insert", table, err)
	}
	if len(rows) == 0 {
		return nil, wrap("insert", table, errors.New("no row returned"))
	}
	return rows[0], nil
}

func (s *SQLite) Update(ctx context.Context, table string, where []Cond, set Row) ([]Row, error) {
	stmt, args, err := buildUpdate(table, where, set, question)
	if err != nil {
		return nil, wrap("update", table, err)
	}
	rows, err := s.query(ctx, stmt, args)
	if err != nil {
		return nil, wrap("update", table, err)
	}
	if len(rows) == 0 {
		return nil, wrap("update", table, ErrNotFound)
	}
	return rows, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) query(ctx context.Context, stmt string, args []any) ([]Row, error) {
	for i, a := range args {
		args[i] = sqliteArg(a)
	}
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, sqliteError(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				r[c] = string(b)
				continue
			}
			r[c] = vals[i]
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteError(err)
	}
	return out, nil
}

func sqliteArg(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(TimeFormat)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC().Format(TimeFormat)
	case fmt.Stringer:
		// decimal.Decimal, uuid.UUID
		return x.String()
	}
	return v
}

func sqliteError(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %s", ErrConflict, se.Error())
		}
	}
	return err
}
