// Package store is the row-level query/update service the handlers use. Rows
// are plain maps so one handler set runs against postgres or sqlite.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Row is one table row keyed by column name.
type Row map[string]any

// Op is a comparison operator in a Where condition.
type Op string

const (
	OpEq   Op = "eq"
	OpNeq  Op = "neq"
	OpGt   Op = "gt"
	OpGte  Op = "gte"
	OpLt   Op = "lt"
	OpLte  Op = "lte"
	OpLike Op = "like"
)

var opSQL = map[Op]string{
	OpEq:   "=",
	OpNeq:  "<>",
	OpGt:   ">",
	OpGte:  ">=",
	OpLt:   "<",
	OpLte:  "<=",
	OpLike: "LIKE",
}

// ParseOp maps a short operator name to an Op.
func ParseOp(s string) (Op, bool) {
	op := Op(s)
	_, ok := opSQL[op]
	return op, ok
}

type Cond struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Cond { return Cond{Column: column, Op: OpEq, Value: value} }

type Order struct {
	Column string
	Desc   bool
}

// Query is a single-table select. Empty Columns selects all.
type Query struct {
	Table   string
	Columns []string
	Where   []Cond
	OrderBy []Order
	Limit   int
}

// Store is implemented by the postgres and sqlite backends. Implementations
// are safe for concurrent use.
type Store interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	// Update returns the changed rows and ErrNotFound when none matched.
	Update(ctx context.Context, table string, where []Cond, set Row) ([]Row, error)
	Close() error
}

var (
	ErrNotFound = errors.New("no rows matched")
	ErrConflict = errors.New("unique constraint violated")
	ErrInvalid  = errors.New("invalid query")
)

// Error wraps a backend failure with the operation and table.
type Error struct {
	Op    string
	Table string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("store %s %s: %v", e.Op, e.Table, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func wrap(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Table: table, Err: err}
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidIdent reports whether s is safe to splice into SQL as an identifier.
func ValidIdent(s string) bool { return identRe.MatchString(s) }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
