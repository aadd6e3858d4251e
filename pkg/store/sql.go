package store

import (
	"sort"
	"strconv"
	"strings"
)

// placeholder renders the n-th (1-based) bind parameter.
type placeholder func(n int) string

func dollar(n int) string { return "$" + strconv.Itoa(n) }
func question(int) string { return "?" }

type builder struct {
	ph   placeholder
	sb   strings.Builder
	args []any
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.ph(len(b.args))
}

func (b *builder) where(conds []Cond) error {
	for i, c := range conds {
		if !ValidIdent(c.Column) {
			return invalidf("column %q", c.Column)
		}
		op := c.Op
		if op == "" {
			op = OpEq
		}
		sqlOp, ok := opSQL[op]
		if !ok {
			return invalidf("operator %q", c.Op)
		}
		if i == 0 {
			b.sb.WriteString(" WHERE ")
		} else {
			b.sb.WriteString(" AND ")
		}
		if c.Value == nil && (op == OpEq || op == OpNeq) {
			b.sb.WriteString(c.Column)
			if op == OpEq {
				b.sb.WriteString(" IS NULL")
			} else {
				b.sb.WriteString(" IS NOT NULL")
			}
			continue
		}
		b.sb.WriteString(c.Column + " " + sqlOp + " " + b.bind(c.Value))
	}
	return nil
}

func buildSelect(q Query, ph placeholder) (string, []any, error) {
	if !ValidIdent(q.Table) {
		return "", nil, invalidf("table %q", q.Table)
	}
	b := &builder{ph: ph}
	cols := "*"
	if len(q.Columns) > 0 {
		for _, c := range q.Columns {
			if !ValidIdent(c) {
				return "", nil, invalidf("column %q", c)
			}
		}
		cols = strings.Join(q.Columns, ", ")
	}
	b.sb.WriteString("SELECT " + cols + " FROM " + q.Table)
	if err := b.where(q.Where); err != nil {
		return "", nil, err
	}
	for i, o := range q.OrderBy {
		if !ValidIdent(o.Column) {
			return "", nil, invalidf("order column %q", o.Column)
		}
		if i == 0 {
			b.sb.WriteString(" ORDER BY ")
		} else {
			b.sb.WriteString(", ")
		}
		b.sb.WriteString(o.Column)
		if o.Desc {
			b.sb.WriteString(" DESC")
		} else {
			b.sb.WriteString(" ASC")
		}
	}
	if q.Limit < 0 {
		return "", nil, invalidf("limit %d", q.Limit)
	}
	if q.Limit > 0 {
		b.sb.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	}
	return b.sb.String(), b.args, nil
}

func buildInsert(table string, row Row, ph placeholder) (string, []any, error) {
	if !ValidIdent(table) {
		return "", nil, invalidf("table %q", table)
	}
	if len(row) == 0 {
		return "", nil, invalidf("insert into %s: no columns", table)
	}
	cols := sortedKeys(row)
	b := &builder{ph: ph}
	marks := make([]string, 0, len(cols))
	for _, c := range cols {
		if !ValidIdent(c) {
			return "", nil, invalidf("column %q", c)
		}
		marks = append(marks, b.bind(row[c]))
	}
	b.sb.WriteString("INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.Join(marks, ", ") + ") RETURNING *")
	return b.sb.String(), b.args, nil
}

// buildUpdate refuses an empty where so a caller bug cannot rewrite a table.
func buildUpdate(table string, where []Cond, set Row, ph placeholder) (string, []any, error) {
	if !ValidIdent(table) {
		return "", nil, invalidf("table %q", table)
	}
	if len(set) == 0 {
		return "", nil, invalidf("update %s: no columns", table)
	}
	if len(where) == 0 {
		return "", nil, invalidf("update %s: no conditions", table)
	}
	b := &builder{ph: ph}
	b.sb.WriteString("UPDATE " + table + " SET ")
	for i, c := range sortedKeys(set) {
		if !ValidIdent(c) {
			return "", nil, invalidf("column %q", c)
		}
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.sb.WriteString(c + " = " + b.bind(set[c]))
	}
	if err := b.where(where); err != nil {
		return "", nil, err
	}
	b.sb.WriteString(" RETURNING *")
	return b.sb.String(), b.args, nil
}

func sortedKeys(r Row) []string {
	out := make([]string, 0, len(r))
	for k := range r {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
