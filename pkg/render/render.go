// Package render turns a Table into a downloadable spreadsheet.
package render

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Kind controls how a column's cells are formatted.
type Kind int

const (
	KindText Kind = iota
	// KindLiteral keeps digits as text (NISN, phone) so leading zeros survive.
	KindLiteral
	// KindDate parses YYYY-MM-DD values and shows them as DD/MM/YYYY.
	KindDate
	// KindWrap wraps long text.
	KindWrap
)

type Column struct {
	Key   string
	Title string
	Kind  Kind
}

type Table struct {
	Sheet   string
	Columns []Column
	Rows    []map[string]any
}

// Renderer encodes a Table into one file format.
type Renderer interface {
	Render(t Table) ([]byte, error)
	ContentType() string
	Extension() string
}

const (
	minWidth = 10
	maxWidth = 50

	dateLayout    = "2006-01-02"
	displayLayout = "02/01/2006"
)

func (c Column) title() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Key
}

// parseDate accepts a time.Time or a string starting with YYYY-MM-DD.
func parseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case string:
		if len(x) < len(dateLayout) {
			return time.Time{}, false
		}
		t, err := time.Parse(dateLayout, x[:len(dateLayout)])
		return t, err == nil
	}
	return time.Time{}, false
}

// text is the display form of a cell value.
func text(c Column, v any) string {
	if v == nil {
		return ""
	}
	if c.Kind == KindDate {
		if t, ok := parseDate(v); ok {
			return t.Format(displayLayout)
		}
	}
	switch x := v.(type) {
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// widths sizes each column to its longest value plus padding, clamped.
func widths(t Table) []float64 {
	out := make([]float64, len(t.Columns))
	for i, c := range t.Columns {
		n := utf8.RuneCountInString(c.title())
		for _, r := range t.Rows {
			if l := utf8.RuneCountInString(strings.TrimSpace(text(c, r[c.Key]))); l > n {
				n = l
			}
		}
		out[i] = float64(min(max(n+2, minWidth), maxWidth))
	}
	return out
}
