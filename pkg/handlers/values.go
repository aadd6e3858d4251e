package handlers

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joeydtaylor/ppdb-gateway/pkg/store"
	"github.com/shopspring/decimal"
)

// newNumber builds PREFIX-YYYYMMDD-XXXXXX with a random uppercase suffix.
func newNumber(prefix string, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return prefix + "-" + at.Format("20060102") + "-" + suffix
}

// str renders a row value as text; nil is "".
func str(row store.Row, key string) string {
	switch v := row[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// optional stores "" as NULL.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// project copies keys from row, filling absent ones with nil so every item
// in a list has the same shape.
func project(row store.Row, keys []string) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = row[k]
	}
	return out
}

// decimalOf reads a money column from either backend.
func decimalOf(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return x, nil
	case string:
		if x == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(x)
	case []byte:
		return decimal.NewFromString(string(x))
	case json.Number:
		return decimal.NewFromString(x.String())
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return decimal.Zero, err
		}
		return decimalOf(dv)
	default:
		return decimal.Zero, fmt.Errorf("cannot read %T as decimal", v)
	}
}
