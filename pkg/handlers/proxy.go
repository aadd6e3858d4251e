package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joeydtaylor/ppdb-gateway/pkg/core"
	"github.com/joeydtaylor/ppdb-gateway/pkg/envelope"
	"github.com/joeydtaylor/ppdb-gateway/pkg/store"
)

const maxProxyLimit = 1000

// query keys that are not column filters
var proxyReserved = map[string]bool{
	core.ActionParam: true,
	"table":          true,
	"select":         true,
	"order":          true,
	"limit":          true,
}

func (s *service) proxyTable(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", core.BadRequest("table is required")
	}
	if !slices.Contains(s.ProxyTables, name) {
		return "", core.Failf(http.StatusForbidden, "table %s is not allowed", name)
	}
	return name, nil
}

// proxyGet serves ?table=t&select=a,b&order=col.desc&limit=n&col=[op.]value.
func (s *service) proxyGet(ctx context.Context, req *core.Request) (envelope.Response, error) {
	table, err := s.proxyTable(req.Param("table"))
	if err != nil {
		return envelope.Response{}, err
	}
	q := store.Query{Table: table}
	if sel := req.Param("select"); sel != "" && sel != "*" {
		for _, c := range strings.Split(sel, ",") {
			q.Columns = append(q.Columns, strings.TrimSpace(c))
		}
	}
	if ord := req.Param("order"); ord != "" {
		for _, part := range strings.Split(ord, ",") {
			col, dir, _ := strings.Cut(strings.TrimSpace(part), ".")
			q.OrderBy = append(q.OrderBy, store.Order{Column: col, Desc: strings.EqualFold(dir, "desc")})
		}
	}
	if lim := req.Param("limit"); lim != "" {
		n, err := strconv.Atoi(lim)
		if err != nil || n < 0 {
			return envelope.Response{}, core.BadRequest("limit must be a non-negative integer")
		}
		q.Limit = min(n, maxProxyLimit)
	}

	keys := make([]string, 0, len(req.Query))
	for k := range req.Query {
		if !proxyReserved[k] {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range keys {
		q.Where = append(q.Where, filterCond(k, req.Query.Get(k)))
	}

	rows, err := s.Store.Select(ctx, q)
	if err != nil {
		return envelope.Response{}, storeFailure(err, "")
	}
	return envelope.Success(rowsData(rows), envelope.Count(len(rows))), nil
}

// filterCond reads "gte.10" style values; anything else is equality.
func filterCond(col, raw string) store.Cond {
	if opName, val, ok := strings.Cut(raw, "."); ok {
		if op, known := store.ParseOp(opName); known {
			if op == store.OpEq && val == "null" {
				return store.Eq(col, nil)
			}
			return store.Cond{Column: col, Op: op, Value: val}
		}
	}
	return store.Eq(col, raw)
}

type proxyInput struct {
	Table string         `json:"table" validate:"required"`
	Op    string         `json:"op" validate:"required,oneof=insert update"`
	Data  map[string]any `json:"data" validate:"required"`
	Match map[string]any `json:"match"`
}

func (s *service) proxyPost(ctx context.Context, req *core.Request) (envelope.Response, error) {
	var in proxyInput
	if err := decodeValid(req, &in); err != nil {
		return envelope.Response{}, err
	}
	table, err := s.proxyTable(in.Table)
	if err != nil {
		return envelope.Response{}, err
	}
	data, err := scalarRow(in.Data)
	if err != nil {
		return envelope.Response{}, err
	}
	if len(data) == 0 {
		return envelope.Response{}, core.BadRequest("data is required")
	}
	now := s.now()

	switch in.Op {
	case "insert":
		if _, ok := data["id"]; !ok {
			data["id"] = uuid.NewString()
		}
		if _, ok := data["created_at"]; !ok {
			data["created_at"] = now
		}
		if _, ok := data["updated_at"]; !ok {
			data["updated_at"] = now
		}
		row, err := s.Store.Insert(ctx, table, data)
		if err != nil {
			return envelope.Response{}, storeFailure(err, "")
		}
		return envelope.Success(map[string]any(row)), nil

	default:
		match, err := scalarRow(in.Match)
		if err != nil {
			return envelope.Response{}, err
		}
		if len(match) == 0 {
			return envelope.Response{}, core.BadRequest("match is required for update")
		}
		if _, ok := data["updated_at"]; !ok {
			data["updated_at"] = now
		}
		where := make([]store.Cond, 0, len(match))
		for _, k := range sortedKeys(match) {
			where = append(where, store.Eq(k, match[k]))
		}
		rows, err := s.Store.Update(ctx, table, where, data)
		if err != nil {
			return envelope.Response{}, storeFailure(err, "no rows matched")
		}
		return envelope.Success(rowsData(rows), envelope.Count(len(rows))), nil
	}
}

// scalarRow rejects nested values and unwraps json.Number into strings so
// both drivers bind them the same way.
func scalarRow(in map[string]any) (store.Row, error) {
	out := make(store.Row, len(in))
	for k, v := range in {
		switch x := v.(type) {
		case nil, string, bool:
			out[k] = x
		case json.Number:
			out[k] = x.String()
		default:
			return nil, core.BadRequest("value for " + k + " must be a scalar")
		}
	}
	return out, nil
}

func sortedKeys(r store.Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func rowsData(rows []store.Row) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, map[string]any(r))
	}
	return out
}
