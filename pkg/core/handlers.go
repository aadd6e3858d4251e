// core/handlers.go
package core

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/joeydtaylor/ppdb-gateway/pkg/envelope"
)

// Handler is the contract every business action implements. A returned
// *Error picks the failure status; any other error is treated as a router
// failure (500).
type Handler interface {
	Process(ctx context.Context, req *Request) (envelope.Response, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, req *Request) (envelope.Response, error)

func (f HandlerFunc) Process(ctx context.Context, req *Request) (envelope.Response, error) {
	return f(ctx, req)
}

// Preflighter lets a handler replace the central CORS preflight reply.
type Preflighter interface {
	Preflight(d Descriptor) envelope.Response
}

// Methods routes by HTTP method to a per-method handler, so one action can
// serve GET and POST with different functions.
type Methods map[string]Handler

func (m Methods) Process(ctx context.Context, req *Request) (envelope.Response, error) {
	h, ok := m[req.Method]
	if !ok {
		return envelope.Response{}, &Error{
			Kind:   KindMethodNotAllowed,
			Status: http.StatusMethodNotAllowed,
			Action: req.Action,
			Msg:    "Method " + req.Method + " not allowed for action " + req.Action,
			Err:    ErrMethodNotAllowed,
		}
	}
	return h.Process(ctx, req)
}

// Allowed lists the methods in the table, upper-cased and sorted.
func (m Methods) Allowed() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, strings.ToUpper(k))
	}
	sort.Strings(out)
	return out
}
