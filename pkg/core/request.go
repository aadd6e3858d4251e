package core

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/ppdb-gateway/pkg/codec"
)

// Request is the dispatcher's read-only view of an inbound call. Derivations
// (WithAction) return copies; nothing mutates a Request in place.
type Request struct {
	Method    string
	Path      string
	Query     url.Values
	Header    http.Header
	Body      []byte
	RequestID string

	// Action is the classified identifier, set by the dispatcher.
	Action string
}

// ErrBodyTooLarge is returned by FromHTTP when the body exceeds the limit.
var ErrBodyTooLarge = errors.New("request body too large")

// FromHTTP snapshots r into a Request. maxBody <= 0 means unlimited.
func FromHTTP(r *http.Request, maxBody int64) (*Request, error) {
	req := &Request{
		Method:    strings.ToUpper(r.Method),
		Path:      r.URL.Path,
		Query:     cloneValues(r.URL.Query()),
		Header:    r.Header.Clone(),
		RequestID: chimd.GetReqID(r.Context()),
	}
	if r.Body == nil || r.Body == http.NoBody {
		return req, nil
	}
	var rd io.Reader = r.Body
	if maxBody > 0 {
		rd = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(rd)
	if err != nil {
		return req, fmt.Errorf("read body: %w", err)
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return req, ErrBodyTooLarge
	}
	req.Body = body
	return req, nil
}

// WithAction returns a copy carrying the classified action.
func (r *Request) WithAction(action string) *Request {
	cp := *r
	cp.Action = action
	return &cp
}

// Param returns the trimmed first value of a query parameter.
func (r *Request) Param(key string) string {
	if r.Query == nil {
		return ""
	}
	return strings.TrimSpace(r.Query.Get(key))
}

// Decode unmarshals the JSON body into v. Decode errors become 400s.
func (r *Request) Decode(v any) error {
	if err := codec.JSON.Unmarshal(r.Body, v); err != nil {
		if errors.Is(err, codec.ErrEmptyBody) {
			return BadRequest("request body is required")
		}
		return BadRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
