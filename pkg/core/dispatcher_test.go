package core

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joeydtaylor/ppdb-gateway/pkg/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type observed struct {
	mu      sync.Mutex
	actions []string
	status  []int
}

func (o *observed) fn(action, _ string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.actions = append(o.actions, action)
	o.status = append(o.status, status)
}

func newTestDispatcher(t *testing.T, opts ...DispatcherOption) (*Dispatcher, *observed) {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister("hello", []string{http.MethodGet}, okHandler(map[string]string{"hi": "there"}))
	reg.MustRegister("echo", []string{http.MethodPost}, HandlerFunc(func(_ context.Context, req *Request) (envelope.Response, error) {
		var in map[string]any
		if err := req.Decode(&in); err != nil {
			return envelope.Response{}, err
		}
		return envelope.Success(in), nil
	}))
	reg.MustRegister("bad", []string{http.MethodGet}, HandlerFunc(func(context.Context, *Request) (envelope.Response, error) {
		return envelope.Response{}, BadRequest("nisn is required")
	}))
	reg.MustRegister("boom", []string{http.MethodGet}, HandlerFunc(func(context.Context, *Request) (envelope.Response, error) {
		return envelope.Response{}, errors.New("db down")
	}))
	reg.MustRegister("panic", []string{http.MethodGet}, HandlerFunc(func(context.Context, *Request) (envelope.Response, error) {
		panic("kaboom")
	}))
	reg.MustRegister("weird", []string{http.MethodGet}, HandlerFunc(func(context.Context, *Request) (envelope.Response, error) {
		return envelope.Response{Status: 777}, nil
	}))
	reg.MustRegister("custom", []string{http.MethodOptions, http.MethodGet}, HandlerFunc(func(_ context.Context, req *Request) (envelope.Response, error) {
		return envelope.Success(req.Method), nil
	}))

	obs := &observed{}
	opts = append([]DispatcherOption{WithObserver(obs.fn)}, opts...)
	d, err := NewDispatcher(reg, Classifier{}, opts...)
	require.NoError(t, err)
	return d, obs
}

func do(t *testing.T, d http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	d.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	var m map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	}
	return rec, m
}

func TestDispatchSuccess(t *testing.T) {
	d, obs := newTestDispatcher(t)
	rec, body := do(t, d, http.MethodGet, "/api/index?action=hello", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(envelope.HeaderAllowOrigin))
	assert.Equal(t, envelope.ContentTypeJSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"hi": "there"}, body["data"])
	assert.Equal(t, []string{"hello"}, obs.actions)
}

func TestDispatchByPath(t *testing.T) {
	d, _ := newTestDispatcher(t)
	rec, body := do(t, d, http.MethodGet, "/api/hello", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}

func TestDispatchUnknownAction(t *testing.T) {
	d, obs := newTestDispatcher(t)
	rec, body := do(t, d, http.MethodGet, "/api/index?action=nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(envelope.HeaderAllowOrigin))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Unknown action: nope", body["error"])
	assert.Equal(t, []string{""}, obs.actions)
}

func TestDispatchEntrypointIsUnknown(t *testing.T) {
	d, _ := newTestDispatcher(t)
	rec, body := do(t, d, http.MethodGet, "/api/index", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Unknown action: ", body["error"])
}

func TestDispatchPreflight(t *testing.T) {
	d, _ := newTestDispatcher(t)
	rec, _ := do(t, d, http.MethodOptions, "/api/index?action=echo", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, rec.Body.Len())
	assert.Equal(t, "*", rec.Header().Get(envelope.HeaderAllowOrigin))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get(envelope.HeaderAllowMethods))
	assert.Equal(t, "Content-Type", rec.Header().Get(envelope.HeaderAllowHeaders))
}

func TestDispatchDeclaredOptionsReachesHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)
	rec, body := do(t, d, http.MethodOptions, "/api/custom", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OPTIONS", body["data"])
}

func TestDispatchMethodNotAllowed(t *testing.T) {
	d, _ := newTestDispatcher(t)
	rec, body := do(t, d, http.MethodPost, "/api/index?action=hello", `{}`)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method POST not allowed for action hello", body["error"])
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Allow"))
	assert.Equal(t, "*", rec.Header().Get(envelope.HeaderAllowOrigin))
}

func TestDispatchHandlerFailure(t *testing.T) {
	d, _ := newTestDispatcher(t)
	rec, body := do(t, d, http.MethodGet, "/api/bad", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "nisn is required", body["error"])
}

func TestDispatchPlainErrorIsRouterFailure(t *testing.T) {
	d, _ := newTestDispatcher(t)
	rec, body := do(t, d, http.MethodGet, "/api/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Router error: db down", body["error"])
	assert.Equal(t, "*", rec.Header().Get(envelope.HeaderAllowOrigin))
}

func TestDispatchPanicIsRouterFailure(t *testing.T) {
	zc, logs := observer.New(zap.DebugLevel)
	d, obs := newTestDispatcher(t, WithLogger(zap.New(zc)))
	rec, body := do(t, d, http.MethodGet, "/api/panic", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Router error: kaboom", body["error"])
	assert.Equal(t, 1, logs.FilterMessage("dispatch panic").Len())
	assert.Equal(t, []int{http.StatusInternalServerError}, obs.status)
}

func TestDispatchInvalidStatus(t *testing.T) {
	d, _ := newTestDispatcher(t)
	rec, body := do(t, d, http.MethodGet, "/api/weird", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body["error"], "invalid status 777")
}

func TestDispatchDecodeErrors(t *testing.T) {
	d, _ := newTestDispatcher(t)

	rec, body := do(t, d, http.MethodPost, "/api/echo", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body is required", body["error"])

	rec, body = do(t, d, http.MethodPost, "/api/echo", "{nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "invalid JSON body")

	rec, body = do(t, d, http.MethodPost, "/api/echo", `{"a":1}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"a": float64(1)}, body["data"])
}

func TestDispatchBodyTooLarge(t *testing.T) {
	zc, logs := observer.New(zap.InfoLevel)
	d, obs := newTestDispatcher(t, WithMaxBody(4), WithLogger(zap.New(zc)))
	rec, body := do(t, d, http.MethodPost, "/api/echo", `{"a":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrBodyTooLarge.Error(), body["error"])
	assert.Equal(t, "*", rec.Header().Get(envelope.HeaderAllowOrigin))

	assert.Equal(t, []string{""}, obs.actions)
	assert.Equal(t, []int{http.StatusBadRequest}, obs.status)
	entries := logs.FilterMessage("dispatch").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, false, entries[0].ContextMap()["resolved"])
	assert.Equal(t, "/api/echo", entries[0].ContextMap()["path"])
}

func TestDispatchLogsEveryRequest(t *testing.T) {
	zc, logs := observer.New(zap.InfoLevel)
	d, _ := newTestDispatcher(t, WithLogger(zap.New(zc)))
	do(t, d, http.MethodGet, "/api/hello", "")
	do(t, d, http.MethodGet, "/api/nope", "")

	entries := logs.FilterMessage("dispatch").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "hello", entries[0].ContextMap()["action"])
	assert.Equal(t, true, entries[0].ContextMap()["resolved"])
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, false, entries[1].ContextMap()["resolved"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}

func TestObserverPanicDoesNotEscape(t *testing.T) {
	d, _ := newTestDispatcher(t, WithObserver(func(string, string, int, time.Duration) { panic("metrics") }))
	rec, _ := do(t, d, http.MethodGet, "/api/hello", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleNilRequest(t *testing.T) {
	d, _ := newTestDispatcher(t)
	resp := d.Handle(context.Background(), nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestNewDispatcherRejectsEntrypointAction(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("index", []string{http.MethodGet}, okHandler(nil))
	_, err := NewDispatcher(reg, Classifier{})
	assert.ErrorIs(t, err, ErrReservedAction)
	assert.False(t, reg.Sealed())
}

func TestNewDispatcherSealsRegistry(t *testing.T) {
	reg := NewRegistry()
	_, err := NewDispatcher(reg, Classifier{}, WithObserver(nil))
	require.NoError(t, err)
	assert.True(t, reg.Sealed())

	_, err = NewDispatcher(nil, Classifier{})
	assert.Error(t, err)
}

func TestMethodsTable(t *testing.T) {
	reg := NewRegistry()
	m := Methods{
		http.MethodGet:  okHandler("get"),
		http.MethodPost: okHandler("post"),
	}
	reg.MustRegister("both", []string{http.MethodGet, http.MethodPost, http.MethodPut}, m)
	d, err := NewDispatcher(reg, Classifier{}, WithObserver(nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"GET", "POST"}, m.Allowed())

	_, body := do(t, d, http.MethodPost, "/api/both", "")
	assert.Equal(t, "post", body["data"])

	rec, body := do(t, d, http.MethodPut, "/api/both", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method PUT not allowed for action both", body["error"])
}
