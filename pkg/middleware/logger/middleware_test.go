package logger

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Middleware, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return NewMiddleware(zap.New(core)), logs
}

func TestAccessLogRecordsRequest(t *testing.T) {
	m, logs := observed()
	h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false}`))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/index?action=nope", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/api/index", fields["uri"])
	assert.Equal(t, "nope", fields["action"])
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
	assert.Equal(t, int64(len(`{"success":false}`)), fields["responseSize"])
}

func TestAccessLogKeepsBodyReadable(t *testing.T) {
	AddBodyLogPaths("/api/pendaftar_status")
	m, logs := observed()

	var seen string
	h := m.Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/pendaftar_status", strings.NewReader(`{"id":1}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, `{"id":1}`, seen)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, `{"id":1}`, logs.All()[0].ContextMap()["requestData"])
}

func TestAccessLogRedactsUnlistedBodies(t *testing.T) {
	m, logs := observed()
	h := m.Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"data":"secret"}`, string(b))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/upload_file", strings.NewReader(`{"data":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	_, ok := logs.All()[0].ContextMap()["requestData"]
	assert.False(t, ok)
}

type chunked struct {
	r    io.Reader
	read int
}

func (c *chunked) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += n
	return n, err
}

func TestAccessLogBoundsUnsizedBodies(t *testing.T) {
	AddBodyLogPaths("/api/pendaftar_create")
	m, logs := observed()

	big := `{"x":"` + strings.Repeat("a", 3*maxLoggedBody) + `"}`
	src := &chunked{r: strings.NewReader(big)}
	var peeked int
	var seen int
	h := m.Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		peeked = src.read
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = len(b)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/pendaftar_create", io.NopCloser(src))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.LessOrEqual(t, peeked, maxLoggedBody+1)
	assert.Equal(t, len(big), seen)
	require.Equal(t, 1, logs.Len())
	_, ok := logs.All()[0].ContextMap()["requestData"]
	assert.False(t, ok)
}
