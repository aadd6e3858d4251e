package metrics

import (
	"net/http"
	"strings"
	"sync"
)

var (
	skipPaths = map[string]struct{}{"/metrics": {}, "/ping": {}}

	normMu         sync.RWMutex
	pathNormalizer = func(r *http.Request) string { return r.URL.Path }
)

// SetPathNormalizer allows callers to normalize the URI label (e.g., collapse IDs).
// By default it returns r.URL.Path unchanged.
func SetPathNormalizer(fn func(*http.Request) string) {
	if fn == nil {
		return
	}
	normMu.Lock()
	pathNormalizer = fn
	normMu.Unlock()
}

// PrefixNormalizer collapses every path under prefix to prefix itself, so
// action names in the path do not explode the uri label.
func PrefixNormalizer(prefix string) func(*http.Request) string {
	prefix = strings.TrimRight(prefix, "/")
	return func(r *http.Request) string {
		p := r.URL.Path
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return prefix
		}
		return "other"
	}
}

func isSkipPath(r *http.Request) bool {
	p := r.URL.Path
	_, ok := skipPaths[p]
	return ok
}

func normalizePath(r *http.Request) string {
	normMu.RLock()
	fn := pathNormalizer
	normMu.RUnlock()
	return fn(r)
}
