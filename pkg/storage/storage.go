// Package storage holds uploaded applicant documents. Keys are slash
// separated ("<nisn>/akta_<ts>.pdf") regardless of backend.
package storage

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("object not found")

// ErrInvalidKey rejects empty, absolute or parent-escaping keys.
var ErrInvalidKey = errors.New("invalid object key")

type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
	URL          string
}

// Bucket is implemented by the S3 and disk backends.
type Bucket interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns objects under prefix sorted by key.
	List(ctx context.Context, prefix string) ([]Object, error)
	URL(key string) string
}

// CleanKey normalizes key and rejects anything that would leave the bucket.
func CleanKey(key string) (string, error) {
	k := strings.TrimSpace(strings.ReplaceAll(key, `\`, "/"))
	if k == "" || strings.HasPrefix(k, "/") {
		return "", ErrInvalidKey
	}
	for _, seg := range strings.Split(k, "/") {
		if seg == ".." {
			return "", ErrInvalidKey
		}
	}
	k = path.Clean(k)
	if k == "." {
		return "", ErrInvalidKey
	}
	return k, nil
}

// joinURL builds base + "/" + key, escaping each key segment.
func joinURL(base, key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(segs, "/")
}
