package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Disk is a Bucket rooted at a local directory.
type Disk struct {
	root    string
	baseURL string
}

// NewDisk creates root if needed. baseURL prefixes the URLs handed out.
func NewDisk(root, baseURL string) (*Disk, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("disk: root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("disk: %w", err)
	}
	if baseURL == "" {
		baseURL = "file://" + filepath.ToSlash(root)
	}
	return &Disk{root: root, baseURL: baseURL}, nil
}

func (d *Disk) path(key string) (string, string, error) {
	k, err := CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return k, filepath.Join(d.root, filepath.FromSlash(k)), nil
}

func (d *Disk) Put(ctx context.Context, key, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, p, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (d *Disk) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k, p, err := d.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, k)
	}
	return b, err
}

func (d *Disk) List(ctx context.Context, prefix string) ([]Object, error) {
	var objs []Object
	prefix = strings.TrimLeft(prefix, "/")
	err := filepath.WalkDir(d.root, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if e.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := e.Info()
		if err != nil {
			return err
		}
		objs = append(objs, Object{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
			URL:          d.URL(key),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key < objs[j].Key })
	return objs, nil
}

func (d *Disk) URL(key string) string { return joinURL(d.baseURL, key) }
