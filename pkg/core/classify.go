package core

import (
	"path"
	"strings"
)

const (
	DefaultPrefix     = "/api"
	DefaultEntrypoint = "index"
	ActionParam       = "action"
)

// Classifier turns a request into an action identifier. The zero value uses
// DefaultPrefix and DefaultEntrypoint.
type Classifier struct {
	Prefix     string
	Entrypoint string
}

// Classify prefers a non-empty ?action= parameter, then the final path
// segment under Prefix. The entrypoint segment, a bare prefix and paths
// outside the prefix all yield "". It never fails.
func (c Classifier) Classify(req *Request) string {
	action := req.Param(ActionParam)
	if action == "" {
		action = c.fromPath(req.Path)
	}
	if action == c.entrypoint() {
		return ""
	}
	return action
}

func (c Classifier) fromPath(p string) string {
	prefix := c.prefix()
	if p != prefix && !strings.HasPrefix(p, prefix+"/") {
		return ""
	}
	rest := strings.Trim(strings.TrimPrefix(p, prefix), "/")
	if rest == "" {
		return ""
	}
	return path.Base(rest)
}

func (c Classifier) prefix() string {
	p := strings.TrimRight(strings.TrimSpace(c.Prefix), "/")
	if p == "" {
		p = DefaultPrefix
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func (c Classifier) entrypoint() string {
	if e := strings.TrimSpace(c.Entrypoint); e != "" {
		return e
	}
	return DefaultEntrypoint
}
