package core

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// DefaultAllowHeaders is what preflight replies advertise unless a
// descriptor overrides it.
var DefaultAllowHeaders = []string{"Content-Type"}

// Descriptor binds an action to its allowed methods and handler.
type Descriptor struct {
	Action       string
	Methods      []string
	AllowHeaders []string
	Handler      Handler
}

// Allows reports whether method is in the descriptor's set.
func (d Descriptor) Allows(method string) bool {
	for _, m := range d.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// PreflightMethods is the Allow-Methods list: declared methods plus OPTIONS.
func (d Descriptor) PreflightMethods() []string {
	out := append([]string(nil), d.Methods...)
	if !d.Allows(http.MethodOptions) {
		out = append(out, http.MethodOptions)
	}
	return out
}

// DescriptorOption customizes a descriptor at registration.
type DescriptorOption func(*Descriptor)

// WithAllowHeaders overrides the preflight Allow-Headers for one action.
func WithAllowHeaders(headers ...string) DescriptorOption {
	return func(d *Descriptor) { d.AllowHeaders = append([]string(nil), headers...) }
}

// Registry is the static action table. It is filled at startup, then sealed;
// after Seal it is read-only and safe for concurrent Lookup without locking.
type Registry struct {
	entries map[string]Descriptor
	sealed  bool
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Descriptor)}
}

// Register adds an action. Duplicate or malformed registrations are
// configuration errors.
func (r *Registry) Register(action string, methods []string, h Handler, opts ...DescriptorOption) error {
	if r.sealed {
		return fmt.Errorf("register %q: %w", action, ErrSealed)
	}
	if strings.TrimSpace(action) == "" || action != strings.TrimSpace(action) {
		return fmt.Errorf("register %q: action must be non-empty without surrounding spaces", action)
	}
	if h == nil {
		return fmt.Errorf("register %q: handler is nil", action)
	}
	if _, dup := r.entries[action]; dup {
		return fmt.Errorf("register %q: %w", action, ErrDuplicate)
	}
	ms, err := normalizeMethods(methods)
	if err != nil {
		return fmt.Errorf("register %q: %w", action, err)
	}

	d := Descriptor{
		Action:       action,
		Methods:      ms,
		AllowHeaders: append([]string(nil), DefaultAllowHeaders...),
		Handler:      h,
	}
	for _, o := range opts {
		o(&d)
	}
	r.entries[action] = d
	return nil
}

// MustRegister is Register that panics; for static startup tables.
func (r *Registry) MustRegister(action string, methods []string, h Handler, opts ...DescriptorOption) {
	if err := r.Register(action, methods, h, opts...); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor for action, or an error wrapping ErrNotFound.
func (r *Registry) Lookup(action string) (Descriptor, error) {
	d, ok := r.entries[action]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrNotFound, action)
	}
	return d, nil
}

// Actions lists registered identifiers, sorted.
func (r *Registry) Actions() []string {
	out := make([]string, 0, len(r.entries))
	for a := range r.entries {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Seal freezes the registry.
func (r *Registry) Seal() { r.sealed = true }

// Sealed reports whether Seal was called.
func (r *Registry) Sealed() bool { return r.sealed }

func normalizeMethods(methods []string) ([]string, error) {
	if len(methods) == 0 {
		return nil, fmt.Errorf("at least one method required")
	}
	seen := make(map[string]struct{}, len(methods))
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" {
			return nil, fmt.Errorf("empty method")
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}
