package core

import (
	"context"
	"net/http"
	"testing"

	"github.com/joeydtaylor/ppdb-gateway/pkg/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(data any) Handler {
	return HandlerFunc(func(context.Context, *Request) (envelope.Response, error) {
		return envelope.Success(data), nil
	})
}

func TestRegisterNormalizesMethods(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("a", []string{"get", " POST ", "GET"}, okHandler(nil)))

	d, err := reg.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"GET", "POST"}, d.Methods)
	assert.Equal(t, []string{"GET", "POST", "OPTIONS"}, d.PreflightMethods())
	assert.Equal(t, DefaultAllowHeaders, d.AllowHeaders)
}

func TestRegisterRejectsBadEntries(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("a", []string{"GET"}, okHandler(nil)))

	assert.ErrorIs(t, reg.Register("a", []string{"GET"}, okHandler(nil)), ErrDuplicate)
	assert.Error(t, reg.Register("", []string{"GET"}, okHandler(nil)))
	assert.Error(t, reg.Register(" b", []string{"GET"}, okHandler(nil)))
	assert.Error(t, reg.Register("b", nil, okHandler(nil)))
	assert.Error(t, reg.Register("b", []string{" "}, okHandler(nil)))
	assert.Error(t, reg.Register("b", []string{"GET"}, nil))
}

func TestSealedRegistryRejectsRegister(t *testing.T) {
	reg := NewRegistry()
	reg.Seal()
	assert.True(t, reg.Sealed())
	assert.ErrorIs(t, reg.Register("a", []string{"GET"}, okHandler(nil)), ErrSealed)
}

func TestLookupMiss(t *testing.T) {
	_, err := NewRegistry().Lookup("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeclaredOptionsNotDuplicated(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("a", []string{http.MethodOptions, http.MethodGet}, okHandler(nil),
		WithAllowHeaders("Content-Type", "Authorization"))
	d, _ := reg.Lookup("a")
	assert.Equal(t, []string{"OPTIONS", "GET"}, d.PreflightMethods())
	assert.Equal(t, []string{"Content-Type", "Authorization"}, d.AllowHeaders)
}

func TestActionsSorted(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("b", []string{"GET"}, okHandler(nil))
	reg.MustRegister("a", []string{"GET"}, okHandler(nil))
	assert.Equal(t, []string{"a", "b"}, reg.Actions())
}

func TestMustRegisterPanics(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("a", []string{"GET"}, okHandler(nil))
	assert.Panics(t, func() { reg.MustRegister("a", []string{"GET"}, okHandler(nil)) })
}
