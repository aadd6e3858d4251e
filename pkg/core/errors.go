package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a dispatch outcome that is not a success.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindMethodNotAllowed
	KindHandlerFailure
	KindRouterFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindMethodNotAllowed:
		return "method_not_allowed"
	case KindHandlerFailure:
		return "handler_failure"
	case KindRouterFailure:
		return "router_failure"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound         = errors.New("unknown action")
	ErrDuplicate        = errors.New("action already registered")
	ErrSealed           = errors.New("registry sealed")
	ErrReservedAction   = errors.New("action name is reserved")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// Error is the typed failure carried through the dispatcher. Handlers return
// it (via Fail/Failf/BadRequest) to pick the status and client message.
type Error struct {
	Kind   Kind
	Status int
	Action string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Fail wraps err as a HandlerFailure with the given status. The client sees
// err's message.
func Fail(status int, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindHandlerFailure, Status: status, Err: err}
}

// Failf is Fail with a formatted message.
func Failf(status int, format string, args ...any) error {
	return &Error{Kind: KindHandlerFailure, Status: status, Msg: fmt.Sprintf(format, args...)}
}

// BadRequest is a 400 HandlerFailure.
func BadRequest(msg string) error {
	return &Error{Kind: KindHandlerFailure, Status: http.StatusBadRequest, Msg: msg}
}

// NotFoundf is a 404 HandlerFailure raised by a handler (e.g. no such row),
// as opposed to the dispatcher's own unknown-action outcome.
func NotFoundf(format string, args ...any) error {
	return Failf(http.StatusNotFound, format, args...)
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func statusIf(s, def int) int {
	if s > 0 {
		return s
	}
	return def
}
