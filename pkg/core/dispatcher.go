package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/joeydtaylor/ppdb-gateway/pkg/envelope"
	hmetrics "github.com/joeydtaylor/ppdb-gateway/pkg/middleware/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Observer receives one call per finished dispatch. action is "" when the
// request did not resolve to a registered action.
type Observer func(action, method string, status int, elapsed time.Duration)

// Dispatcher resolves a Request to a registered handler and guarantees an
// envelope-shaped Response for every outcome.
type Dispatcher struct {
	reg      *Registry
	cls      Classifier
	log      *zap.Logger
	maxBody  int64
	observe  Observer
	fallback []string
}

type DispatcherOption func(*Dispatcher)

func WithLogger(l *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithMaxBody bounds request bodies read by ServeHTTP. <= 0 is unlimited.
func WithMaxBody(n int64) DispatcherOption { return func(d *Dispatcher) { d.maxBody = n } }

// WithObserver replaces the default prometheus observer. nil disables it.
func WithObserver(o Observer) DispatcherOption { return func(d *Dispatcher) { d.observe = o } }

// WithDefaultAllowHeaders sets the preflight Allow-Headers used for
// descriptors that carry none.
func WithDefaultAllowHeaders(h ...string) DispatcherOption {
	return func(d *Dispatcher) { d.fallback = append([]string(nil), h...) }
}

// NewDispatcher seals reg. A registered action named like the classifier's
// entrypoint would be unreachable, so it is rejected here.
func NewDispatcher(reg *Registry, cls Classifier, opts ...DispatcherOption) (*Dispatcher, error) {
	if reg == nil {
		return nil, errors.New("dispatcher: registry is nil")
	}
	if _, err := reg.Lookup(cls.entrypoint()); err == nil {
		return nil, fmt.Errorf("dispatcher: %q: %w", cls.entrypoint(), ErrReservedAction)
	}
	d := &Dispatcher{
		reg:      reg,
		cls:      cls,
		log:      zap.NewNop(),
		observe:  prometheusObserver,
		fallback: append([]string(nil), DefaultAllowHeaders...),
	}
	for _, o := range opts {
		o(d)
	}
	reg.Seal()
	return d, nil
}

// ServeHTTP adapts the dispatcher to net/http.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, err := FromHTTP(r, d.maxBody)
	if err != nil {
		resp := envelope.Failure(err.Error(), http.StatusBadRequest)
		d.safeLog(zap.WarnLevel, "request rejected",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		d.finish(req, "", resp, time.Since(start))
		resp.Write(w)
		return
	}
	d.Handle(r.Context(), req).Write(w)
}

// Handle runs one dispatch. It never panics and always returns a Response.
func (d *Dispatcher) Handle(ctx context.Context, req *Request) (resp envelope.Response) {
	start := time.Now()
	action := ""
	resolved := false
	if req == nil {
		req = &Request{}
	}

	defer func() {
		if rec := recover(); rec != nil {
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("%v", rec)
			}
			d.safeLog(zap.ErrorLevel, "dispatch panic",
				zap.String("action", action),
				zap.Error(err),
				zap.ByteString("stack", debug.Stack()),
			)
			resp = routerFailure(err)
		}
		label := ""
		if resolved {
			label = action
		}
		d.finish(req.WithAction(action), label, resp, time.Since(start))
	}()

	action = d.cls.Classify(req)
	req = req.WithAction(action)

	desc, err := d.reg.Lookup(action)
	if err != nil {
		return envelope.Failure("Unknown action: "+action, http.StatusNotFound)
	}
	resolved = true

	if !desc.Allows(req.Method) {
		if req.Method == http.MethodOptions {
			return d.preflight(desc)
		}
		return methodNotAllowed(desc, req.Method)
	}

	out, err := desc.Handler.Process(ctx, req)
	if err != nil {
		return d.failure(desc, req, err)
	}
	if out.Status < 100 || out.Status > 599 {
		return routerFailure(fmt.Errorf("handler %s returned invalid status %d", action, out.Status))
	}
	return out
}

func (d *Dispatcher) preflight(desc Descriptor) envelope.Response {
	if p, ok := desc.Handler.(Preflighter); ok {
		return p.Preflight(desc)
	}
	headers := desc.AllowHeaders
	if len(headers) == 0 {
		headers = d.fallback
	}
	return envelope.Preflight(desc.PreflightMethods(), headers)
}

func (d *Dispatcher) failure(desc Descriptor, req *Request, err error) envelope.Response {
	e, ok := AsError(err)
	if !ok || e.Kind == KindRouterFailure {
		d.safeLog(zap.ErrorLevel, "handler error",
			zap.String("action", req.Action),
			zap.String("requestId", req.RequestID),
			zap.Error(err),
		)
		return routerFailure(err)
	}
	if e.Kind == KindMethodNotAllowed {
		return methodNotAllowed(desc, req.Method)
	}
	status := statusIf(e.Status, http.StatusInternalServerError)
	if status >= http.StatusInternalServerError {
		d.safeLog(zap.ErrorLevel, "handler failure",
			zap.String("action", req.Action),
			zap.String("requestId", req.RequestID),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	return envelope.Failure(e.Error(), status)
}

func (d *Dispatcher) finish(req *Request, action string, resp envelope.Response, elapsed time.Duration) {
	if d.observe != nil {
		func() {
			defer func() { _ = recover() }()
			d.observe(action, req.Method, resp.Status, elapsed)
		}()
	}
	lvl := zap.InfoLevel
	if !resp.IsSuccess() {
		lvl = zap.WarnLevel
	}
	d.safeLog(lvl, "dispatch",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.String("action", req.Action),
		zap.Bool("resolved", action != ""),
		zap.String("requestId", req.RequestID),
		zap.Int("status", resp.Status),
		zap.Duration("lat", elapsed),
	)
}

// safeLog never lets a logging failure escape into the response path.
func (d *Dispatcher) safeLog(lvl zapcore.Level, msg string, fields ...zap.Field) {
	defer func() { _ = recover() }()
	if ce := d.log.Check(lvl, msg); ce != nil {
		ce.Write(fields...)
	}
}

func methodNotAllowed(desc Descriptor, method string) envelope.Response {
	resp := envelope.Failure(
		"Method "+method+" not allowed for action "+desc.Action,
		http.StatusMethodNotAllowed,
	)
	resp.Header = http.Header{}
	resp.Header.Set("Allow", strings.Join(desc.PreflightMethods(), ", "))
	return resp
}

func routerFailure(err error) envelope.Response {
	return envelope.Failure("Router error: "+err.Error(), http.StatusInternalServerError)
}

func prometheusObserver(action, method string, status int, elapsed time.Duration) {
	hmetrics.ObserveDispatch(action, method, status, elapsed)
}
