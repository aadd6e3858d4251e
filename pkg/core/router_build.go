package core

import (
	"errors"
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	manifest "github.com/joeydtaylor/ppdb-gateway/pkg/manifest"
	hmetrics "github.com/joeydtaylor/ppdb-gateway/pkg/middleware/metrics"
)

// BuildRouter mounts the dispatcher at the API prefix along with the ping,
// metrics and envelope-shaped fallback routes.
func BuildRouter(cfg manifest.Config, d BuildDeps) (http.Handler, error) {
	if d.Router == nil || d.Dispatcher == nil {
		return nil, errors.New("build router: router and dispatcher are required")
	}
	r := d.Router
	r.Use(chimd.RequestID, recoverer(d.Log), chimd.Heartbeat("/ping"))
	if d.LogMW != nil {
		r.Use(d.LogMW.Middleware())
	}
	hmetrics.SetPathNormalizer(hmetrics.PrefixNormalizer(cfg.API.Prefix))
	r.Use(hmetrics.Collect())

	if d.Metrics != nil {
		r.Handle(http.MethodGet, "/metrics", d.Metrics)
	}

	h := withTimeout(d.Dispatcher, time.Duration(cfg.API.TimeoutMS)*time.Millisecond)
	r.Any(cfg.API.Prefix, h)
	r.Any(cfg.API.Prefix+"/*", h)

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowedHTTP)
	return r.Mux(), nil
}
