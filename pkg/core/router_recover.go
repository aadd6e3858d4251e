package core

import (
	"fmt"
	"net/http"
	"runtime/debug"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/ppdb-gateway/pkg/envelope"
	"go.uber.org/zap"
)

// recoverer replaces chi's Recoverer so a panic outside the dispatcher still
// answers with a CORS-enabled failure envelope.
func recoverer(log *zap.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic in handler",
					zap.Any("error", rec),
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()),
				)
				routerFailure(fmt.Errorf("%v", rec)).Write(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	envelope.Failure("Unknown action: ", http.StatusNotFound).Write(w)
}

func methodNotAllowedHTTP(w http.ResponseWriter, r *http.Request) {
	envelope.Failure("Method "+r.Method+" not allowed", http.StatusMethodNotAllowed).Write(w)
}
