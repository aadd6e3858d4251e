package core

import (
	"net/http"

	"github.com/joeydtaylor/ppdb-gateway/pkg/middleware/logger"
	httpx "github.com/joeydtaylor/ppdb-gateway/pkg/transport/httpx"
	"go.uber.org/zap"
)

type BuildDeps struct {
	Dispatcher *Dispatcher
	LogMW      *logger.Middleware
	Log        *zap.Logger
	Metrics    http.Handler
	Router     httpx.Router
}
