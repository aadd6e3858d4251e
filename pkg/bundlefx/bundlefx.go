// bundlefx/bundlefx.go
package bundlefx

import (
	"github.com/joeydtaylor/ppdb-gateway/pkg/middleware/logger"
	"github.com/joeydtaylor/ppdb-gateway/pkg/middleware/metrics"
	"go.uber.org/fx"
)

// Module provides the shared middleware: loggers, access log and the metrics
// handler.
var Module = fx.Options(
	logger.Module,
	metrics.Module,
)
