package logger

import "go.uber.org/fx"

// Module provides *zap.Logger (system log) and the access log *Middleware.
var Module = fx.Module("logger",
	fx.Provide(ProvideAccessLog, ProvideSystemLog),
)
