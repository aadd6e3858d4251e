package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const SystemLog = "system.log"

// ProvideAccessLog builds the access log middleware on its own rolling file.
func ProvideAccessLog(lc fx.Lifecycle) *Middleware {
	m := NewMiddleware(nil)
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		_ = m.log.Sync()
		return nil
	}})
	return m
}

// ProvideSystemLog is the application logger; it is flushed on shutdown.
func ProvideSystemLog(lc fx.Lifecycle) *zap.Logger {
	l := NewLog(SystemLog)
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		// stdout Sync fails on some terminals; nothing to do about it
		_ = l.Sync()
		return nil
	}})
	return l
}
