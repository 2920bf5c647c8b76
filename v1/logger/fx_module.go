package logger

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *LoggerClient and the Logger interface, and flushes
// buffered entries on shutdown.
//
// Usage:
//
//	app := fx.New(
//	    logger.FXModule,
//	    fx.Supply(logger.Config{Level: logger.Info}),
//	)
//
// Dependencies required by this module:
// - A logger.Config instance must be available in the dependency injection container
var FXModule = fx.Module("logger",
	fx.Provide(
		NewLoggerClient,
		func(l *LoggerClient) Logger { return l },
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle handles cleanup (sync) of the Zap logger.
// On stop, buffered entries are flushed so nothing is lost during shutdown.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *LoggerClient) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Sync on stderr returns EINVAL/ENOTTY on some platforms; ignore it.
			_ = client.Zap.Sync()
			return nil
		},
	})
}
